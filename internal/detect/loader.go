package detect

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadState tracks a backend's lazy initialization.
type LoadState int

const (
	StateUninitialized LoadState = iota
	StateLoading
	StateReady
	StateFailed
)

// String returns the state name for logs.
func (s LoadState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// loader guards a backend's one-time initialization.
//
// Concurrent first calls share a single load attempt through singleflight.
// A failed load is terminal: the loader caches the failure and every later
// call gets the same UnavailableError without retrying, so a broken model
// path does not re-pay the load cost on every page. An attempt cut short
// by the caller's own context is not a verdict on the backend and leaves
// the loader retryable.
type loader struct {
	backend string
	load    func(ctx context.Context) error

	mu    sync.Mutex
	state LoadState
	err   error
	sf    singleflight.Group
}

func newLoader(backend string, load func(ctx context.Context) error) *loader {
	return &loader{backend: backend, load: load}
}

// State returns the current load state.
func (l *loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// ensure brings the backend to the ready state, loading it if this is the
// first call. Returns an UnavailableError if the load failed, now or on an
// earlier attempt.
func (l *loader) ensure(ctx context.Context) error {
	l.mu.Lock()
	switch l.state {
	case StateReady:
		l.mu.Unlock()
		return nil
	case StateFailed:
		err := l.err
		l.mu.Unlock()
		return &UnavailableError{Backend: l.backend, Err: err}
	}
	l.mu.Unlock()

	_, err, _ := l.sf.Do("load", func() (interface{}, error) {
		// Re-check under the flight: a caller that lost the race to a
		// finished attempt must not start a second one.
		l.mu.Lock()
		switch l.state {
		case StateReady:
			l.mu.Unlock()
			return nil, nil
		case StateFailed:
			err := l.err
			l.mu.Unlock()
			return nil, err
		}
		l.state = StateLoading
		l.mu.Unlock()

		if err := l.load(ctx); err != nil {
			if ctx.Err() != nil {
				// Caller cancellation is not a backend verdict. Leave
				// the loader retryable for the next call.
				l.setState(StateUninitialized, nil)
				return nil, err
			}
			l.setState(StateFailed, err)
			return nil, err
		}
		l.setState(StateReady, nil)
		return nil, nil
	})
	if err != nil {
		return &UnavailableError{Backend: l.backend, Err: err}
	}
	return nil
}

func (l *loader) setState(s LoadState, err error) {
	l.mu.Lock()
	l.state = s
	l.err = err
	l.mu.Unlock()
}
