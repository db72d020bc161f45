// Package server exposes a layout detection backend over HTTP.
//
// The wire protocol matches what the remote detection backend consumes:
// GET /health for availability probes and POST /detect with a base64 PNG
// for inference. Running this server next to a GPU box lets thin clients
// keep their protection pipeline while the model runs elsewhere.
package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"time"

	"github.com/scanworks/unstaple/internal/detect"
)

// Server serves layout detection requests backed by a local Detector.
type Server struct {
	detector detect.Detector
	mux      *http.ServeMux
}

// New wraps a detector in an HTTP handler.
func New(detector detect.Detector) *Server {
	s := &Server{detector: detector, mux: http.NewServeMux()}
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/detect", s.handleDetect)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

type detectRequest struct {
	ImageBase64     string   `json:"image_base64"`
	Confidence      float64  `json:"confidence"`
	ProtectedLabels []string `json:"protected_labels"`
}

type regionPayload struct {
	BBox       [4]int  `json:"bbox"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type detectResponse struct {
	Success bool            `json:"success"`
	Regions []regionPayload `json:"regions"`
	Error   string          `json:"error,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "layout detection api",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok"}
	if err := s.detector.Preload(r.Context()); err != nil {
		// Still 200: the process is healthy, the backend state is
		// reported in the body for operators.
		status["detector"] = err.Error()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, detectResponse{
			Success: false, Regions: []regionPayload{}, Error: fmt.Sprintf("bad request: %v", err),
		})
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, detectResponse{
			Success: false, Regions: []regionPayload{}, Error: fmt.Sprintf("bad image_base64: %v", err),
		})
		return
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, detectResponse{
			Success: false, Regions: []regionPayload{}, Error: fmt.Sprintf("undecodable image: %v", err),
		})
		return
	}

	regions, err := s.detector.Detect(r.Context(), img, req.Confidence)
	if err != nil {
		log.Printf("detect failed: %v", err)
		writeJSON(w, http.StatusOK, detectResponse{
			Success: false, Regions: []regionPayload{}, Error: err.Error(),
		})
		return
	}

	// Filter to the requested label set, when one was given.
	wanted := make(map[string]bool, len(req.ProtectedLabels))
	for _, l := range req.ProtectedLabels {
		wanted[l] = true
	}

	payload := make([]regionPayload, 0, len(regions))
	for _, reg := range regions {
		if len(wanted) > 0 && !wanted[string(reg.Label)] {
			continue
		}
		payload = append(payload, regionPayload{
			BBox:       [4]int{reg.Bounds.Min.X, reg.Bounds.Min.Y, reg.Bounds.Max.X, reg.Bounds.Max.Y},
			Label:      string(reg.Label),
			Confidence: reg.Confidence,
		})
	}
	writeJSON(w, http.StatusOK, detectResponse{Success: true, Regions: payload})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
