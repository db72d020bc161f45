package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"math"
	"net/http"
	"strings"
	"time"
)

// remoteDetector delegates layout detection to an HTTP inference server.
//
// The wire protocol is a minimal JSON API: GET /health for the load probe
// and POST /detect with a base64 PNG for inference. Transport failures,
// timeouts, and non-2xx responses all surface as UnavailableError; the
// detector never retries on its own.
type remoteDetector struct {
	baseURL   string
	client    *http.Client
	protected []Label
	loader    *loader
}

type detectRequest struct {
	ImageBase64     string   `json:"image_base64"`
	Confidence      float64  `json:"confidence"`
	ProtectedLabels []string `json:"protected_labels"`
}

type detectResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Regions []struct {
		BBox       [4]float64 `json:"bbox"`
		Label      string     `json:"label"`
		Confidence float64    `json:"confidence"`
	} `json:"regions"`
}

// healthTimeout bounds the load probe; a server that cannot answer /health
// quickly is treated as down.
const healthTimeout = 5 * time.Second

func newRemoteDetector(cfg Config) *remoteDetector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	protected := cfg.ProtectedLabels
	if len(protected) == 0 {
		protected = DefaultProtectedLabels
	}
	d := &remoteDetector{
		baseURL:   strings.TrimRight(cfg.RemoteURL, "/"),
		client:    &http.Client{Timeout: timeout},
		protected: protected,
	}
	d.loader = newLoader(BackendRemote, d.probe)
	return d
}

// probe checks the server's health endpoint.
func (d *remoteDetector) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe: status %s", resp.Status)
	}
	return nil
}

func (d *remoteDetector) Preload(ctx context.Context) error {
	return d.loader.ensure(ctx)
}

func (d *remoteDetector) Detect(ctx context.Context, img image.Image, confidenceFloor float64) ([]Region, error) {
	if err := d.loader.ensure(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}

	labels := make([]string, len(d.protected))
	for i, l := range d.protected {
		labels[i] = string(l)
	}
	body, err := json.Marshal(detectRequest{
		ImageBase64:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		Confidence:      confidenceFloor,
		ProtectedLabels: labels,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &UnavailableError{Backend: BackendRemote, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &UnavailableError{Backend: BackendRemote, Err: fmt.Errorf("detect: status %s", resp.Status)}
	}

	var dr detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, &UnavailableError{Backend: BackendRemote, Err: fmt.Errorf("detect: decode response: %w", err)}
	}
	if !dr.Success {
		return nil, &UnavailableError{Backend: BackendRemote, Err: fmt.Errorf("detect: server error: %s", dr.Error)}
	}

	pageBounds := img.Bounds()
	regions := make([]Region, 0, len(dr.Regions))
	for _, r := range dr.Regions {
		if r.Confidence < confidenceFloor {
			continue
		}
		// Fractional boxes round outward so protection never shrinks.
		rect := image.Rect(
			int(math.Floor(r.BBox[0])), int(math.Floor(r.BBox[1])),
			int(math.Ceil(r.BBox[2])), int(math.Ceil(r.BBox[3])),
		).Intersect(pageBounds)
		if rect.Empty() {
			continue
		}
		regions = append(regions, Region{
			Bounds:     rect,
			Label:      MapLabel(r.Label),
			Confidence: r.Confidence,
		})
	}
	return regions, nil
}
