// Package embed is the HTTP client for the inference sidecar that
// hosts the heavy models (visual and text embedders, speech-to-text,
// face detection). The sidecar returns unit-normalized vectors, so dot
// products downstream are cosine similarities in [-1, 1]. Connection
// failures surface as ErrUnavailable and callers degrade instead of
// failing hard.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/your-org/cinedex/internal/config"
)

var ErrUnavailable = errors.New("inference service unavailable")

// Result is one embedding response.
type Result struct {
	Vector    []float32 `json:"vector"`
	Model     string    `json:"model"`
	Version   string    `json:"version"`
	Dimension int       `json:"dimension"`
}

// FaceDetection is one face found on a poster: identity vector plus
// bbox as x, y, w, h in image pixels.
type FaceDetection struct {
	Vector []float32  `json:"vector"`
	BBox   [4]float32 `json:"bbox"`
}

// Segment is one transcribed span of speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Client struct {
	baseURL string
	http    *http.Client
	ready   sync.Once
}

func NewClient(cfg config.InferenceConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// ensureReady probes the sidecar once per process. Purely informational:
// every call degrades on its own if the sidecar goes away later.
func (c *Client) ensureReady(ctx context.Context) {
	c.ready.Do(func() {
		if err := c.Healthy(ctx); err != nil {
			slog.Warn("inference service not reachable at startup", "url", c.baseURL, "error", err)
			return
		}
		slog.Info("inference service ready", "url", c.baseURL)
	})
}

func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) EmbedImage(ctx context.Context, image []byte) (*Result, error) {
	c.ensureReady(ctx)
	var result Result
	if err := c.postBytes(ctx, "/embed/image", image, "application/octet-stream", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) EmbedText(ctx context.Context, text string) (*Result, error) {
	c.ensureReady(ctx)
	var result Result
	if err := c.postJSON(ctx, "/embed/text", map[string]string{"text": text}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) EmbedTranscript(ctx context.Context, text string) (*Result, error) {
	c.ensureReady(ctx)
	var result Result
	if err := c.postJSON(ctx, "/embed/transcript", map[string]string{"text": text}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DetectFaces(ctx context.Context, image []byte) ([]FaceDetection, error) {
	c.ensureReady(ctx)
	var result struct {
		Faces []FaceDetection `json:"faces"`
	}
	if err := c.postBytes(ctx, "/faces/detect", image, "application/octet-stream", &result); err != nil {
		return nil, err
	}
	return result.Faces, nil
}

func (c *Client) Transcribe(ctx context.Context, wav []byte) ([]Segment, error) {
	c.ensureReady(ctx)
	var result struct {
		Segments []Segment `json:"segments"`
	}
	if err := c.postBytes(ctx, "/transcribe", wav, "audio/wav", &result); err != nil {
		return nil, err
	}
	return result.Segments, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	return c.postBytes(ctx, path, body, "application/json", out)
}

func (c *Client) postBytes(ctx context.Context, path string, body []byte, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("inference %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
