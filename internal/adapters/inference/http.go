package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
)

const (
	// DefaultPath is the array endpoint of the model service.
	DefaultPath = "/predict-array"

	maxResponseBytes = 1 << 20
	maxExcerptBytes  = 256
)

// HTTPOption configures an HTTPPredictor.
type HTTPOption func(*HTTPPredictor)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPPredictor) {
		if c != nil {
			p.client = c
		}
	}
}

// HTTPPredictor posts {"features":[...]} to a remote model service.
type HTTPPredictor struct {
	client   *http.Client
	endpoint string
}

// NewHTTPPredictor targets baseURL+path; an empty path means DefaultPath.
func NewHTTPPredictor(baseURL, path string, opts ...HTTPOption) *HTTPPredictor {
	if path == "" {
		path = DefaultPath
	}
	p := &HTTPPredictor{
		client:   &http.Client{},
		endpoint: strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Endpoint returns the full URL requests are sent to.
func (p *HTTPPredictor) Endpoint() string { return p.endpoint }

type predictRequest struct {
	Features features.Vector `json:"features"`
}

type predictResponse struct {
	Success       *bool     `json:"success"`
	Prediction    *int      `json:"prediction"`
	Probabilities []float64 `json:"probabilities"`
	Winner        string    `json:"winner"`
	Confidence    *float64  `json:"confidence"`
	Error         string    `json:"error"`
}

// Predict sends the vector unmodified. NaN slots travel as null.
func (p *HTTPPredictor) Predict(ctx context.Context, v features.Vector) (Prediction, error) {
	body, err := json.Marshal(predictRequest{Features: v})
	if err != nil {
		return Prediction{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: build request: %w", ErrInferenceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %w", ErrInferenceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: read response: %w", ErrInferenceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Prediction{}, &UpstreamError{Status: resp.StatusCode, Body: excerpt(raw)}
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Prediction{}, fmt.Errorf("%w: decode response: %w", ErrInferenceUnavailable, err)
	}
	if out.Success != nil && !*out.Success {
		return Prediction{}, fmt.Errorf("%w: %s", ErrInferenceRejected, out.Error)
	}
	return normalize(out)
}

// normalize fills fields older service versions leave out and maps
// "Fighter 1 wins" onto "Fighter 1".
func normalize(r predictResponse) (Prediction, error) {
	if r.Prediction == nil && len(r.Probabilities) < 2 && r.Winner == "" {
		return Prediction{}, fmt.Errorf("%w: response carries no verdict", ErrInferenceRejected)
	}

	var p Prediction
	if len(r.Probabilities) >= 2 {
		p = fromProbabilities(r.Probabilities)
	}
	switch {
	case r.Prediction != nil:
		p.Prediction = *r.Prediction
	case strings.HasPrefix(r.Winner, "Fighter 1"):
		p.Prediction = 1
	case strings.HasPrefix(r.Winner, "Fighter 2"):
		p.Prediction = 0
	}
	p.Winner = winnerFor(p.Prediction)
	switch {
	case r.Confidence != nil:
		p.Confidence = *r.Confidence
	case len(r.Probabilities) > 0:
		p.Confidence = slices.Max(r.Probabilities)
	}
	return p, nil
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxExcerptBytes {
		s = s[:maxExcerptBytes] + "..."
	}
	return s
}
