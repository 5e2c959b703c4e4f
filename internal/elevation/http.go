package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stuartshay/path-worker/internal/geodesy"
)

// HTTPProvider requests elevations from a JSON web service. The request
// body is {"coordinates": [[lng, lat], ...], "options": {...}} and the
// response an array of {"elev": n} in request order.
type HTTPProvider struct {
	url    string
	client *http.Client
}

type httpRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
	Options     Options      `json:"options"`
}

// NewHTTPProvider creates a provider for the service at url
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Elevations implements Provider
func (p *HTTPProvider) Elevations(ctx context.Context, coords []geodesy.Coordinate, opts Options) ([]Result, error) {
	body := httpRequest{
		Coordinates: make([][2]float64, len(coords)),
		Options:     opts,
	}
	for i, c := range coords {
		body.Coordinates[i] = c.LngLat()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode elevation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create elevation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevation request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // nolint:errcheck // Close in defer, error not actionable

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevation service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var results []Result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode elevation response: %w", err)
	}

	return results, nil
}
