package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"
)

const maxSnapshotBytes = 16 << 20

// HTTPSource fetches a still image from a snapshot URL on every grab, as
// exposed by most IP cameras.
type HTTPSource struct {
	client *http.Client
	url    string
}

// NewHTTPSource creates a snapshot source.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns "http:<url>".
func (s *HTTPSource) Name() string {
	return "http:" + s.url
}

// Open validates the URL. The camera may still be starting, so
// reachability is left to Grab.
func (s *HTTPSource) Open(ctx context.Context) error {
	_, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("invalid snapshot URL: %w", err)
	}
	return nil
}

// Grab downloads and decodes one snapshot.
func (s *HTTPSource) Grab(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png;q=0.9, image/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("snapshot request failed (status %d)", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return img, nil
}

// Close releases idle connections.
func (s *HTTPSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
