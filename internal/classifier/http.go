package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/model"
	"golang.org/x/oauth2"
)

const maxResponseBytes = 1 << 20

// HTTPClassifier talks to a model server. Load fetches the model metadata
// and Classify posts JPEG-encoded frames to the classification endpoint.
type HTTPClassifier struct {
	httpClient *http.Client
	limiter    *rateLimiter
	info       model.ModelInfo
	cfg        Config
	mu         sync.RWMutex
}

// NewHTTPClassifier creates an HTTP classifier. A configured token is sent
// as a bearer token on every request.
func NewHTTPClassifier(cfg Config) (*HTTPClassifier, error) {
	if cfg.ModelURL == "" {
		return nil, fmt.Errorf("%w: model URL is required", common.ErrMissingConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.JPEGQuality == 0 {
		cfg.JPEGQuality = jpeg.DefaultQuality
	}

	var transport http.RoundTripper = &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
			Base:   transport,
		}
	}

	return &HTTPClassifier{
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RateLimit),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}, nil
}

// Load fetches metadata.json from the model URL, retrying transient
// failures.
func (c *HTTPClassifier) Load(ctx context.Context) (model.ModelInfo, error) {
	url := c.cfg.metadataURL()

	var info model.ModelInfo
	err := common.WithRetry(ctx, func() error {
		var fetchErr error
		info, fetchErr = c.fetchMetadata(ctx, url)
		return fetchErr
	}, common.RetryOptions{
		MaxAttempts:  c.cfg.LoadRetries,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	})
	if err != nil {
		return model.ModelInfo{}, fmt.Errorf("failed to load model metadata from %s: %w", url, err)
	}

	if len(info.Labels) == 0 {
		return model.ModelInfo{}, fmt.Errorf("model metadata from %s lists no labels", url)
	}
	if info.Name == "" {
		info.Name = c.cfg.ModelURL
	}

	c.mu.Lock()
	c.info = info
	c.mu.Unlock()

	common.LogInfo("Model metadata loaded", common.Fields{
		"model":  info.Name,
		"url":    url,
		"labels": len(info.Labels),
	})
	return info, nil
}

func (c *HTTPClassifier) fetchMetadata(ctx context.Context, url string) (model.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.ModelInfo{}, &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.ModelInfo{}, &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.ModelInfo{}, &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return model.ModelInfo{}, fmt.Errorf("%w: metadata request throttled", common.ErrRateLimit)
	case resp.StatusCode >= http.StatusInternalServerError:
		return model.ModelInfo{}, &common.RetryableError{
			Err:       fmt.Errorf("model server error (status %d): %s", resp.StatusCode, truncate(body)),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		return model.ModelInfo{}, &common.RetryableError{
			Err: fmt.Errorf("metadata request failed (status %d): %s", resp.StatusCode, truncate(body)),
		}
	}

	var info model.ModelInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return model.ModelInfo{}, &common.RetryableError{Err: fmt.Errorf("failed to parse metadata: %w", err)}
	}
	return info, nil
}

// Classify encodes frame as JPEG and posts it to the classification
// endpoint. The response goes through Normalize.
func (c *HTTPClassifier) Classify(ctx context.Context, frame model.Frame) (model.Predictions, error) {
	if !frame.Decodable() {
		return nil, fmt.Errorf("%w: frame %d has no image", common.ErrClassificationFailed, frame.Seq)
	}

	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: c.cfg.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("%w: failed to encode frame: %w", common.ErrClassificationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.endpoint(), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Frame-Seq", strconv.FormatUint(frame.Seq, 10))
	if frame.TraceID != "" {
		req.Header.Set("X-Trace-Id", frame.TraceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", common.ErrClassificationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", common.ErrClassificationFailed, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %w", common.ErrClassificationFailed, common.ErrRateLimit)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if _, nerr := Normalize(body); errors.Is(nerr, common.ErrClassificationFailed) {
			return nil, fmt.Errorf("classifier returned status %d: %w", resp.StatusCode, nerr)
		}
		return nil, fmt.Errorf("%w: status %d: %s", common.ErrClassificationFailed, resp.StatusCode, truncate(body))
	}

	return Normalize(body)
}

// Info returns the metadata from the last successful Load.
func (c *HTTPClassifier) Info() model.ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// Close releases idle connections.
func (c *HTTPClassifier) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
