package classifier

import (
	"context"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metadataJSON = `{"modelName":"pets","labels":["cat","dog"],"imageSize":224}`

func newTestClassifier(t *testing.T, handler http.Handler, mutate ...func(*Config)) *HTTPClassifier {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.Provider = ProviderHTTP
	cfg.ModelURL = server.URL + "/model"
	cfg.Timeout = 2 * time.Second
	for _, m := range mutate {
		m(&cfg)
	}

	c, err := NewHTTPClassifier(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestHTTPClassifier_Load(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/model/metadata.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(metadataJSON))
	})

	c := newTestClassifier(t, mux)
	info, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pets", info.Name)
	assert.Equal(t, []string{"cat", "dog"}, info.Labels)
	assert.Equal(t, 224, info.ImageSize)
	assert.Equal(t, info, c.Info())
}

func TestHTTPClassifier_LoadRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClassifier(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(metadataJSON))
	}))

	info, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pets", info.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClassifier_LoadDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClassifier(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))

	_, err := c.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClassifier_LoadGivesUp(t *testing.T) {
	c := newTestClassifier(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), func(cfg *Config) { cfg.LoadRetries = 2 })

	_, err := c.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
}

func TestHTTPClassifier_LoadRequiresLabels(t *testing.T) {
	c := newTestClassifier(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"modelName":"empty","labels":[]}`))
	}))

	_, err := c.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no labels")
}

func TestHTTPClassifier_Classify(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/model/classify", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "7", r.Header.Get("X-Frame-Seq"))
		assert.Equal(t, "trace-1", r.Header.Get("X-Trace-Id"))

		img, err := jpeg.Decode(r.Body)
		if assert.NoError(t, err) {
			assert.Equal(t, 32, img.Bounds().Dx())
		}

		_, _ = w.Write([]byte(`{"results":[{"label":"dog","confidence":0.05},{"label":"cat","confidence":0.91}]}`))
	})

	c := newTestClassifier(t, mux, func(cfg *Config) { cfg.Token = "secret" })

	frame := solidFrame(color.Gray{Y: 128})
	frame.Seq = 7
	frame.TraceID = "trace-1"

	preds, err := c.Classify(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, model.Predictions{
		{Label: "cat", Confidence: 0.91},
		{Label: "dog", Confidence: 0.05},
	}, preds)
}

func TestHTTPClassifier_ClassifyCustomEndpoint(t *testing.T) {
	var hit atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, _ *http.Request) {
		hit.Store(true)
		_, _ = w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := DefaultConfig()
	cfg.ModelURL = server.URL + "/model/"
	cfg.Endpoint = server.URL + "/predict"
	c, err := NewHTTPClassifier(cfg)
	require.NoError(t, err)

	preds, err := c.Classify(context.Background(), solidFrame(color.White))
	require.NoError(t, err)
	assert.Empty(t, preds)
	assert.True(t, hit.Load())
}

func TestHTTPClassifier_ClassifyErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"error body", http.StatusInternalServerError, `{"error":"gpu on fire"}`, common.ErrClassificationFailed, "gpu on fire"},
		{"plain failure", http.StatusBadGateway, `bad gateway`, common.ErrClassificationFailed, "status 502"},
		{"throttled", http.StatusTooManyRequests, ``, common.ErrRateLimit, ""},
		{"malformed success", http.StatusOK, `{"ok":true}`, common.ErrMalformedResult, ""},
		{"error with ok status", http.StatusOK, `{"error":"no model"}`, common.ErrClassificationFailed, "no model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := c.Classify(context.Background(), solidFrame(color.White))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestHTTPClassifier_ClassifyRejectsEmptyFrame(t *testing.T) {
	var calls atomic.Int32
	c := newTestClassifier(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))

	_, err := c.Classify(context.Background(), model.Frame{})
	assert.ErrorIs(t, err, common.ErrClassificationFailed)
	assert.Zero(t, calls.Load())
}

func TestNew(t *testing.T) {
	t.Run("mock by default", func(t *testing.T) {
		c, err := New(DefaultConfig())
		require.NoError(t, err)
		assert.IsType(t, &MockClassifier{}, c)
	})

	t.Run("http", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider = "HTTP"
		cfg.ModelURL = "http://localhost:9/model/"
		c, err := New(cfg)
		require.NoError(t, err)
		assert.IsType(t, &HTTPClassifier{}, c)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Config)
			want   error
		}{
			{"unknown provider", func(c *Config) { c.Provider = "tflite" }, common.ErrInvalidConfig},
			{"http without url", func(c *Config) { c.Provider = ProviderHTTP }, common.ErrMissingConfig},
			{"mock without labels", func(c *Config) { c.Labels = nil }, common.ErrInvalidConfig},
			{"negative rate", func(c *Config) { c.RateLimit = -1 }, common.ErrInvalidConfig},
			{"jpeg quality", func(c *Config) { c.JPEGQuality = 101 }, common.ErrInvalidConfig},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := DefaultConfig()
				tt.mutate(&cfg)
				_, err := New(cfg)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})
}
