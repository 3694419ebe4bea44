package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/providers"
)

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	ttls  map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = append([]byte(nil), value...)
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func countingHandler(calls *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"ok":true}`))
	})
}

func TestCacheMiddleware_HitAfterMiss(t *testing.T) {
	cache := newMemoryCache()
	version := "gen-1"
	calls := 0
	handler := NewCacheMiddleware(cache, func() string { return version }, time.Minute, nil, "/api/dashboards").
		Middleware(countingHandler(&calls, http.StatusOK))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/dashboards/overview?field=school", nil))
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/dashboards/overview?field=school", nil))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"ok":true}`, second.Body.String())
	assert.Equal(t, 1, calls)

	for _, ttl := range cache.ttls {
		assert.Equal(t, time.Minute, ttl)
	}

	version = "gen-2"
	third := httptest.NewRecorder()
	handler.ServeHTTP(third, httptest.NewRequest(http.MethodGet, "/api/dashboards/overview?field=school", nil))
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestCacheMiddleware_Bypass(t *testing.T) {
	cache := newMemoryCache()
	calls := 0
	version := ""
	handler := NewCacheMiddleware(cache, func() string { return version }, time.Minute, nil, "/api/dashboards").
		Middleware(countingHandler(&calls, http.StatusOK))

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"no live workspace", http.MethodGet, "/api/dashboards/overview"},
		{"not a GET", http.MethodPost, "/api/dashboards/overview"},
		{"outside prefix", http.MethodGet, "/api/querystring/parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Empty(t, w.Header().Get("X-Cache"))
		})
		version = "gen-1"
	}
	assert.Empty(t, cache.items)
}

func TestCacheMiddleware_DoesNotStoreErrors(t *testing.T) {
	cache := newMemoryCache()
	calls := 0
	handler := NewCacheMiddleware(cache, func() string { return "gen-1" }, time.Minute, nil, "/api").
		Middleware(countingHandler(&calls, http.StatusServiceUnavailable))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboards/sessions", nil))
	assert.Empty(t, cache.items)
}

func TestCacheKey_IgnoresParameterOrder(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/api/dashboards/switches?field=school&window=5m", nil)
	b := httptest.NewRequest(http.MethodGet, "/api/dashboards/switches?window=5m&field=school", nil)

	assert.Equal(t, CacheKey("g", a), CacheKey("g", b))
	assert.NotEqual(t, CacheKey("g", a), CacheKey("h", a))
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	restricted := CORSMiddleware([]string{"https://dash.advisory.sg"})(next)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboards/overview", nil)
	req.Header.Set("Origin", "https://dash.advisory.sg")
	restricted.ServeHTTP(w, req)
	assert.Equal(t, "https://dash.advisory.sg", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusTeapot, w.Code)

	w = httptest.NewRecorder()
	req.Header.Set("Origin", "https://evil.example")
	restricted.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	preflight := httptest.NewRequest(http.MethodOptions, "/api/workspace/refresh", nil)
	preflight.Header.Set("Origin", "https://any.example")
	CORSMiddleware([]string{"*"})(next).ServeHTTP(w, preflight)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestResponseOptimization_Gzip(t *testing.T) {
	handler := ResponseOptimization(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily":[]}`))
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboards/sessions", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	handler.ServeHTTP(w, req)

	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=60")

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, `{"daily":[]}`, string(body))
}

func TestLoggingAndObservabilityPassThrough(t *testing.T) {
	handler := LoggingMiddleware(ObservabilityMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboards/screentime", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
