package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/providers"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/observability"
)

// CacheMiddleware caches successful GET responses. Keys include the current
// workspace generation, so a rebuilt workspace never serves stale entries.
type CacheMiddleware struct {
	cache    providers.CacheProvider
	version  func() string
	ttl      time.Duration
	prefixes []string
	metrics  *observability.Metrics
}

// NewCacheMiddleware creates a cache middleware for paths under prefixes.
// version returns the current generation; "" disables caching.
func NewCacheMiddleware(cache providers.CacheProvider, version func() string, ttl time.Duration, metrics *observability.Metrics, prefixes ...string) *CacheMiddleware {
	return &CacheMiddleware{
		cache:    cache,
		version:  version,
		ttl:      ttl,
		prefixes: prefixes,
		metrics:  metrics,
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil || !m.cacheable(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		version := m.version()
		if version == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		logger := observability.LoggerFromContext(ctx)
		key := CacheKey(version, r)

		if cached, err := m.cache.Get(ctx, key); err == nil {
			observability.RecordCacheHit(ctx, m.metrics, r.URL.Path)
			logger.Debug().Str("path", r.URL.Path).Msg("Cache hit")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		observability.RecordCacheMiss(ctx, m.metrics, r.URL.Path)
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode != http.StatusOK || recorder.body.Len() == 0 {
			return
		}
		// The workspace may have been rebuilt while the handler ran.
		if m.version() != version {
			return
		}
		if err := m.cache.Set(ctx, key, recorder.body.Bytes(), m.ttl); err != nil {
			logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to cache response")
		}
	})
}

func (m *CacheMiddleware) cacheable(path string) bool {
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// CacheKey hashes the workspace generation with the request method and URL
func CacheKey(version string, r *http.Request) string {
	key := version + ":" + r.Method + ":" + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.Query().Encode()
	}
	hash := sha256.Sum256([]byte(key))
	return "http:cache:" + hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
