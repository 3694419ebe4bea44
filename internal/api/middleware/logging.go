package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/observability"
)

// LoggingMiddleware logs one line per request. Server errors are logged at
// error level.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		level := zerolog.InfoLevel
		if rw.statusCode >= http.StatusInternalServerError {
			level = zerolog.ErrorLevel
		}
		observability.LoggerFromContext(r.Context()).WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Str("cache", rw.Header().Get("X-Cache")).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *loggingResponseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
