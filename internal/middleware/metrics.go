package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestMetrics records per-request metrics
type RequestMetrics interface {
	RecordRequest(method, path, status string, duration time.Duration)
}

// Metrics returns a middleware that records request metrics. The chi route
// pattern is used instead of the raw path to keep label cardinality bounded.
func Metrics(m RequestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			m.RecordRequest(r.Method, path, strconv.Itoa(wrapped.status), time.Since(start))
		})
	}
}
