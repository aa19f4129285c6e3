package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"itinopt/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack is required by the websocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// routeLabel collapses IDs so metric label cardinality stays bounded.
func routeLabel(path string) string {
	if rest, ok := strings.CutPrefix(path, "/v1/datasets/"); ok && rest != "" && rest != "import" {
		return "/v1/datasets/{id}"
	}
	if rest, ok := strings.CutPrefix(path, "/v1/webhooks/"); ok && rest != "" {
		return "/v1/webhooks/{id}"
	}
	return path
}

// logMiddleware writes one access log line per request and records the
// HTTP Prometheus collectors.
func logMiddleware(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)

		route := routeLabel(r.URL.Path)
		code := strconv.Itoa(rec.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, code).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route, code).Observe(dur.Seconds())

		evt := log.Info()
		switch {
		case rec.status >= 500:
			evt = log.Error()
		case rec.status >= 400:
			evt = log.Warn()
		}
		evt.Str("remote", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", rec.status).
			Dur("duration", dur).
			Msg("HTTP request")
	})
}
