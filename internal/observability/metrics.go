package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qr_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	qrRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_renders_total",
			Help: "QR code renders by dot style, eye style and outcome",
		},
		[]string{"dot_style", "eye_style", "success"},
	)
)

// MetricsMiddleware must wrap the ServeMux directly: the mux records the
// matched pattern on the request it receives, which is used as the route label.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func RecordRender(dotStyle, eyeStyle string, success bool) {
	qrRenders.WithLabelValues(dotStyle, eyeStyle, strconv.FormatBool(success)).Inc()
}
