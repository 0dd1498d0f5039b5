package middleware

import "net/http"

// StatusMetrics is the metric recording subset the metrics middleware
// uses.
type StatusMetrics interface {
	RecordHTTPStatus(statusCode int)
	RecordAuthRejected()
}

// NewMetricsMiddleware counts responses by status code and auth
// rejections (401/403).
func NewMetricsMiddleware(metrics StatusMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			metrics.RecordHTTPStatus(rec.statusCode)
			if rec.statusCode == http.StatusUnauthorized || rec.statusCode == http.StatusForbidden {
				metrics.RecordAuthRejected()
			}
		})
	}
}
