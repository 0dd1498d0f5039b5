// Package metrics provides Prometheus metric collection and exposure.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is the metric recording interface used by the services.
type MetricsCollector interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordAuthRejected()
	RecordSlotBooked()
	RecordEvaluationRecorded()
	RecordHTTPStatus(statusCode int)
}

// Collector is the Prometheus-backed implementation.
type Collector struct {
	loginSuccess prometheus.Counter
	loginFail    prometheus.Counter
	authRejected prometheus.Counter
	slotBooked   prometheus.Counter
	evaluations  prometheus.Counter
	httpStatus   *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its metrics on the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "titula_login_success_total",
			Help: "Total successful logins",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "titula_login_fail_total",
			Help: "Total failed login attempts",
		}),
		authRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "titula_auth_rejected_total",
			Help: "Total requests rejected with 401 or 403",
		}),
		slotBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "titula_slot_booked_total",
			Help: "Total defense slot bookings",
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "titula_evaluations_total",
			Help: "Total recorded defense evaluations",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "titula_http_status_total",
			Help: "Responses by HTTP status code",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFail,
		c.authRejected,
		c.slotBooked,
		c.evaluations,
		c.httpStatus,
	)

	return c
}

// RecordLoginSuccess counts a successful login.
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure counts a failed login attempt.
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordAuthRejected counts a 401/403 rejection.
func (c *Collector) RecordAuthRejected() {
	c.authRejected.Inc()
}

// RecordSlotBooked counts a defense slot booking.
func (c *Collector) RecordSlotBooked() {
	c.slotBooked.Inc()
}

// RecordEvaluationRecorded counts a recorded evaluation.
func (c *Collector) RecordEvaluationRecorded() {
	c.evaluations.Inc()
}

// RecordHTTPStatus counts a response by status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
