package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the service. All methods are
// safe on a nil receiver.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	submitted       prometheus.Counter
	autoAssigned    prometheus.Counter
	flagged         *prometheus.CounterVec
	confidence      prometheus.Histogram
	transitions     *prometheus.CounterVec
	pushDropped     *prometheus.CounterVec
}

// NewMetrics registers collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_errors_total",
			Help: "HTTP error responses by code",
		}, []string{"path", "method", "code"}),
		submitted: f.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_tickets_submitted_total",
			Help: "Tickets submitted",
		}),
		autoAssigned: f.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_tickets_auto_assigned_total",
			Help: "Tickets routed without admin intervention",
		}),
		flagged: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_tickets_flagged_total",
			Help: "Tickets left for manual review, by reason",
		}, []string{"reason"}),
		confidence: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "helpdesk_classifier_confidence_percent",
			Help:    "Classifier confidence of submitted tickets",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_transitions_total",
			Help: "Ticket status transitions",
		}, []string{"to"}),
		pushDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_push_dropped_total",
			Help: "Real-time pushes that were not delivered",
		}, []string{"reason"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// TicketSubmitted records one submission and its classifier confidence.
func (m *Metrics) TicketSubmitted(confidence float64) {
	if m == nil {
		return
	}
	m.submitted.Inc()
	m.confidence.Observe(confidence)
}

func (m *Metrics) TicketAutoAssigned() {
	if m == nil {
		return
	}
	m.autoAssigned.Inc()
}

// TicketFlagged records why a ticket needs an admin.
func (m *Metrics) TicketFlagged(reason string) {
	if m == nil {
		return
	}
	m.flagged.WithLabelValues(reason).Inc()
}

func (m *Metrics) TicketTransition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

// PushDropped satisfies worker.DropCounter.
func (m *Metrics) PushDropped(reason string) {
	if m == nil {
		return
	}
	m.pushDropped.WithLabelValues(reason).Inc()
}
