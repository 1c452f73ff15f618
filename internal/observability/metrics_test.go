package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.TicketSubmitted(85)
	m.TicketSubmitted(40)
	m.TicketAutoAssigned()
	m.TicketFlagged("low_confidence")
	m.PushDropped("queue_full")
	m.RecordRequest("/tickets", "POST", 201, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.autoAssigned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flagged.WithLabelValues("low_confidence")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushDropped.WithLabelValues("queue_full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/tickets", "POST", "201")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TicketSubmitted(1)
		m.TicketFlagged("x")
		m.RecordError("/", "GET", "X")
		m.PushDropped("x")
	})
}
