package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics tracks booking lifecycle and notification fan-out volume.
type DomainMetrics struct {
	bookingTransitions *prometheus.CounterVec
	fanoutRecipients   prometheus.Histogram
	notifications      *prometheus.CounterVec
}

// NewDomainMetrics registers the domain metrics on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Booking status transitions by target status.",
	}, []string{"status"})
	fanout := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "notification_fanout_recipients",
		Help:    "Recipients resolved per notification fan-out.",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
	})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Notifications created by target type.",
	}, []string{"target_type"})
	reg.MustRegister(transitions, fanout, notifications)
	return &DomainMetrics{
		bookingTransitions: transitions,
		fanoutRecipients:   fanout,
		notifications:      notifications,
	}
}

// IncBookingTransition counts one transition into the given status.
func (d *DomainMetrics) IncBookingTransition(status string) {
	if d == nil || d.bookingTransitions == nil {
		return
	}
	d.bookingTransitions.WithLabelValues(status).Inc()
}

// ObserveFanout records the resolved recipient count of one notification.
func (d *DomainMetrics) ObserveFanout(targetType string, recipients int) {
	if d == nil || d.fanoutRecipients == nil {
		return
	}
	d.fanoutRecipients.Observe(float64(recipients))
	d.notifications.WithLabelValues(targetType).Inc()
}
