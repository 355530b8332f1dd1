package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the appointment webhook.
type BookingMetrics struct {
	requestsTotal   *prometheus.CounterVec
	upstreamTotal   *prometheus.CounterVec
	handlerLatency  prometheus.Histogram
	upstreamLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aidental",
			Subsystem: "booking",
			Name:      "requests_total",
			Help:      "Total appointment webhook requests by terminal result",
		}, []string{"result"}),
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aidental",
			Subsystem: "booking",
			Name:      "upstream_submissions_total",
			Help:      "Total Cal.com submissions by classified outcome",
		}, []string{"outcome"}),
		handlerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aidental",
			Subsystem: "booking",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of appointment webhook processing",
			Buckets:   prometheus.DefBuckets,
		}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aidental",
			Subsystem: "booking",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of the Cal.com booking round trip",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.upstreamTotal, m.handlerLatency, m.upstreamLatency)
	return m
}

func (m *BookingMetrics) ObserveRequest(result string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveUpstream(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(outcome).Inc()
	m.upstreamLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.handlerLatency.Observe(seconds)
}
