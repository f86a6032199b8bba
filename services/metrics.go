package services

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics exposes Prometheus collectors for the upload pipeline.
// A nil *UploadMetrics records nothing.
type UploadMetrics struct {
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	pendingWrites *prometheus.CounterVec
	inFlight      prometheus.Gauge
}

var (
	defaultUploadMetricsOnce sync.Once
	sharedUploadMetrics      *UploadMetrics
)

// DefaultUploadMetrics returns metrics registered once with the global registry.
func DefaultUploadMetrics() *UploadMetrics {
	defaultUploadMetricsOnce.Do(func() {
		sharedUploadMetrics = MustNewUploadMetrics(prometheus.DefaultRegisterer)
	})
	return sharedUploadMetrics
}

// MustNewUploadMetrics registers the collectors with reg and panics on
// duplicate registration.
func MustNewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &UploadMetrics{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "luvlang",
				Subsystem: "uploads",
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each upload stage.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind", "stage", "status"},
		),
		stageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "luvlang",
				Subsystem: "uploads",
				Name:      "stage_failures_total",
				Help:      "Uploads that failed, by stage and reason.",
			},
			[]string{"kind", "stage", "reason"},
		),
		pendingWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "luvlang",
				Subsystem: "uploads",
				Name:      "pending_writes_total",
				Help:      "Profile writes queued for replay after a stored upload.",
			},
			[]string{"kind"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "luvlang",
				Subsystem: "uploads",
				Name:      "in_flight",
				Help:      "Uploads currently being processed.",
			},
		),
	}
	reg.MustRegister(m.stageDuration, m.stageFailures, m.pendingWrites, m.inFlight)
	return m
}

func (m *UploadMetrics) observeStage(kind, stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(kind, stage, status).Observe(d.Seconds())
}

func (m *UploadMetrics) failure(kind, stage, reason string) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(kind, stage, reason).Inc()
}

func (m *UploadMetrics) pending(kind string) {
	if m == nil {
		return
	}
	m.pendingWrites.WithLabelValues(kind).Inc()
}

func (m *UploadMetrics) trackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}
