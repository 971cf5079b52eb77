package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic_attendance"

// Metrics holds the Prometheus collectors of the attendance engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CheckIns          *prometheus.CounterVec
	CheckOuts         *prometheus.CounterVec
	Rejections        *prometheus.CounterVec
	Verifications     *prometheus.CounterVec
	Explanations      *prometheus.CounterVec
	ReconcileChanges  *prometheus.CounterVec
	ReconcileDuration prometheus.Histogram
	NotificationsSent *prometheus.CounterVec
	SSESubscribers    prometheus.Gauge
	RateLimited       *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CheckIns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_ins_total",
				Help:      "Accepted check-ins by shift and status.",
			},
			[]string{"shift", "status"},
		),
		CheckOuts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_outs_total",
				Help:      "Accepted check-outs by shift.",
			},
			[]string{"shift"},
		),
		Rejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transition_rejections_total",
				Help:      "Refused attendance transitions by operation and reason.",
			},
			[]string{"operation", "reason"},
		),
		Verifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verifications_total",
				Help:      "Verification gateway results.",
			},
			[]string{"result"},
		),
		Explanations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "explanations_total",
				Help:      "Explanation workflow steps by kind.",
			},
			[]string{"kind"},
		),
		ReconcileChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_changes_total",
				Help:      "Roster activation changes and absence records written by reconciliation.",
			},
			[]string{"change"},
		),
		ReconcileDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconcile_duration_seconds",
				Help:      "Time spent in one reconciliation pass.",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5, 10},
			},
		),
		NotificationsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notifications persisted, by result.",
			},
			[]string{"result"},
		),
		SSESubscribers: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sse_subscribers",
				Help:      "Open notification streams.",
			},
		),
		RateLimited: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests refused by the rate limiter, by route.",
			},
			[]string{"route"},
		),
	}
}

func (m *Metrics) IncCheckIn(shift, status string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(shift, status).Inc()
}

func (m *Metrics) IncCheckOut(shift string) {
	if m == nil {
		return
	}
	m.CheckOuts.WithLabelValues(shift).Inc()
}

func (m *Metrics) IncRejection(operation, reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) IncVerification(result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncExplanation(kind string) {
	if m == nil {
		return
	}
	m.Explanations.WithLabelValues(kind).Inc()
}

func (m *Metrics) AddReconcileChange(change string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ReconcileChanges.WithLabelValues(change).Add(float64(n))
}

func (m *Metrics) ObserveReconcile(d time.Duration) {
	if m == nil {
		return
	}
	m.ReconcileDuration.Observe(d.Seconds())
}

func (m *Metrics) AddNotifications(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.NotificationsSent.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) SetSSESubscribers(n int) {
	if m == nil {
		return
	}
	m.SSESubscribers.Set(float64(n))
}

func (m *Metrics) IncRateLimited(route string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(route).Inc()
}
