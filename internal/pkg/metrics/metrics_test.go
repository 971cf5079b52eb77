package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncCheckIn("MORNING", "LATE")
	m.IncCheckIn("MORNING", "LATE")
	m.IncRejection("check_in", "sunday")
	m.AddReconcileChange("deactivated", 3)
	m.AddReconcileChange("deactivated", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CheckIns.WithLabelValues("MORNING", "LATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("check_in", "sunday")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ReconcileChanges.WithLabelValues("deactivated")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncCheckIn("FULL_DAY", "ON_TIME")
		m.IncCheckOut("FULL_DAY")
		m.SetSSESubscribers(4)
		m.IncRateLimited("check_in")
	})
}
