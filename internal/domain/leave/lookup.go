package leave

import (
	"context"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
)

// ApprovedLeave is a leave request that has already been approved upstream.
// A nil Shift covers the whole day.
type ApprovedLeave struct {
	ID        string
	WorkerID  string
	StartDate time.Time
	EndDate   time.Time
	Shift     *shift.Label
}

// Covers reports whether the leave applies to date and, when given, label.
func (l ApprovedLeave) Covers(date time.Time, label *shift.Label) bool {
	d := date.Format("2006-01-02")
	if d < l.StartDate.Format("2006-01-02") || d > l.EndDate.Format("2006-01-02") {
		return false
	}
	if l.Shift == nil || label == nil {
		return true
	}
	return *l.Shift == *label
}

// LeaveLookup is read-only; leave approval itself lives outside this service.
type LeaveLookup interface {
	HasApprovedLeave(ctx context.Context, workerID string, date time.Time, label *shift.Label) (bool, error)
}
