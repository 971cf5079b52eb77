package roster

import (
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
)

// Plan is the reconciled state of one roster entry.
type Plan struct {
	Activation roster.Activation
	// Touch is false when the entry must be left exactly as it is.
	Touch bool
	// RecordAbsence asks for an absence row for the entry's shift.
	RecordAbsence bool
}

// DesiredActivation derives the activation of entry from today's record, the
// leave lookup and the clock. It reads nothing else, so repeated runs over the
// same inputs agree.
//
// A check-in always activates. Approved leave never changes the entry, but an
// expired grace period still records an approved absence. Otherwise the entry
// stays active inside grace and goes inactive, with an absence, after it.
func DesiredActivation(entry roster.Entry, record *attendance.Attendance, hasLeave bool, now time.Time, grace time.Duration) Plan {
	if record != nil && record.HasCheckIn() {
		return Plan{Activation: roster.ActivationActive, Touch: true}
	}

	loc := entry.Location()
	deadline := entry.PlannedStart.On(localDay(entry.WorkDate, loc), loc).Add(grace)
	expired := now.After(deadline)

	if hasLeave {
		return Plan{Activation: entry.Status, RecordAbsence: expired}
	}
	if expired {
		return Plan{Activation: roster.ActivationInactive, Touch: true, RecordAbsence: true}
	}
	return Plan{Activation: roster.ActivationActive, Touch: true}
}
