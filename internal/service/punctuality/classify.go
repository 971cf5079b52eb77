package punctuality

import (
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
)

// Classify maps late minutes and approved leave to a status. Reaching the late
// threshold counts as absence even though a check-in exists.
func (c *Calculator) Classify(lateMinutes int, hasApprovedLeave bool) attendance.Status {
	switch {
	case lateMinutes >= c.policy.MaxLateMinutes:
		return AbsenceStatus(hasApprovedLeave)
	case lateMinutes > 0:
		if hasApprovedLeave {
			return attendance.StatusApprovedLate
		}
		return attendance.StatusLate
	default:
		if hasApprovedLeave {
			return attendance.StatusApprovedPresent
		}
		return attendance.StatusOnTime
	}
}

// AbsenceStatus is the status of a missing or too-late attendance.
func AbsenceStatus(hasApprovedLeave bool) attendance.Status {
	if hasApprovedLeave {
		return attendance.StatusApprovedAbsence
	}
	return attendance.StatusAbsent
}
