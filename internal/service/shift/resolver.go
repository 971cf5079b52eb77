package shift

import (
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/worker"
)

// Resolver maps a worker and a local wall-clock instant to a shift and its
// expected window. All times passed in must already be in the clinic timezone.
type Resolver struct {
	policy shift.Policy
}

func NewResolver(policy shift.Policy) *Resolver {
	return &Resolver{policy: policy}
}

func (r *Resolver) Policy() shift.Policy {
	return r.policy
}

// Resolve picks the shift label for a check-in at localNow.
func (r *Resolver) Resolve(role worker.Role, localNow time.Time) shift.Label {
	if role != worker.RoleClinician {
		return shift.LabelFullDay
	}
	if r.policy.MorningCutoff.IsLaterThan(localNow) {
		return shift.LabelMorning
	}
	return shift.LabelAfternoon
}

// ExpectedWindow returns the roster entry's planned interval when present,
// otherwise the policy default for label.
func (r *Resolver) ExpectedWindow(label shift.Label, entry *roster.Entry) shift.Window {
	if entry != nil {
		return shift.Window{Label: label, Start: entry.PlannedStart, End: entry.PlannedEnd}
	}
	return r.policy.Default(label)
}

// EntryFor selects the roster entry of label among a worker's entries for the day.
func (r *Resolver) EntryFor(label shift.Label, entries []roster.Entry) *roster.Entry {
	for i := range entries {
		if entries[i].Label(r.policy.MorningCutoff) == label {
			return &entries[i]
		}
	}
	return nil
}

// LabelOf derives the shift of a roster entry.
func (r *Resolver) LabelOf(entry roster.Entry) shift.Label {
	return entry.Label(r.policy.MorningCutoff)
}

// CheckInGate rejects an afternoon check-in before the lunch boundary.
func (r *Resolver) CheckInGate(label shift.Label, localNow time.Time) error {
	if label == shift.LabelAfternoon && r.policy.LunchBoundary.IsLaterThan(localNow) {
		return attendance.ErrAfternoonCheckInTooEarly
	}
	return nil
}

// CheckOutGate validates a check-out instant against the record's shift.
// Fixed staff may not leave before the lunch boundary; clinicians may not
// check out before their shift starts, and afternoon clinicians not before
// the lunch boundary either.
func (r *Resolver) CheckOutGate(label shift.Label, window shift.Window, localNow time.Time) error {
	switch label {
	case shift.LabelFullDay:
		if r.policy.LunchBoundary.IsLaterThan(localNow) {
			return attendance.ErrCheckOutBeforeLunch
		}
	case shift.LabelMorning, shift.LabelAfternoon:
		if window.Start.IsLaterThan(localNow) {
			return attendance.ErrCheckOutBeforeShift
		}
		if label == shift.LabelAfternoon && r.policy.LunchBoundary.IsLaterThan(localNow) {
			return attendance.ErrCheckOutBeforeLunch
		}
	}
	return nil
}

// IsSunday reports whether localNow falls on a Sunday.
func IsSunday(localNow time.Time) bool {
	return localNow.Weekday() == time.Sunday
}
