package roster

import (
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
)

type Activation string

const (
	ActivationActive   Activation = "ACTIVE"
	ActivationInactive Activation = "INACTIVE"
)

// Entry is a clinician's planned shift assignment.
type Entry struct {
	ID           string
	WorkerID     string
	ClinicID     string
	WorkDate     time.Time
	PlannedStart shift.TimeOfDay
	PlannedEnd   shift.TimeOfDay
	Room         *string
	Status       Activation
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Join
	ClinicTimezone string
}

// Label derives the shift an entry belongs to from its planned start.
func (e Entry) Label(cutoff shift.TimeOfDay) shift.Label {
	if e.PlannedStart.Minutes() < cutoff.Minutes() {
		return shift.LabelMorning
	}
	return shift.LabelAfternoon
}

// Window returns the entry's planned interval as a shift window.
func (e Entry) Window(cutoff shift.TimeOfDay) shift.Window {
	return shift.Window{Label: e.Label(cutoff), Start: e.PlannedStart, End: e.PlannedEnd}
}

// Location loads the clinic timezone joined onto the entry.
func (e Entry) Location() *time.Location {
	if e.ClinicTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
