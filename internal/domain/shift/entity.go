package shift

import (
	"fmt"
	"time"
)

// Label identifies the unit of one attendance record.
type Label string

const (
	LabelFullDay   Label = "FULL_DAY"
	LabelMorning   Label = "MORNING"
	LabelAfternoon Label = "AFTERNOON"
)

var LabelValues = []string{
	string(LabelFullDay),
	string(LabelMorning),
	string(LabelAfternoon),
}

// TimeOfDay is a wall-clock time without a date, evaluated in a clinic's timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On anchors the time of day to the calendar date of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// IsLaterThan reports whether t falls after the wall clock of instant.
func (t TimeOfDay) IsLaterThan(instant time.Time) bool {
	return instant.Hour()*60+instant.Minute() < t.Minutes()
}

// MarshalYAML / UnmarshalYAML let the policy file carry "HH:MM" strings.
func (t TimeOfDay) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *TimeOfDay) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Window is an expected shift interval on a given day.
type Window struct {
	Label Label
	Start TimeOfDay
	End   TimeOfDay
}

// Policy holds the shift windows and thresholds the engine enforces.
type Policy struct {
	Morning   WindowPolicy `yaml:"morning"`
	Afternoon WindowPolicy `yaml:"afternoon"`
	FullDay   WindowPolicy `yaml:"full_day"`

	// MorningCutoff: clinician check-ins before this resolve to MORNING.
	MorningCutoff TimeOfDay `yaml:"morning_cutoff"`
	// LunchBoundary gates afternoon check-ins and fixed-staff check-outs.
	LunchBoundary TimeOfDay `yaml:"lunch_boundary"`

	ClinicianLunch LunchPolicy `yaml:"clinician_lunch"`
	StaffLunch     LunchPolicy `yaml:"staff_lunch"`

	GracePeriodMinutes int `yaml:"grace_period_minutes"`
	MaxLateMinutes     int `yaml:"max_late_minutes"`
}

type WindowPolicy struct {
	Start TimeOfDay `yaml:"start"`
	End   TimeOfDay `yaml:"end"`
}

type LunchPolicy struct {
	Start            TimeOfDay `yaml:"start"`
	End              TimeOfDay `yaml:"end"`
	DeductionMinutes int       `yaml:"deduction_minutes"`
}

// DefaultPolicy returns the organization-wide defaults.
func DefaultPolicy() Policy {
	return Policy{
		Morning:        WindowPolicy{Start: TimeOfDay{8, 0}, End: TimeOfDay{11, 0}},
		Afternoon:      WindowPolicy{Start: TimeOfDay{13, 0}, End: TimeOfDay{18, 0}},
		FullDay:        WindowPolicy{Start: TimeOfDay{8, 0}, End: TimeOfDay{18, 0}},
		MorningCutoff:  TimeOfDay{11, 0},
		LunchBoundary:  TimeOfDay{13, 0},
		ClinicianLunch: LunchPolicy{Start: TimeOfDay{11, 0}, End: TimeOfDay{13, 0}, DeductionMinutes: 120},
		StaffLunch:     LunchPolicy{Start: TimeOfDay{12, 0}, End: TimeOfDay{13, 0}, DeductionMinutes: 60},

		GracePeriodMinutes: 120,
		MaxLateMinutes:     120,
	}
}

// Default returns the policy window for label.
func (p Policy) Default(label Label) Window {
	switch label {
	case LabelMorning:
		return Window{Label: label, Start: p.Morning.Start, End: p.Morning.End}
	case LabelAfternoon:
		return Window{Label: label, Start: p.Afternoon.Start, End: p.Afternoon.End}
	default:
		return Window{Label: LabelFullDay, Start: p.FullDay.Start, End: p.FullDay.End}
	}
}
