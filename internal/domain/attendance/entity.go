package attendance

import (
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOnTime          Status = "ON_TIME"
	StatusLate            Status = "LATE"
	StatusAbsent          Status = "ABSENT"
	StatusApprovedAbsence Status = "APPROVED_ABSENCE"
	StatusApprovedLate    Status = "APPROVED_LATE"
	StatusApprovedPresent Status = "APPROVED_PRESENT"
)

// OverridableStatuses is the allow-list for HR status overrides.
var OverridableStatuses = []string{
	string(StatusOnTime),
	string(StatusLate),
	string(StatusAbsent),
	string(StatusApprovedAbsence),
	string(StatusApprovedLate),
	string(StatusApprovedPresent),
}

// IsAbsent reports whether the status counts as absence for payroll.
func (s Status) IsAbsent() bool {
	return s == StatusAbsent || s == StatusApprovedAbsence
}

type VerificationStatus string

const (
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationFailed   VerificationStatus = "FAILED"
)

// Phase is the lifecycle position derived from the timestamps.
type Phase string

const (
	PhaseNoRecord  Phase = "NO_RECORD"
	PhaseCheckedIn Phase = "CHECKED_IN"
	PhaseCompleted Phase = "COMPLETED"
)

type Attendance struct {
	ID                    string
	WorkerID              string
	ClinicID              string
	WorkDate              time.Time
	ShiftLabel            shift.Label
	CheckIn               *time.Time
	CheckOut              *time.Time
	Status                Status
	LateMinutes           int
	EarlyMinutes          int
	LunchDeductionMinutes int
	ActualWorkedHours     decimal.Decimal
	ExpectedWorkedHours   decimal.Decimal
	IdentityScore         *float64
	Verification          *VerificationStatus
	Explanations          ExplanationLog
	Note                  *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (a *Attendance) HasCheckIn() bool {
	return a.CheckIn != nil
}

func (a *Attendance) HasCheckOut() bool {
	return a.CheckOut != nil
}

func (a *Attendance) Phase() Phase {
	switch {
	case a.CheckIn == nil:
		return PhaseNoRecord
	case a.CheckOut == nil:
		return PhaseCheckedIn
	default:
		return PhaseCompleted
	}
}

// EnforceInvariants applies the rules that must hold on every write:
// absent statuses never accrue hours, and the display note follows the log.
func (a *Attendance) EnforceInvariants() {
	if a.Status.IsAbsent() {
		a.ActualWorkedHours = decimal.Zero
	}
	if a.ActualWorkedHours.IsNegative() {
		a.ActualWorkedHours = decimal.Zero
	}
	if note := a.Explanations.Note(); note != "" {
		a.Note = &note
	}
}

// KeepHigherScore records score if it beats the stored identity score.
func (a *Attendance) KeepHigherScore(score float64) {
	if a.IdentityScore == nil || score > *a.IdentityScore {
		a.IdentityScore = &score
	}
}

// MarkVerification downgrades to FAILED once any step failed location checks.
func (a *Attendance) MarkVerification(locationValid bool) {
	status := VerificationVerified
	if !locationValid || (a.Verification != nil && *a.Verification == VerificationFailed) {
		status = VerificationFailed
	}
	a.Verification = &status
}

// NewAbsence builds the record written for a shift that was never checked into.
func NewAbsence(workerID, clinicID string, workDate time.Time, label shift.Label, status Status, expectedHours decimal.Decimal) Attendance {
	return Attendance{
		WorkerID:            workerID,
		ClinicID:            clinicID,
		WorkDate:            workDate,
		ShiftLabel:          label,
		Status:              status,
		ActualWorkedHours:   decimal.Zero,
		ExpectedWorkedHours: expectedHours,
	}
}

// WorkDateOf truncates an instant in loc to its calendar date, stored as UTC midnight.
func WorkDateOf(instant time.Time, loc *time.Location) time.Time {
	local := instant.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
