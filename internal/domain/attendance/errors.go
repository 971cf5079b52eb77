package attendance

import "errors"

// Attendance domain errors
var (
	// Check-in errors
	ErrAlreadyCheckedIn         = errors.New("already checked in for this shift")
	ErrSundayNotAllowed         = errors.New("attendance is not recorded on Sundays")
	ErrRoleNotTracked           = errors.New("this account is excluded from attendance tracking")
	ErrNoClinicAssigned         = errors.New("no clinic given and none assigned to the worker")
	ErrAfternoonCheckInTooEarly = errors.New("afternoon shift check-in is not allowed before 13:00")

	// Check-out errors
	ErrNotCheckedIn          = errors.New("you have not checked in yet")
	ErrAlreadyCheckedOut     = errors.New("you have already checked out")
	ErrCheckOutBeforeLunch   = errors.New("check-out is not allowed before 13:00")
	ErrCheckOutBeforeShift   = errors.New("check-out is not allowed before the shift starts")
	ErrCheckOutBeforeCheckIn = errors.New("check-out must be after check-in")

	// Explanation workflow errors
	ErrExplanationPending    = errors.New("an explanation is already pending for this attendance")
	ErrNoPendingExplanation  = errors.New("no pending explanation for this attendance")
	ErrExplanationNotAllowed = errors.New("explanation requires a check-in without check-out")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrUnauthorized       = errors.New("unauthorized to access this attendance record")
	ErrDuplicateRecord    = errors.New("attendance record already exists for this shift")
)

// IsTimeWindowError reports errors raised by the wall-clock policy gates.
func IsTimeWindowError(err error) bool {
	return errors.Is(err, ErrSundayNotAllowed) ||
		errors.Is(err, ErrAfternoonCheckInTooEarly) ||
		errors.Is(err, ErrCheckOutBeforeLunch) ||
		errors.Is(err, ErrCheckOutBeforeShift) ||
		errors.Is(err, ErrCheckOutBeforeCheckIn)
}
