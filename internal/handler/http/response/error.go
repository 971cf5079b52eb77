package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/clinic"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/verification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/worker"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var failed *verification.FailedError
	if errors.As(err, &failed) {
		Forbidden(w, failed.Reason)
		return
	}

	switch {
	// Auth
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrRateLimited):
		TooManyRequests(w, err.Error())
	case errors.Is(err, user.ErrHRAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrWorkerProfileRequired):
		Forbidden(w, err.Error())

	// Attendance time-window, day, role and clinic rules
	case attendance.IsTimeWindowError(err),
		errors.Is(err, attendance.ErrRoleNotTracked),
		errors.Is(err, attendance.ErrNoClinicAssigned),
		errors.Is(err, attendance.ErrNotCheckedIn),
		errors.Is(err, attendance.ErrExplanationNotAllowed),
		errors.Is(err, worker.ErrWorkerNotActive),
		errors.Is(err, clinic.ErrClinicInactive):
		BadRequest(w, err.Error(), nil)

	// Lifecycle conflicts
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrExplanationPending),
		errors.Is(err, attendance.ErrNoPendingExplanation),
		errors.Is(err, attendance.ErrDuplicateRecord):
		Conflict(w, err.Error())

	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, err.Error())

	// Not found
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, worker.ErrWorkerNotFound):
		NotFound(w, "Worker not found")
	case errors.Is(err, clinic.ErrClinicNotFound):
		NotFound(w, "Clinic not found")
	case errors.Is(err, roster.ErrEntryNotFound):
		NotFound(w, "Roster entry not found")
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, verification.ErrTemplateNotFound):
		Forbidden(w, "No identity template registered for this worker")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
