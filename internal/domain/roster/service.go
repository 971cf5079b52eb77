package roster

import (
	"context"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/validator"
)

// ReconcileSummary reports what a reconciliation pass changed.
type ReconcileSummary struct {
	Date             string `json:"date"`
	EntriesChecked   int    `json:"entries_checked"`
	Activated        int    `json:"activated"`
	Deactivated      int    `json:"deactivated"`
	SkippedOnLeave   int    `json:"skipped_on_leave"`
	AbsencesRecorded int    `json:"absences_recorded"`
}

type ReconciliationService interface {
	// Reconcile flips roster activation for date based on grace-period absence detection.
	Reconcile(ctx context.Context, date time.Time) (ReconcileSummary, error)

	// DailyReset restores INACTIVE entries for date, skipping workers on approved leave.
	DailyReset(ctx context.Context, date time.Time) (int, error)

	// MarkAbsentStaff records absences for fixed staff with no check-in after the grace period.
	MarkAbsentStaff(ctx context.Context, date time.Time) (int, error)
}

// ReconcileRequest is the HR manual trigger payload.
type ReconcileRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, defaults to today
}

// WorkDate resolves the requested date, defaulting to today in loc.
func (r ReconcileRequest) WorkDate(now time.Time, loc *time.Location) (time.Time, error) {
	if r.Date == "" {
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, ok := validator.IsValidDate(r.Date)
	if !ok {
		return time.Time{}, validator.ValidationErrors{{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		}}
	}
	return date, nil
}
