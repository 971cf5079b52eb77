package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
)

// AttendanceJobs drives roster reconciliation from the scheduler.
type AttendanceJobs struct {
	reconciler roster.ReconciliationService
	loc        *time.Location
	interval   time.Duration
	resetHour  int
	now        func() time.Time
}

type JobsConfig struct {
	// Location decides which calendar day "today" is.
	Location          *time.Location
	ReconcileInterval time.Duration
	ResetHour         int
}

func NewAttendanceJobs(reconciler roster.ReconciliationService, cfg JobsConfig) *AttendanceJobs {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = 5 * time.Minute
	}
	return &AttendanceJobs{
		reconciler: reconciler,
		loc:        cfg.Location,
		interval:   cfg.ReconcileInterval,
		resetHour:  cfg.ResetHour,
		now:        time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("roster_daily_reset", 1*time.Hour, j.DailyReset)
	scheduler.AddJob("roster_reconcile", j.interval, j.Reconcile)
	scheduler.AddJob("mark_absent_staff", j.interval, j.MarkAbsentStaff)
}

func (j *AttendanceJobs) today() time.Time {
	return attendance.WorkDateOf(j.now(), j.loc)
}

// Reconcile runs the grace-period activation pass for today.
func (j *AttendanceJobs) Reconcile(ctx context.Context) error {
	summary, err := j.reconciler.Reconcile(ctx, j.today())
	if err != nil {
		return fmt.Errorf("failed to reconcile roster: %w", err)
	}
	if summary.Activated+summary.Deactivated+summary.AbsencesRecorded > 0 {
		slog.Info("cron: roster reconciled",
			"date", summary.Date,
			"activated", summary.Activated,
			"deactivated", summary.Deactivated,
			"absences", summary.AbsencesRecorded,
		)
	}
	return nil
}

// DailyReset reactivates the new day's INACTIVE roster entries once per day,
// during resetHour.
func (j *AttendanceJobs) DailyReset(ctx context.Context) error {
	if j.now().In(j.loc).Hour() != j.resetHour {
		return nil
	}

	restored, err := j.reconciler.DailyReset(ctx, j.today())
	if err != nil {
		return fmt.Errorf("failed to reset roster: %w", err)
	}
	slog.Info("cron: roster reset", "restored", restored)
	return nil
}

// MarkAbsentStaff records absences for fixed staff past the grace period.
func (j *AttendanceJobs) MarkAbsentStaff(ctx context.Context) error {
	marked, err := j.reconciler.MarkAbsentStaff(ctx, j.today())
	if err != nil {
		return fmt.Errorf("failed to mark absent staff: %w", err)
	}
	if marked > 0 {
		slog.Info("cron: staff marked absent", "count", marked)
	}
	return nil
}
