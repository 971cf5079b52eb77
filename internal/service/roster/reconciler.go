package roster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/clinic"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/worker"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/service/punctuality"
	shiftsvc "github.com/cmlabs-hris/clinic-attendance-go/internal/service/shift"
)

type ReconciliationServiceImpl struct {
	tx attendance.Transactor
	attendance.AttendanceRepository
	roster.Repository
	worker.WorkerRepository
	clinic.ClinicRepository
	leave.LeaveLookup
	resolver *shiftsvc.Resolver
	calc     *punctuality.Calculator
	notifier notification.Service
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*ReconciliationServiceImpl)

func WithClock(now func() time.Time) Option {
	return func(s *ReconciliationServiceImpl) { s.now = now }
}

func WithNotifier(n notification.Service) Option {
	return func(s *ReconciliationServiceImpl) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ReconciliationServiceImpl) { s.metrics = m }
}

func NewReconciliationService(
	tx attendance.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	rosterRepo roster.Repository,
	workerRepo worker.WorkerRepository,
	clinicRepo clinic.ClinicRepository,
	leaveLookup leave.LeaveLookup,
	policy shift.Policy,
	opts ...Option,
) roster.ReconciliationService {
	s := &ReconciliationServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		Repository:           rosterRepo,
		WorkerRepository:     workerRepo,
		ClinicRepository:     clinicRepo,
		LeaveLookup:          leaveLookup,
		resolver:             shiftsvc.NewResolver(policy),
		calc:                 punctuality.NewCalculator(policy),
		now:                  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// entryOutcome is what one reconciled entry changed.
type entryOutcome struct {
	activation *roster.Activation
	absence    *attendance.Attendance
	onLeave    bool
}

// Reconcile implements roster.ReconciliationService. A failing entry is
// logged and skipped so one bad row does not block the rest of the day.
func (s *ReconciliationServiceImpl) Reconcile(ctx context.Context, date time.Time) (roster.ReconcileSummary, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveReconcile(time.Since(started)) }()

	summary := roster.ReconcileSummary{Date: date.Format("2006-01-02")}

	entries, err := s.Repository.ListByDate(ctx, date)
	if err != nil {
		return summary, fmt.Errorf("failed to list roster entries: %w", err)
	}

	now := s.now()
	for _, entry := range entries {
		summary.EntriesChecked++

		var out entryOutcome
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var txErr error
			out, txErr = s.reconcileEntry(ctx, entry, now)
			return txErr
		})
		if err != nil {
			slog.Error("failed to reconcile roster entry",
				"roster_entry_id", entry.ID,
				"worker_id", entry.WorkerID,
				"error", err,
			)
			continue
		}

		if out.onLeave {
			summary.SkippedOnLeave++
		}
		if out.activation != nil {
			if *out.activation == roster.ActivationActive {
				summary.Activated++
			} else {
				summary.Deactivated++
			}
		}
		if out.absence != nil {
			summary.AbsencesRecorded++
			s.notifyAbsent(ctx, *out.absence)
		}
	}

	s.metrics.AddReconcileChange("activated", summary.Activated)
	s.metrics.AddReconcileChange("deactivated", summary.Deactivated)
	s.metrics.AddReconcileChange("absence", summary.AbsencesRecorded)

	slog.Info("roster reconciled",
		"date", summary.Date,
		"checked", summary.EntriesChecked,
		"activated", summary.Activated,
		"deactivated", summary.Deactivated,
		"absences", summary.AbsencesRecorded,
		"on_leave", summary.SkippedOnLeave,
	)
	return summary, nil
}

func (s *ReconciliationServiceImpl) reconcileEntry(ctx context.Context, entry roster.Entry, now time.Time) (entryOutcome, error) {
	var out entryOutcome

	label := s.resolver.LabelOf(entry)
	rec, err := s.AttendanceRepository.FindByWorkerDateShiftForUpdate(ctx, entry.WorkerID, entry.WorkDate, label)
	if err != nil {
		return out, fmt.Errorf("failed to read attendance: %w", err)
	}
	hasLeave, err := s.LeaveLookup.HasApprovedLeave(ctx, entry.WorkerID, entry.WorkDate, &label)
	if err != nil {
		return out, fmt.Errorf("failed to look up leave: %w", err)
	}
	out.onLeave = hasLeave && (rec == nil || !rec.HasCheckIn())

	grace := time.Duration(s.resolver.Policy().GracePeriodMinutes) * time.Minute
	plan := DesiredActivation(entry, rec, hasLeave, now, grace)

	if plan.RecordAbsence {
		status := punctuality.AbsenceStatus(hasLeave)
		if rec == nil {
			loc := entry.Location()
			day := localDay(entry.WorkDate, loc)
			window := s.resolver.ExpectedWindow(label, &entry)
			absence := attendance.NewAbsence(entry.WorkerID, entry.ClinicID, entry.WorkDate, label,
				status, s.calc.ExpectedHours(window, day, true))
			created, err := s.AttendanceRepository.CreateAbsence(ctx, absence)
			if err != nil {
				return out, fmt.Errorf("failed to record absence: %w", err)
			}
			if created {
				out.absence = &absence
			}
		} else if rec.Status != status {
			// Leave approved (or revoked) after an earlier sweep.
			if err := s.AttendanceRepository.UpdateAbsenceStatus(ctx, rec.ID, status); err != nil {
				return out, fmt.Errorf("failed to update absence: %w", err)
			}
		}
	}

	if plan.Touch && entry.Status != plan.Activation {
		if err := s.Repository.UpdateStatus(ctx, entry.ID, plan.Activation); err != nil {
			return out, fmt.Errorf("failed to update roster status: %w", err)
		}
		activation := plan.Activation
		out.activation = &activation
	}

	return out, nil
}

// DailyReset implements roster.ReconciliationService.
func (s *ReconciliationServiceImpl) DailyReset(ctx context.Context, date time.Time) (int, error) {
	entries, err := s.Repository.ListByDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to list roster entries: %w", err)
	}

	restored := 0
	for _, entry := range entries {
		if entry.Status != roster.ActivationInactive {
			continue
		}
		label := s.resolver.LabelOf(entry)
		hasLeave, err := s.LeaveLookup.HasApprovedLeave(ctx, entry.WorkerID, entry.WorkDate, &label)
		if err != nil {
			slog.Error("failed to look up leave", "worker_id", entry.WorkerID, "error", err)
			continue
		}
		if hasLeave {
			continue
		}
		if err := s.Repository.UpdateStatus(ctx, entry.ID, roster.ActivationActive); err != nil {
			slog.Error("failed to reset roster entry", "roster_entry_id", entry.ID, "error", err)
			continue
		}
		restored++
	}

	s.metrics.AddReconcileChange("reset", restored)
	slog.Info("roster daily reset", "date", date.Format("2006-01-02"), "restored", restored)
	return restored, nil
}

// MarkAbsentStaff implements roster.ReconciliationService.
func (s *ReconciliationServiceImpl) MarkAbsentStaff(ctx context.Context, date time.Time) (int, error) {
	workers, err := s.WorkerRepository.ListActiveByRole(ctx, worker.RoleStaff)
	if err != nil {
		return 0, fmt.Errorf("failed to list staff: %w", err)
	}

	policy := s.resolver.Policy()
	grace := time.Duration(policy.GracePeriodMinutes) * time.Minute
	window := policy.Default(shift.LabelFullDay)
	label := shift.LabelFullDay
	now := s.now()

	clinics := make(map[string]*clinic.Clinic)
	marked := 0
	for _, w := range workers {
		if w.ClinicID == nil {
			continue
		}
		c, ok := clinics[*w.ClinicID]
		if !ok {
			loaded, err := s.ClinicRepository.GetByID(ctx, *w.ClinicID)
			if err != nil {
				slog.Error("failed to load clinic", "clinic_id", *w.ClinicID, "error", err)
				continue
			}
			c = &loaded
			clinics[*w.ClinicID] = c
		}
		if !c.IsActive {
			continue
		}

		loc := c.Location()
		day := localDay(date, loc)
		if shiftsvc.IsSunday(day) {
			continue
		}
		if !now.After(window.Start.On(day, loc).Add(grace)) {
			continue
		}

		hasLeave, err := s.LeaveLookup.HasApprovedLeave(ctx, w.ID, date, &label)
		if err != nil {
			slog.Error("failed to look up leave", "worker_id", w.ID, "error", err)
			continue
		}

		absence := attendance.NewAbsence(w.ID, c.ID, date, label,
			punctuality.AbsenceStatus(hasLeave), s.calc.ExpectedHours(window, day, false))
		created, err := s.AttendanceRepository.CreateAbsence(ctx, absence)
		if err != nil {
			slog.Error("failed to record absence", "worker_id", w.ID, "error", err)
			continue
		}
		if created {
			marked++
			s.notifyAbsent(ctx, absence)
		}
	}

	s.metrics.AddReconcileChange("absence", marked)
	slog.Info("staff absence sweep", "date", date.Format("2006-01-02"), "marked", marked)
	return marked, nil
}

func (s *ReconciliationServiceImpl) notifyAbsent(ctx context.Context, rec attendance.Attendance) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.QueueNotification(context.WithoutCancel(ctx), notification.CreateNotificationRequest{
		RecipientID: rec.WorkerID,
		Type:        notification.TypeMarkedAbsent,
		Title:       "Marked absent",
		Message:     fmt.Sprintf("No check-in was recorded for your %s shift on %s", rec.ShiftLabel, rec.WorkDate.Format("2006-01-02")),
		Data: map[string]interface{}{
			"work_date": rec.WorkDate.Format("2006-01-02"),
			"shift":     string(rec.ShiftLabel),
			"status":    string(rec.Status),
		},
	})
	if err != nil {
		slog.Warn("failed to queue notification", "worker_id", rec.WorkerID, "error", err)
	}
}

// localDay is the clinic-local midnight of a stored work date.
func localDay(workDate time.Time, loc *time.Location) time.Time {
	return time.Date(workDate.Year(), workDate.Month(), workDate.Day(), 0, 0, 0, 0, loc)
}
