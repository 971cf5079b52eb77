package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/verification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/worker"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/service/punctuality"
	shiftsvc "github.com/cmlabs-hris/clinic-attendance-go/internal/service/shift"
)

// checkInContext is everything resolved before the transaction starts.
type checkInContext struct {
	worker   worker.Worker
	clinicID string
	loc      *time.Location
	now      time.Time
	local    time.Time
	workDate time.Time
	label    shift.Label
	window   shift.Window
	entries  []roster.Entry
	entry    *roster.Entry
	hasLeave bool
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	cc, err := s.prepareCheckIn(ctx, req)
	if err != nil {
		s.reject("check_in", err)
		return attendance.AttendanceResponse{}, err
	}

	var rec attendance.Attendance
	// A unique violation means a concurrent writer won the insert; the second
	// attempt re-reads that row under lock.
	for attempt := 0; attempt < 2; attempt++ {
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var txErr error
			rec, txErr = s.checkInTx(ctx, cc, req)
			return txErr
		})
		if !errors.Is(err, attendance.ErrDuplicateRecord) {
			break
		}
		slog.Debug("concurrent check-in detected, retrying", "worker_id", cc.worker.ID, "shift", cc.label)
	}
	if errors.Is(err, attendance.ErrDuplicateRecord) {
		err = attendance.ErrAlreadyCheckedIn
	}
	if err != nil {
		s.reject("check_in", err)
		return attendance.AttendanceResponse{}, err
	}

	s.metrics.IncCheckIn(string(rec.ShiftLabel), string(rec.Status))
	slog.Info("check-in recorded",
		"attendance_id", rec.ID,
		"worker_id", rec.WorkerID,
		"shift", rec.ShiftLabel,
		"status", rec.Status,
		"late_minutes", rec.LateMinutes,
	)
	s.afterCommit(ctx, rec, nil, notification.TypeCheckedIn,
		"Check-in recorded",
		fmt.Sprintf("Checked in for %s shift at %s (%s)", rec.ShiftLabel, cc.local.Format("15:04"), rec.Status))

	return mapAttendanceToResponse(rec), nil
}

// prepareCheckIn runs the read-only checks and gates. Nothing is mutated here.
func (s *AttendanceServiceImpl) prepareCheckIn(ctx context.Context, req attendance.CheckInRequest) (checkInContext, error) {
	w, err := s.trackedWorker(ctx, req.WorkerID)
	if err != nil {
		return checkInContext{}, err
	}

	var clinicID string
	switch {
	case req.ClinicID != nil:
		clinicID = *req.ClinicID
	case w.ClinicID != nil:
		clinicID = *w.ClinicID
	default:
		return checkInContext{}, attendance.ErrNoClinicAssigned
	}
	c, err := s.activeClinic(ctx, clinicID)
	if err != nil {
		return checkInContext{}, err
	}

	now := s.now()
	loc := c.Location()
	local := now.In(loc)
	if shiftsvc.IsSunday(local) {
		return checkInContext{}, attendance.ErrSundayNotAllowed
	}

	label := s.resolver.Resolve(w.Role, local)
	if err := s.resolver.CheckInGate(label, local); err != nil {
		return checkInContext{}, err
	}

	cc := checkInContext{
		worker:   w,
		clinicID: clinicID,
		loc:      loc,
		now:      now,
		local:    local,
		workDate: attendance.WorkDateOf(now, loc),
		label:    label,
	}

	if w.IsClinician() {
		cc.entries, err = s.Repository.FindByWorkerClinicDate(ctx, w.ID, clinicID, cc.workDate)
		if err != nil {
			return checkInContext{}, fmt.Errorf("failed to load roster: %w", err)
		}
		cc.entry = s.resolver.EntryFor(label, cc.entries)
	}
	cc.window = s.resolver.ExpectedWindow(label, cc.entry)

	cc.hasLeave, err = s.LeaveLookup.HasApprovedLeave(ctx, w.ID, cc.workDate, &label)
	if err != nil {
		return checkInContext{}, fmt.Errorf("failed to look up leave: %w", err)
	}

	return cc, nil
}

func (s *AttendanceServiceImpl) checkInTx(ctx context.Context, cc checkInContext, req attendance.CheckInRequest) (attendance.Attendance, error) {
	existing, err := s.AttendanceRepository.FindByWorkerDateShiftForUpdate(ctx, cc.worker.ID, cc.workDate, cc.label)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to read attendance: %w", err)
	}
	if existing != nil && existing.HasCheckIn() {
		return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
	}

	outcome, err := s.gateway.Verify(ctx, cc.worker.ID, cc.clinicID, req.IdentitySample, verification.LocationSample{SSID: req.SSID, BSSID: req.BSSID})
	if err != nil {
		return attendance.Attendance{}, err
	}

	day := localDay(cc.workDate, cc.loc)
	late := s.calc.LateMinutes(cc.local, cc.window.Start.On(day, cc.loc))

	var rec attendance.Attendance
	if existing != nil {
		// Swept absence row: upgrade in place.
		rec = *existing
	} else {
		rec = attendance.Attendance{
			WorkerID:   cc.worker.ID,
			ClinicID:   cc.clinicID,
			WorkDate:   cc.workDate,
			ShiftLabel: cc.label,
		}
	}
	checkIn := cc.now.UTC()
	rec.CheckIn = &checkIn
	rec.LateMinutes = late
	rec.Status = s.calc.Classify(late, cc.hasLeave)
	rec.ExpectedWorkedHours = s.calc.ExpectedHours(cc.window, day, cc.worker.IsClinician())
	rec.KeepHigherScore(outcome.IdentityScore)
	rec.MarkVerification(outcome.LocationValid)
	rec.EnforceInvariants()

	if existing != nil {
		attached, err := s.AttendanceRepository.AttachCheckIn(ctx, rec)
		if err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to attach check-in: %w", err)
		}
		if !attached {
			return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
		}
	} else {
		rec, err = s.AttendanceRepository.Create(ctx, rec)
		if err != nil {
			return attendance.Attendance{}, err
		}
	}

	if cc.worker.IsClinician() {
		if err := s.applyRosterEffects(ctx, cc); err != nil {
			return attendance.Attendance{}, err
		}
	}

	return rec, nil
}

// applyRosterEffects activates the checked-in entry (and the afternoon entries
// after a morning check-in). A late afternoon check-in with no morning
// check-in records the morning slot as absent.
func (s *AttendanceServiceImpl) applyRosterEffects(ctx context.Context, cc checkInContext) error {
	activate := func(e roster.Entry) error {
		if e.Status == roster.ActivationActive {
			return nil
		}
		if err := s.Repository.UpdateStatus(ctx, e.ID, roster.ActivationActive); err != nil {
			return fmt.Errorf("failed to activate roster entry: %w", err)
		}
		return nil
	}

	if cc.entry != nil {
		if err := activate(*cc.entry); err != nil {
			return err
		}
	}

	switch cc.label {
	case shift.LabelMorning:
		for _, e := range cc.entries {
			if s.resolver.LabelOf(e) == shift.LabelAfternoon {
				if err := activate(e); err != nil {
					return err
				}
			}
		}
	case shift.LabelAfternoon:
		return s.markMorningAbsent(ctx, cc)
	}
	return nil
}

func (s *AttendanceServiceImpl) markMorningAbsent(ctx context.Context, cc checkInContext) error {
	morning := s.resolver.EntryFor(shift.LabelMorning, cc.entries)
	if morning == nil {
		return nil
	}

	day := localDay(cc.workDate, cc.loc)
	window := s.resolver.ExpectedWindow(shift.LabelMorning, morning)
	grace := time.Duration(s.resolver.Policy().GracePeriodMinutes) * time.Minute
	if !cc.local.After(window.Start.On(day, cc.loc).Add(grace)) {
		return nil
	}

	existing, err := s.AttendanceRepository.FindByWorkerDateShift(ctx, cc.worker.ID, cc.workDate, shift.LabelMorning)
	if err != nil {
		return fmt.Errorf("failed to read morning attendance: %w", err)
	}
	if existing != nil {
		return nil
	}

	morningLabel := shift.LabelMorning
	onLeave, err := s.LeaveLookup.HasApprovedLeave(ctx, cc.worker.ID, cc.workDate, &morningLabel)
	if err != nil {
		return fmt.Errorf("failed to look up leave: %w", err)
	}

	absence := attendance.NewAbsence(cc.worker.ID, cc.clinicID, cc.workDate, shift.LabelMorning,
		punctuality.AbsenceStatus(onLeave), s.calc.ExpectedHours(window, day, true))
	if _, err := s.AttendanceRepository.CreateAbsence(ctx, absence); err != nil {
		return fmt.Errorf("failed to record morning absence: %w", err)
	}
	return nil
}
