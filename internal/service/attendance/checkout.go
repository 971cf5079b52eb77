package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/verification"
)

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	w, err := s.trackedWorker(ctx, req.WorkerID)
	if err != nil {
		s.reject("check_out", err)
		return attendance.AttendanceResponse{}, err
	}

	var label *shift.Label
	if req.ShiftLabel != nil {
		l := shift.Label(strings.ToUpper(*req.ShiftLabel))
		label = &l
	}

	now := s.now()
	var (
		rec   attendance.Attendance
		local time.Time
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.AttendanceRepository.FindLatestCheckedInForUpdate(ctx, w.ID, label)
		if err != nil {
			return fmt.Errorf("failed to read attendance: %w", err)
		}
		if found == nil {
			return attendance.ErrNotCheckedIn
		}
		rec = *found

		c, err := s.ClinicRepository.GetByID(ctx, rec.ClinicID)
		if err != nil {
			return err
		}
		loc := c.Location()
		local = now.In(loc)

		// An open record from an earlier day goes through the explanation workflow instead.
		if !rec.WorkDate.Equal(attendance.WorkDateOf(now, loc)) {
			return attendance.ErrNotCheckedIn
		}
		if rec.HasCheckOut() {
			return attendance.ErrAlreadyCheckedOut
		}
		if !now.After(*rec.CheckIn) {
			return attendance.ErrCheckOutBeforeCheckIn
		}

		window, err := s.windowFor(ctx, rec, w)
		if err != nil {
			return err
		}
		if err := s.resolver.CheckOutGate(rec.ShiftLabel, window, local); err != nil {
			return err
		}

		outcome, err := s.gateway.Verify(ctx, w.ID, rec.ClinicID, req.IdentitySample, verification.LocationSample{SSID: req.SSID, BSSID: req.BSSID})
		if err != nil {
			return err
		}
		rec.KeepHigherScore(outcome.IdentityScore)
		rec.MarkVerification(outcome.LocationValid)

		checkOut := now.UTC()
		rec.CheckOut = &checkOut
		s.applyHours(&rec, w, window, loc)

		return s.AttendanceRepository.Update(ctx, rec)
	})
	if err != nil {
		s.reject("check_out", err)
		return attendance.AttendanceResponse{}, err
	}

	s.metrics.IncCheckOut(string(rec.ShiftLabel))
	slog.Info("check-out recorded",
		"attendance_id", rec.ID,
		"worker_id", rec.WorkerID,
		"shift", rec.ShiftLabel,
		"worked_hours", rec.ActualWorkedHours.StringFixed(2),
		"early_minutes", rec.EarlyMinutes,
	)
	s.afterCommit(ctx, rec, nil, notification.TypeCheckedOut,
		"Check-out recorded",
		fmt.Sprintf("Checked out at %s, %s hours worked", local.Format("15:04"), rec.ActualWorkedHours.StringFixed(2)))

	return mapAttendanceToResponse(rec), nil
}
