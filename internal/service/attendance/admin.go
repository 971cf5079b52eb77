package attendance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/validator"
)

// UpdateAttendance implements attendance.AttendanceService. Editing the
// check-in re-runs classification, so an absence can become a late or
// present record once a real arrival time is known.
func (s *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var rec attendance.Attendance
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.AttendanceRepository.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		w, err := s.WorkerRepository.GetByID(ctx, rec.WorkerID)
		if err != nil {
			return err
		}
		c, err := s.ClinicRepository.GetByID(ctx, rec.ClinicID)
		if err != nil {
			return err
		}
		loc := c.Location()

		window, err := s.windowFor(ctx, rec, w)
		if err != nil {
			return err
		}

		if req.CheckIn != nil {
			checkIn, _ := validator.IsValidDateTime(*req.CheckIn)
			if !attendance.WorkDateOf(checkIn, loc).Equal(rec.WorkDate) {
				return validator.ValidationErrors{{
					Field:   "check_in",
					Message: "check_in must fall on the work date " + rec.WorkDate.Format("2006-01-02"),
				}}
			}
			checkIn = checkIn.UTC()
			rec.CheckIn = &checkIn

			label := rec.ShiftLabel
			hasLeave, err := s.LeaveLookup.HasApprovedLeave(ctx, rec.WorkerID, rec.WorkDate, &label)
			if err != nil {
				return fmt.Errorf("failed to look up leave: %w", err)
			}
			day := localDay(rec.WorkDate, loc)
			rec.LateMinutes = s.calc.LateMinutes(checkIn.In(loc), window.Start.On(day, loc))
			rec.Status = s.calc.Classify(rec.LateMinutes, hasLeave)
		}

		if req.CheckOut != nil {
			checkOut, _ := validator.IsValidDateTime(*req.CheckOut)
			if !attendance.WorkDateOf(checkOut, loc).Equal(rec.WorkDate) {
				return validator.ValidationErrors{{
					Field:   "check_out",
					Message: "check_out must fall on the work date " + rec.WorkDate.Format("2006-01-02"),
				}}
			}
			checkOut = checkOut.UTC()
			rec.CheckOut = &checkOut
		}

		if rec.CheckOut != nil {
			if rec.CheckIn == nil {
				return attendance.ErrNotCheckedIn
			}
			if !rec.CheckOut.After(*rec.CheckIn) {
				return attendance.ErrCheckOutBeforeCheckIn
			}
		}

		s.applyHours(&rec, w, window, loc)
		return s.AttendanceRepository.Update(ctx, rec)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance edited",
		"attendance_id", rec.ID,
		"actor_id", req.ActorID,
		"status", rec.Status,
	)
	return mapAttendanceToResponse(rec), nil
}

// OverrideStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) OverrideStatus(ctx context.Context, req attendance.OverrideStatusRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var (
		rec      attendance.Attendance
		previous attendance.Status
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.AttendanceRepository.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		previous = rec.Status

		status := attendance.Status(req.Status)
		note := req.Note
		rec.Status = status
		rec.Explanations = append(rec.Explanations, attendance.ExplanationEntry{
			Kind:      attendance.EntryOverride,
			Actor:     req.ActorID,
			Timestamp: s.now().UTC(),
			AdminNote: &note,
			Status:    &status,
		})

		// Leaving an absent status restores the hours the timestamps support.
		if previous.IsAbsent() && !status.IsAbsent() && rec.CheckIn != nil && rec.CheckOut != nil {
			w, err := s.WorkerRepository.GetByID(ctx, rec.WorkerID)
			if err != nil {
				return err
			}
			c, err := s.ClinicRepository.GetByID(ctx, rec.ClinicID)
			if err != nil {
				return err
			}
			window, err := s.windowFor(ctx, rec, w)
			if err != nil {
				return err
			}
			s.applyHours(&rec, w, window, c.Location())
		}
		rec.EnforceInvariants()

		return s.AttendanceRepository.Update(ctx, rec)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance status overridden",
		"attendance_id", rec.ID,
		"actor_id", req.ActorID,
		"from", previous,
		"to", rec.Status,
	)
	actor := req.ActorID
	s.afterCommit(ctx, rec, &actor, notification.TypeStatusOverridden,
		"Attendance status changed",
		fmt.Sprintf("Your %s attendance on %s is now %s", rec.ShiftLabel, rec.WorkDate.Format("2006-01-02"), rec.Status))

	return mapAttendanceToResponse(rec), nil
}
