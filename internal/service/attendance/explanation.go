package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
)

// SubmitExplanation implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) SubmitExplanation(ctx context.Context, req attendance.SubmitExplanationRequest) (attendance.AttendanceResponse, error) {
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
		if rec.WorkerID != req.WorkerID {
			return attendance.ErrUnauthorized
		}
		if !rec.HasCheckIn() || rec.HasCheckOut() {
			return attendance.ErrExplanationNotAllowed
		}
		if _, pending := rec.Explanations.Pending(); pending {
			return attendance.ErrExplanationPending
		}

		rec.Explanations = append(rec.Explanations, attendance.ExplanationEntry{
			Kind:      attendance.EntryRequest,
			Type:      attendance.ExplanationType(strings.ToUpper(req.Type)),
			Reason:    strings.TrimSpace(req.Reason),
			Actor:     req.WorkerID,
			Timestamp: s.now().UTC(),
		})
		rec.EnforceInvariants()

		return s.AttendanceRepository.Update(ctx, rec)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.metrics.IncExplanation(string(attendance.EntryRequest))
	slog.Info("explanation submitted", "attendance_id", rec.ID, "worker_id", rec.WorkerID)

	return mapAttendanceToResponse(rec), nil
}

// ResolveExplanation implements attendance.AttendanceService. Approval
// synthesizes the missing check-out and recomputes the record; a late record
// gets its late minutes credited back. Rejection only appends to the log.
func (s *AttendanceServiceImpl) ResolveExplanation(ctx context.Context, req attendance.ResolveExplanationRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	decision := attendance.Decision(req.Decision)
	var rec attendance.Attendance
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.AttendanceRepository.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		pending, ok := rec.Explanations.Pending()
		if !ok {
			return attendance.ErrNoPendingExplanation
		}

		entry := attendance.ExplanationEntry{
			Kind:      attendance.EntryRejected,
			Type:      pending.Type,
			Reason:    pending.Reason,
			Actor:     req.ActorID,
			Timestamp: s.now().UTC(),
			AdminNote: req.AdminNote,
		}

		if decision == attendance.DecisionApprove {
			entry.Kind = attendance.EntryApproved
		}
		rec.Explanations = append(rec.Explanations, entry)

		if decision == attendance.DecisionApprove {
			if err := s.approve(ctx, &rec, req.CheckOutTime); err != nil {
				return err
			}
		}
		rec.EnforceInvariants()

		return s.AttendanceRepository.Update(ctx, rec)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	actor := req.ActorID
	if decision == attendance.DecisionApprove {
		s.metrics.IncExplanation(string(attendance.EntryApproved))
		s.afterCommit(ctx, rec, &actor, notification.TypeExplanationApproved,
			"Explanation approved",
			fmt.Sprintf("Your missing check-out on %s was approved", rec.WorkDate.Format("2006-01-02")))
	} else {
		s.metrics.IncExplanation(string(attendance.EntryRejected))
		s.afterCommit(ctx, rec, &actor, notification.TypeExplanationRejected,
			"Explanation rejected",
			fmt.Sprintf("Your missing check-out on %s was rejected", rec.WorkDate.Format("2006-01-02")))
	}
	slog.Info("explanation resolved",
		"attendance_id", rec.ID,
		"actor_id", req.ActorID,
		"decision", decision,
		"status", rec.Status,
	)

	return mapAttendanceToResponse(rec), nil
}

// approve fills the check-out (HR time, else the shift end) and reclassifies.
// rec must already end with the APPROVED entry; it is marked Credited when a
// LATE record is converted.
func (s *AttendanceServiceImpl) approve(ctx context.Context, rec *attendance.Attendance, checkOutTime *string) error {
	w, err := s.WorkerRepository.GetByID(ctx, rec.WorkerID)
	if err != nil {
		return err
	}
	c, err := s.ClinicRepository.GetByID(ctx, rec.ClinicID)
	if err != nil {
		return err
	}
	loc := c.Location()

	window, err := s.windowFor(ctx, *rec, w)
	if err != nil {
		return err
	}

	if !rec.HasCheckOut() {
		end := window.End
		if !w.IsClinician() {
			end = s.resolver.Policy().FullDay.End
		}
		if checkOutTime != nil {
			end, err = shift.ParseTimeOfDay(*checkOutTime)
			if err != nil {
				return err
			}
		}
		checkOut := end.On(localDay(rec.WorkDate, loc), loc).UTC()
		if !checkOut.After(*rec.CheckIn) {
			return attendance.ErrCheckOutBeforeCheckIn
		}
		rec.CheckOut = &checkOut
	}

	switch rec.Status {
	case attendance.StatusLate:
		rec.Status = attendance.StatusApprovedLate
		rec.LateMinutes = 0
		if n := len(rec.Explanations); n > 0 && rec.Explanations[n-1].Kind == attendance.EntryApproved {
			rec.Explanations[n-1].Credited = true
		}
	case attendance.StatusOnTime:
		rec.Status = attendance.StatusApprovedPresent
	}

	s.applyHours(rec, w, window, loc)
	return nil
}
