package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) submit(t *testing.T, id, workerID, reason string) (attendance.AttendanceResponse, error) {
	t.Helper()
	return f.svc.SubmitExplanation(context.Background(), attendance.SubmitExplanationRequest{
		ID:       id,
		WorkerID: workerID,
		Reason:   reason,
	})
}

func TestExplanation_ApproveLateWithCustomTime(t *testing.T) {
	f := newFixture(t)
	in, err := f.checkIn(t, "s1", at(8, 30))
	require.NoError(t, err)
	require.Equal(t, "LATE", in.Status)

	f.setNow(at(9, 0).AddDate(0, 0, 1))
	_, err = f.submit(t, in.ID, "s1", "forgot to check out")
	require.NoError(t, err)

	resp, err := f.svc.ResolveExplanation(context.Background(), attendance.ResolveExplanationRequest{
		ID:           in.ID,
		ActorID:      "hr-1",
		Decision:     "approve",
		CheckOutTime: strPtr("17:30"),
	})
	require.NoError(t, err)

	assert.Equal(t, "APPROVED_LATE", resp.Status)
	assert.Equal(t, 0, resp.LateMinutes)
	// 08:30-17:30 = 540 min, minus 60 lunch, plus 30 credited late minutes.
	assert.Equal(t, "8.50", resp.ActualWorkedHours)
	assert.Equal(t, 30, resp.EarlyMinutes)
	require.NotNil(t, resp.CheckOut)
	assert.Equal(t, "2025-03-10T10:30:00Z", *resp.CheckOut)
	require.NotNil(t, resp.Note)
	assert.Equal(t, "[APPROVED] forgot to check out", *resp.Note)
	require.Len(t, resp.Explanations, 2)
	assert.Equal(t, "hr-1", resp.Explanations[1].Actor)
	assert.True(t, resp.Explanations[1].Credited)

	last := f.notifier.queued[len(f.notifier.queued)-1]
	assert.Equal(t, notification.TypeExplanationApproved, last.Type)
	assert.Equal(t, "s1", last.RecipientID)
}

func TestExplanation_ApproveAlreadyApprovedLateIsNotCredited(t *testing.T) {
	f := newFixture(t)
	f.leaves["s1"] = true
	in, err := f.checkIn(t, "s1", at(8, 30))
	require.NoError(t, err)
	require.Equal(t, "APPROVED_LATE", in.Status)
	require.Equal(t, 30, in.LateMinutes)

	f.setNow(at(9, 0).AddDate(0, 0, 1))
	_, err = f.submit(t, in.ID, "s1", "forgot to check out")
	require.NoError(t, err)

	resp, err := f.svc.ResolveExplanation(context.Background(), attendance.ResolveExplanationRequest{
		ID:           in.ID,
		ActorID:      "hr-1",
		Decision:     "APPROVE",
		CheckOutTime: strPtr("17:30"),
	})
	require.NoError(t, err)

	assert.Equal(t, "APPROVED_LATE", resp.Status)
	assert.Equal(t, 30, resp.LateMinutes, "leave-approved lateness stays on the record")
	// 08:30-17:30 = 540 min, minus 60 lunch, nothing credited.
	assert.Equal(t, "8.00", resp.ActualWorkedHours)
	require.Len(t, resp.Explanations, 2)
	assert.False(t, resp.Explanations[1].Credited)
}

func TestExplanation_ApproveDefaults(t *testing.T) {
	t.Run("staff defaults to 18:00 and on-time becomes approved present", func(t *testing.T) {
		f := newFixture(t)
		in, err := f.checkIn(t, "s1", at(8, 0))
		require.NoError(t, err)
		_, err = f.submit(t, in.ID, "s1", "phone died")
		require.NoError(t, err)

		resp, err := f.svc.ResolveExplanation(context.Background(), attendance.ResolveExplanationRequest{
			ID: in.ID, ActorID: "hr-1", Decision: "APPROVE",
		})
		require.NoError(t, err)

		assert.Equal(t, "APPROVED_PRESENT", resp.Status)
		assert.Equal(t, "2025-03-10T11:00:00Z", *resp.CheckOut)
		assert.Equal(t, "9.00", resp.ActualWorkedHours)
	})

	t.Run("clinician defaults to the shift end", func(t *testing.T) {
		f := newFixture(t)
		in, err := f.checkIn(t, "d1", at(8, 0))
		require.NoError(t, err)
		_, err = f.submit(t, in.ID, "d1", "emergency patient")
		require.NoError(t, err)

		resp, err := f.svc.ResolveExplanation(context.Background(), attendance.ResolveExplanationRequest{
			ID: in.ID, ActorID: "hr-1", Decision: "APPROVE",
		})
		require.NoError(t, err)

		assert.Equal(t, "2025-03-10T04:00:00Z", *resp.CheckOut, "11:00 WIB")
		assert.Equal(t, "3.00", resp.ActualWorkedHours)
	})

	t.Run("absent record keeps zero hours", func(t *testing.T) {
		f := newFixture(t)
		in, err := f.checkIn(t, "s1", at(10, 15))
		require.NoError(t, err)
		require.Equal(t, "ABSENT", in.Status)
		_, err = f.submit(t, in.ID, "s1", "traffic")
		require.NoError(t, err)

		resp, err := f.svc.ResolveExplanation(context.Background(), attendance.ResolveExplanationRequest{
			ID: in.ID, ActorID: "hr-1", Decision: "APPROVE",
		})
		require.NoError(t, err)

		assert.Equal(t, "ABSENT", resp.Status)
		assert.Equal(t, "0.00", resp.ActualWorkedHours)
	})
}

func TestExplanation_ApproveBeforeCheckIn(t *testing.T) {
	f := newFixture(t)
	in, err := f.checkIn(t, "s1", at(8, 30))
	require.NoError(t, err)
	_, err = f.submit(t, in.ID, "s1", "forgot")
	require.NoError(t, err)

	_, err = f.svc.ResolveExplanation(context.Background(), attendance.ResolveExplanationRequest{
		ID: in.ID, ActorID: "hr-1", Decision: "APPROVE", CheckOutTime: strPtr("08:00"),
	})
	assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)
}

func TestExplanation_Reject(t *testing.T) {
	f := newFixture(t)
	in, err := f.checkIn(t, "s1", at(8, 30))
	require.NoError(t, err)
	_, err = f.submit(t, in.ID, "s1", "forgot")
	require.NoError(t, err)

	resp, err := f.svc.ResolveExplanation(context.Background(), attendance.ResolveExplanationRequest{
		ID: in.ID, ActorID: "hr-1", Decision: "REJECT", AdminNote: strPtr("no evidence"),
	})
	require.NoError(t, err)

	assert.Equal(t, "LATE", resp.Status)
	assert.Nil(t, resp.CheckOut)
	assert.Equal(t, "[REJECTED] forgot | no evidence", *resp.Note)

	_, err = f.svc.ResolveExplanation(context.Background(), attendance.ResolveExplanationRequest{
		ID: in.ID, ActorID: "hr-1", Decision: "APPROVE",
	})
	assert.ErrorIs(t, err, attendance.ErrNoPendingExplanation)

	// A rejected request can be followed by a new one.
	again, err := f.submit(t, in.ID, "s1", "really forgot")
	require.NoError(t, err)
	assert.Contains(t, *again.Note, "[EXPLANATION_REQUEST:MISSING_CHECK_OUT] really forgot")
}

func TestExplanation_SubmitRules(t *testing.T) {
	f := newFixture(t)
	in, err := f.checkIn(t, "s1", at(8, 0))
	require.NoError(t, err)

	_, err = f.submit(t, in.ID, "d1", "not mine")
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)

	resp, err := f.submit(t, in.ID, "s1", "forgot")
	require.NoError(t, err)
	assert.Equal(t, "[EXPLANATION_REQUEST:MISSING_CHECK_OUT] forgot", *resp.Note)

	_, err = f.submit(t, in.ID, "s1", "again")
	assert.ErrorIs(t, err, attendance.ErrExplanationPending)

	_, err = f.submit(t, in.ID, "s1", "")
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	completed := newFixture(t)
	rec, err := completed.checkIn(t, "s1", at(8, 0))
	require.NoError(t, err)
	_, err = completed.checkOut(t, "s1", at(17, 0))
	require.NoError(t, err)
	_, err = completed.submit(t, rec.ID, "s1", "late")
	assert.ErrorIs(t, err, attendance.ErrExplanationNotAllowed)
}

func TestOverrideStatus(t *testing.T) {
	f := newFixture(t)
	in, err := f.checkIn(t, "s1", at(8, 0))
	require.NoError(t, err)
	out, err := f.checkOut(t, "s1", at(17, 0))
	require.NoError(t, err)
	require.Equal(t, "8.00", out.ActualWorkedHours)

	t.Run("invalid status names the allowed set", func(t *testing.T) {
		_, err := f.svc.OverrideStatus(context.Background(), attendance.OverrideStatusRequest{
			ID: in.ID, ActorID: "hr-1", Status: "HOLIDAY", Note: "x",
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap()["status"], "APPROVED_PRESENT")
	})

	t.Run("note is mandatory", func(t *testing.T) {
		_, err := f.svc.OverrideStatus(context.Background(), attendance.OverrideStatusRequest{
			ID: in.ID, ActorID: "hr-1", Status: "ABSENT",
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "note")
	})

	t.Run("absent zeroes hours and is logged", func(t *testing.T) {
		resp, err := f.svc.OverrideStatus(context.Background(), attendance.OverrideStatusRequest{
			ID: in.ID, ActorID: "hr-1", Status: "absent", Note: "badge sharing",
		})
		require.NoError(t, err)
		assert.Equal(t, "ABSENT", resp.Status)
		assert.Equal(t, "0.00", resp.ActualWorkedHours)
		assert.Equal(t, "[OVERRIDE:ABSENT] badge sharing", *resp.Note)
	})

	t.Run("back to present restores hours", func(t *testing.T) {
		resp, err := f.svc.OverrideStatus(context.Background(), attendance.OverrideStatusRequest{
			ID: in.ID, ActorID: "hr-1", Status: "APPROVED_PRESENT", Note: "cleared",
		})
		require.NoError(t, err)
		assert.Equal(t, "8.00", resp.ActualWorkedHours)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := f.svc.OverrideStatus(context.Background(), attendance.OverrideStatusRequest{
			ID: "missing", ActorID: "hr-1", Status: "ABSENT", Note: "x",
		})
		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	})
}

func TestUpdateAttendance_AttachCheckInReclassifies(t *testing.T) {
	f := newFixture(t)
	f.leaves["d1/MORNING"] = true
	_, err := f.records.CreateAbsence(context.Background(),
		attendance.NewAbsence("d1", "c1", workDate, shift.LabelMorning, attendance.StatusApprovedAbsence, decimal.NewFromInt(3)))
	require.NoError(t, err)
	absence := f.records.find("d1", workDate, shift.LabelMorning)

	resp, err := f.svc.UpdateAttendance(context.Background(), attendance.UpdateAttendanceRequest{
		ID:       absence.ID,
		ActorID:  "hr-1",
		CheckIn:  strPtr("2025-03-10T09:00:00+07:00"),
		CheckOut: strPtr("2025-03-10T11:00:00+07:00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "APPROVED_LATE", resp.Status)
	assert.Equal(t, 60, resp.LateMinutes)
	assert.Equal(t, "2.00", resp.ActualWorkedHours)

	t.Run("check-in on another day is refused", func(t *testing.T) {
		_, err := f.svc.UpdateAttendance(context.Background(), attendance.UpdateAttendanceRequest{
			ID:      absence.ID,
			CheckIn: strPtr("2025-03-11T09:00:00+07:00"),
		})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("check-out on another day is refused", func(t *testing.T) {
		_, err := f.svc.UpdateAttendance(context.Background(), attendance.UpdateAttendanceRequest{
			ID:       absence.ID,
			CheckOut: strPtr("2025-03-12T11:00:00+07:00"),
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "check_out")

		rec := f.records.find("d1", workDate, shift.LabelMorning)
		require.NotNil(t, rec.CheckOut)
		assert.Equal(t, "2025-03-10T04:00:00Z", rec.CheckOut.UTC().Format(time.RFC3339), "stored check-out is unchanged")
	})

	t.Run("check-out before check-in is refused", func(t *testing.T) {
		_, err := f.svc.UpdateAttendance(context.Background(), attendance.UpdateAttendanceRequest{
			ID:       absence.ID,
			CheckOut: strPtr("2025-03-10T08:00:00+07:00"),
		})
		assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)
	})
}

func TestGetAttendance_OwnRecordsOnly(t *testing.T) {
	f := newFixture(t)
	in, err := f.checkIn(t, "s1", at(8, 0))
	require.NoError(t, err)

	_, err = f.svc.GetAttendance(context.Background(), in.ID, strPtr("d1"))
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)

	got, err := f.svc.GetAttendance(context.Background(), in.ID, strPtr("s1"))
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)

	list, err := f.svc.ListAttendance(context.Background(), attendance.AttendanceFilter{WorkerID: strPtr("s1")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)
	assert.Equal(t, "1-1 of 1", list.Showing)
}
