package attendance

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/clinic"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/verification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/worker"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta, _ = time.LoadLocation("Asia/Jakarta")

// workDate is Monday 2025-03-10.
var workDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, jakarta)
}

func strPtr(s string) *string { return &s }

type fixture struct {
	svc      attendance.AttendanceService
	records  *fakeAttendanceRepo
	roster   *fakeRoster
	leaves   fakeLeaves
	gateway  *fakeGateway
	notifier *fakeNotifier
	now      time.Time
}

func (f *fixture) setNow(t time.Time) { f.now = t }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clinicID := "c1"
	f := &fixture{
		records: newFakeAttendanceRepo(),
		roster: &fakeRoster{entries: []roster.Entry{
			{ID: "r-morning", WorkerID: "d1", ClinicID: "c1", WorkDate: workDate, PlannedStart: shift.TimeOfDay{Hour: 8}, PlannedEnd: shift.TimeOfDay{Hour: 11}, Status: roster.ActivationInactive},
			{ID: "r-afternoon", WorkerID: "d1", ClinicID: "c1", WorkDate: workDate, PlannedStart: shift.TimeOfDay{Hour: 13}, PlannedEnd: shift.TimeOfDay{Hour: 18}, Status: roster.ActivationInactive},
		}},
		leaves: fakeLeaves{},
		gateway: &fakeGateway{outcome: verification.Outcome{
			IdentityVerified: true,
			IdentityScore:    0.9,
			LocationValid:    true,
		}},
		notifier: &fakeNotifier{},
		now:      at(8, 0),
	}

	workers := fakeWorkers{
		"s1": {ID: "s1", FullName: "Sari", Role: worker.RoleStaff, ClinicID: &clinicID, IsActive: true},
		"d1": {ID: "d1", FullName: "dr. Budi", Role: worker.RoleClinician, ClinicID: &clinicID, IsActive: true},
		"a1": {ID: "a1", FullName: "Admin", Role: worker.RoleAdmin, ClinicID: &clinicID, IsActive: true},
		"x1": {ID: "x1", FullName: "Former", Role: worker.RoleStaff, ClinicID: &clinicID, IsActive: false},
	}
	clinics := fakeClinics{
		"c1": {ID: "c1", Name: "Klinik Sehat", Timezone: "Asia/Jakarta", IsActive: true},
		"c2": {ID: "c2", Name: "Closed", Timezone: "Asia/Jakarta", IsActive: false},
	}

	f.svc = NewAttendanceService(fakeTx{}, f.records, workers, clinics, f.roster, f.leaves, f.gateway, shift.DefaultPolicy(),
		WithClock(func() time.Time { return f.now }),
		WithNotifier(f.notifier),
	)
	return f
}

func (f *fixture) checkIn(t *testing.T, workerID string, now time.Time) (attendance.AttendanceResponse, error) {
	t.Helper()
	f.setNow(now)
	return f.svc.CheckIn(context.Background(), attendance.CheckInRequest{
		WorkerID:       workerID,
		IdentitySample: []float64{0.1, 0.2, 0.3},
		SSID:           "Klinik-Staff",
	})
}

func (f *fixture) checkOut(t *testing.T, workerID string, now time.Time) (attendance.AttendanceResponse, error) {
	t.Helper()
	f.setNow(now)
	return f.svc.CheckOut(context.Background(), attendance.CheckOutRequest{
		WorkerID:       workerID,
		IdentitySample: []float64{0.1, 0.2, 0.3},
		SSID:           "Klinik-Staff",
	})
}

func TestCheckIn_StaffLate(t *testing.T) {
	f := newFixture(t)

	resp, err := f.checkIn(t, "s1", at(8, 5))

	require.NoError(t, err)
	assert.Equal(t, "FULL_DAY", resp.Shift)
	assert.Equal(t, "LATE", resp.Status)
	assert.Equal(t, 5, resp.LateMinutes)
	assert.Equal(t, "CHECKED_IN", resp.Phase)
	assert.Equal(t, "9.00", resp.ExpectedWorkedHours)
	assert.Equal(t, "2025-03-10", resp.WorkDate)
	require.Len(t, f.notifier.queued, 1)
	assert.Equal(t, "s1", f.notifier.queued[0].RecipientID)
}

func TestCheckIn_ClinicianMorning(t *testing.T) {
	t.Run("late without leave", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.checkIn(t, "d1", at(9, 45))

		require.NoError(t, err)
		assert.Equal(t, "MORNING", resp.Shift)
		assert.Equal(t, 105, resp.LateMinutes)
		assert.Equal(t, "LATE", resp.Status)
		assert.Equal(t, roster.ActivationActive, f.roster.status("r-morning"))
		assert.Equal(t, roster.ActivationActive, f.roster.status("r-afternoon"), "morning check-in activates the afternoon entry")
	})

	t.Run("late with approved leave", func(t *testing.T) {
		f := newFixture(t)
		f.leaves["d1"] = true

		resp, err := f.checkIn(t, "d1", at(9, 45))

		require.NoError(t, err)
		assert.Equal(t, "APPROVED_LATE", resp.Status)
	})
}

func TestCheckIn_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		workerID string
		clinicID *string
		now      time.Time
		wantErr  error
	}{
		{"sunday", "s1", nil, time.Date(2025, 3, 9, 8, 0, 0, 0, jakarta), attendance.ErrSundayNotAllowed},
		{"admin is not tracked", "a1", nil, at(8, 0), attendance.ErrRoleNotTracked},
		{"inactive worker", "x1", nil, at(8, 0), worker.ErrWorkerNotActive},
		{"unknown worker", "nobody", nil, at(8, 0), worker.ErrWorkerNotFound},
		{"inactive clinic", "s1", strPtr("c2"), at(8, 0), clinic.ErrClinicInactive},
		{"afternoon before 13:00", "d1", nil, at(12, 30), attendance.ErrAfternoonCheckInTooEarly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.setNow(tt.now)

			_, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{
				WorkerID:       tt.workerID,
				ClinicID:       tt.clinicID,
				IdentitySample: []float64{1},
			})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.records.records, "rejections must not mutate state")
			assert.Zero(t, f.gateway.calls)
		})
	}
}

func TestCheckIn_InvalidRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{WorkerID: "s1"})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "identity_sample", verrs[0].Field)
}

func TestCheckIn_Idempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.checkIn(t, "s1", at(8, 0))
	require.NoError(t, err)

	_, err = f.checkIn(t, "s1", at(8, 10))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	require.Len(t, f.records.records, 1)
	stored := f.records.records[first.ID]
	assert.Equal(t, attendance.StatusOnTime, stored.Status, "second attempt must not change the record")
	assert.Equal(t, 1, f.gateway.calls)
}

func TestCheckIn_ConcurrentInsert(t *testing.T) {
	t.Run("winner already checked in", func(t *testing.T) {
		f := newFixture(t)
		winnerCheckIn := at(8, 0).UTC()
		f.records.raceOnCreate = &attendance.Attendance{
			WorkerID: "s1", ClinicID: "c1", WorkDate: workDate, ShiftLabel: shift.LabelFullDay,
			CheckIn: &winnerCheckIn, Status: attendance.StatusOnTime,
		}

		_, err := f.checkIn(t, "s1", at(8, 1))

		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
		assert.Len(t, f.records.records, 1)
	})

	t.Run("winner is a swept absence", func(t *testing.T) {
		f := newFixture(t)
		f.records.raceOnCreate = &attendance.Attendance{
			WorkerID: "s1", ClinicID: "c1", WorkDate: workDate, ShiftLabel: shift.LabelFullDay,
			Status: attendance.StatusAbsent,
		}

		resp, err := f.checkIn(t, "s1", at(8, 20))

		require.NoError(t, err)
		assert.Equal(t, "LATE", resp.Status)
		assert.Equal(t, 20, resp.LateMinutes)
		assert.Len(t, f.records.records, 1)
		assert.Equal(t, 1, f.records.creates)
	})
}

func TestCheckIn_UpgradesSweptAbsence(t *testing.T) {
	f := newFixture(t)
	_, err := f.records.CreateAbsence(context.Background(),
		attendance.NewAbsence("s1", "c1", workDate, shift.LabelFullDay, attendance.StatusAbsent, decimal.NewFromInt(9)))
	require.NoError(t, err)

	resp, err := f.checkIn(t, "s1", at(8, 30))

	require.NoError(t, err)
	assert.Equal(t, "LATE", resp.Status)
	assert.NotNil(t, resp.CheckIn)
	assert.Len(t, f.records.records, 1)
}

func TestCheckIn_AfternoonMarksMorningAbsent(t *testing.T) {
	t.Run("no leave", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.checkIn(t, "d1", at(13, 30))
		require.NoError(t, err)
		assert.Equal(t, "AFTERNOON", resp.Shift)
		assert.Equal(t, "LATE", resp.Status)

		morning := f.records.find("d1", workDate, shift.LabelMorning)
		require.NotNil(t, morning)
		assert.Equal(t, attendance.StatusAbsent, morning.Status)
		assert.Nil(t, morning.CheckIn)
		assert.True(t, morning.ActualWorkedHours.IsZero())
	})

	t.Run("morning leave", func(t *testing.T) {
		f := newFixture(t)
		f.leaves["d1/MORNING"] = true

		_, err := f.checkIn(t, "d1", at(13, 30))
		require.NoError(t, err)

		morning := f.records.find("d1", workDate, shift.LabelMorning)
		require.NotNil(t, morning)
		assert.Equal(t, attendance.StatusApprovedAbsence, morning.Status)
	})

	t.Run("no morning roster entry", func(t *testing.T) {
		f := newFixture(t)
		f.roster.entries = f.roster.entries[1:]

		_, err := f.checkIn(t, "d1", at(13, 30))
		require.NoError(t, err)

		assert.Nil(t, f.records.find("d1", workDate, shift.LabelMorning))
	})
}

func TestCheckIn_Verification(t *testing.T) {
	t.Run("failure aborts", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.err = verification.Failed("identity not recognized")

		_, err := f.checkIn(t, "s1", at(8, 0))

		var failed *verification.FailedError
		require.ErrorAs(t, err, &failed)
		assert.Empty(t, f.records.records)
	})

	t.Run("soft location failure is recorded", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.outcome.LocationValid = false

		resp, err := f.checkIn(t, "s1", at(8, 0))

		require.NoError(t, err)
		require.NotNil(t, resp.Verification)
		assert.Equal(t, "FAILED", *resp.Verification)
	})
}

func TestCheckOut_StaffLunchBoundary(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkIn(t, "s1", at(8, 0))
	require.NoError(t, err)

	_, err = f.checkOut(t, "s1", at(12, 30))
	assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeLunch)
	assert.True(t, attendance.IsTimeWindowError(err))

	resp, err := f.checkOut(t, "s1", at(13, 5))
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.Phase)
	assert.Equal(t, 60, resp.LunchDeductionMinutes)
	assert.Equal(t, "4.08", resp.ActualWorkedHours)
	assert.Equal(t, 295, resp.EarlyMinutes)
	assert.Equal(t, "ON_TIME", resp.Status)
}

func TestCheckOut_ApprovedLateKeepsLateMinutes(t *testing.T) {
	t.Run("late with approved leave", func(t *testing.T) {
		f := newFixture(t)
		f.leaves["s1"] = true
		in, err := f.checkIn(t, "s1", at(8, 30))
		require.NoError(t, err)
		require.Equal(t, "APPROVED_LATE", in.Status)

		resp, err := f.checkOut(t, "s1", at(17, 30))
		require.NoError(t, err)

		assert.Equal(t, "APPROVED_LATE", resp.Status)
		assert.Equal(t, 30, resp.LateMinutes)
		assert.Equal(t, "8.00", resp.ActualWorkedHours)
	})

	t.Run("status overridden before check-out", func(t *testing.T) {
		f := newFixture(t)
		in, err := f.checkIn(t, "s1", at(8, 30))
		require.NoError(t, err)
		require.Equal(t, "LATE", in.Status)

		_, err = f.svc.OverrideStatus(context.Background(), attendance.OverrideStatusRequest{
			ID: in.ID, ActorID: "hr-1", Status: "APPROVED_LATE", Note: "doctor's note",
		})
		require.NoError(t, err)

		resp, err := f.checkOut(t, "s1", at(17, 30))
		require.NoError(t, err)

		assert.Equal(t, "APPROVED_LATE", resp.Status)
		assert.Equal(t, 30, resp.LateMinutes)
		assert.Equal(t, "8.00", resp.ActualWorkedHours)
	})
}

func TestCheckOut_Rejections(t *testing.T) {
	t.Run("not checked in", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.checkOut(t, "s1", at(17, 0))
		assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
	})

	t.Run("already checked out", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.checkIn(t, "s1", at(8, 0))
		require.NoError(t, err)
		_, err = f.checkOut(t, "s1", at(17, 0))
		require.NoError(t, err)

		_, err = f.checkOut(t, "s1", at(17, 5))
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	})

	t.Run("open record from yesterday", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.checkIn(t, "s1", at(8, 0))
		require.NoError(t, err)

		_, err = f.checkOut(t, "s1", at(17, 0).AddDate(0, 0, 1))
		assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
	})

	t.Run("clinician before shift start", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.checkIn(t, "d1", at(7, 30))
		require.NoError(t, err)

		_, err = f.checkOut(t, "d1", at(7, 50))
		assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeShift)
	})
}

func TestCheckOut_KeepsHighestScore(t *testing.T) {
	f := newFixture(t)
	f.gateway.outcome.IdentityScore = 0.95
	_, err := f.checkIn(t, "s1", at(8, 0))
	require.NoError(t, err)

	f.gateway.outcome.IdentityScore = 0.85
	resp, err := f.checkOut(t, "s1", at(17, 0))
	require.NoError(t, err)

	require.NotNil(t, resp.IdentityScore)
	assert.Equal(t, 0.95, *resp.IdentityScore)
}

func TestCheckOut_AbsentHasZeroHours(t *testing.T) {
	f := newFixture(t)
	in, err := f.checkIn(t, "s1", at(10, 30))
	require.NoError(t, err)
	assert.Equal(t, "ABSENT", in.Status)
	assert.Equal(t, 120, in.LateMinutes)

	out, err := f.checkOut(t, "s1", at(18, 0))
	require.NoError(t, err)
	assert.Equal(t, "0.00", out.ActualWorkedHours)
}

func TestCheckOut_ClinicianAfternoon(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkIn(t, "d1", at(13, 0))
	require.NoError(t, err)

	resp, err := f.checkOut(t, "d1", at(18, 0))
	require.NoError(t, err)

	assert.Equal(t, "AFTERNOON", resp.Shift)
	assert.Equal(t, 0, resp.LunchDeductionMinutes)
	assert.Equal(t, "5.00", resp.ActualWorkedHours)
	assert.Equal(t, "5.00", resp.ExpectedWorkedHours)
}
