package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/clinic"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/verification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/worker"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/service/punctuality"
	shiftsvc "github.com/cmlabs-hris/clinic-attendance-go/internal/service/shift"
)

type AttendanceServiceImpl struct {
	tx attendance.Transactor
	attendance.AttendanceRepository
	worker.WorkerRepository
	clinic.ClinicRepository
	roster.Repository
	leave.LeaveLookup
	gateway  verification.Gateway
	resolver *shiftsvc.Resolver
	calc     *punctuality.Calculator
	notifier notification.Service
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*AttendanceServiceImpl)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *AttendanceServiceImpl) { s.now = now }
}

func WithNotifier(n notification.Service) Option {
	return func(s *AttendanceServiceImpl) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AttendanceServiceImpl) { s.metrics = m }
}

func NewAttendanceService(
	tx attendance.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	workerRepo worker.WorkerRepository,
	clinicRepo clinic.ClinicRepository,
	rosterRepo roster.Repository,
	leaveLookup leave.LeaveLookup,
	gateway verification.Gateway,
	policy shift.Policy,
	opts ...Option,
) attendance.AttendanceService {
	s := &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		WorkerRepository:     workerRepo,
		ClinicRepository:     clinicRepo,
		Repository:           rosterRepo,
		LeaveLookup:          leaveLookup,
		gateway:              gateway,
		resolver:             shiftsvc.NewResolver(policy),
		calc:                 punctuality.NewCalculator(policy),
		now:                  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string, requesterWorkerID *string) (attendance.AttendanceResponse, error) {
	rec, err := s.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if requesterWorkerID != nil && rec.WorkerID != *requesterWorkerID {
		return attendance.AttendanceResponse{}, attendance.ErrUnauthorized
	}
	return mapAttendanceToResponse(rec), nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := s.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, mapAttendanceToResponse(rec))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// trackedWorker loads a worker that is active and subject to attendance.
func (s *AttendanceServiceImpl) trackedWorker(ctx context.Context, id string) (worker.Worker, error) {
	w, err := s.WorkerRepository.GetByID(ctx, id)
	if err != nil {
		return worker.Worker{}, err
	}
	if !w.IsActive {
		return worker.Worker{}, worker.ErrWorkerNotActive
	}
	if !w.IsTracked() {
		return worker.Worker{}, attendance.ErrRoleNotTracked
	}
	return w, nil
}

func (s *AttendanceServiceImpl) activeClinic(ctx context.Context, id string) (clinic.Clinic, error) {
	c, err := s.ClinicRepository.GetByID(ctx, id)
	if err != nil {
		return clinic.Clinic{}, err
	}
	if !c.IsActive {
		return clinic.Clinic{}, clinic.ErrClinicInactive
	}
	return c, nil
}

// windowFor returns the expected window of an existing record. Clinician
// records use their roster entry when one exists.
func (s *AttendanceServiceImpl) windowFor(ctx context.Context, rec attendance.Attendance, w worker.Worker) (shift.Window, error) {
	if !w.IsClinician() {
		return s.resolver.ExpectedWindow(rec.ShiftLabel, nil), nil
	}
	entries, err := s.Repository.FindByWorkerClinicDate(ctx, rec.WorkerID, rec.ClinicID, rec.WorkDate)
	if err != nil {
		return shift.Window{}, fmt.Errorf("failed to load roster: %w", err)
	}
	return s.resolver.ExpectedWindow(rec.ShiftLabel, s.resolver.EntryFor(rec.ShiftLabel, entries)), nil
}

// applyHours recomputes the checkout-dependent fields of rec. Late minutes are
// left alone once the record is APPROVED_LATE or carries an approval. Only an
// approval that converted a LATE record adds the late minutes back to the
// worked hours.
func (s *AttendanceServiceImpl) applyHours(rec *attendance.Attendance, w worker.Worker, window shift.Window, loc *time.Location) {
	day := localDay(rec.WorkDate, loc)
	expectedStart := window.Start.On(day, loc)
	rec.ExpectedWorkedHours = s.calc.ExpectedHours(window, day, w.IsClinician())

	if rec.CheckIn == nil || rec.CheckOut == nil {
		rec.EnforceInvariants()
		return
	}
	checkIn := rec.CheckIn.In(loc)
	checkOut := rec.CheckOut.In(loc)

	credited := 0
	switch {
	case rec.Status == attendance.StatusApprovedLate && rec.Explanations.LateCredited():
		credited = s.calc.LateMinutes(checkIn, expectedStart)
	case rec.Status == attendance.StatusApprovedLate || rec.Explanations.HasApproved():
		// late minutes stay as approved
	default:
		rec.LateMinutes = s.calc.LateMinutes(checkIn, expectedStart)
	}

	rec.EarlyMinutes = s.calc.EarlyMinutes(checkOut, window.End.On(day, loc))
	rec.ActualWorkedHours, rec.LunchDeductionMinutes = s.calc.WorkedHours(checkIn, checkOut, w.IsClinician(), credited)
	rec.EnforceInvariants()
}

// afterCommit records metrics and queues a notification. It never fails the operation.
func (s *AttendanceServiceImpl) afterCommit(ctx context.Context, rec attendance.Attendance, actorID *string, typ notification.NotificationType, title, message string) {
	if s.notifier == nil {
		return
	}
	id := rec.ID
	err := s.notifier.QueueNotification(context.WithoutCancel(ctx), notification.CreateNotificationRequest{
		RecipientID:  rec.WorkerID,
		ActorID:      actorID,
		AttendanceID: &id,
		Type:         typ,
		Title:        title,
		Message:      message,
		Data: map[string]interface{}{
			"work_date": rec.WorkDate.Format("2006-01-02"),
			"shift":     string(rec.ShiftLabel),
			"status":    string(rec.Status),
		},
	})
	if err != nil {
		slog.Warn("failed to queue notification", "attendance_id", rec.ID, "type", typ, "error", err)
	}
}

func (s *AttendanceServiceImpl) reject(operation string, err error) {
	if err == nil {
		return
	}
	s.metrics.IncRejection(operation, rejectionReason(err))
}

func rejectionReason(err error) string {
	var failed *verification.FailedError
	switch {
	case errors.As(err, &failed):
		return "verification"
	case errors.Is(err, attendance.ErrSundayNotAllowed):
		return "sunday"
	case errors.Is(err, attendance.ErrAlreadyCheckedIn), errors.Is(err, attendance.ErrAlreadyCheckedOut):
		return "duplicate"
	case attendance.IsTimeWindowError(err):
		return "time_window"
	case errors.Is(err, attendance.ErrRoleNotTracked), errors.Is(err, worker.ErrWorkerNotActive):
		return "worker"
	case errors.Is(err, attendance.ErrNotCheckedIn):
		return "not_checked_in"
	default:
		return "other"
	}
}

// localDay is the clinic-local midnight of a stored work date.
func localDay(workDate time.Time, loc *time.Location) time.Time {
	return time.Date(workDate.Year(), workDate.Month(), workDate.Day(), 0, 0, 0, 0, loc)
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// mapAttendanceToResponse converts an Attendance entity to AttendanceResponse
func mapAttendanceToResponse(rec attendance.Attendance) attendance.AttendanceResponse {
	var verificationStatus *string
	if rec.Verification != nil {
		v := string(*rec.Verification)
		verificationStatus = &v
	}

	entries := make([]attendance.ExplanationEntryResponse, 0, len(rec.Explanations))
	for _, e := range rec.Explanations {
		var status *string
		if e.Status != nil {
			st := string(*e.Status)
			status = &st
		}
		entries = append(entries, attendance.ExplanationEntryResponse{
			Kind:      string(e.Kind),
			Type:      string(e.Type),
			Reason:    e.Reason,
			Actor:     e.Actor,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			AdminNote: e.AdminNote,
			Credited:  e.Credited,
			Status:    status,
		})
	}

	return attendance.AttendanceResponse{
		ID:                    rec.ID,
		WorkerID:              rec.WorkerID,
		ClinicID:              rec.ClinicID,
		WorkDate:              rec.WorkDate.Format("2006-01-02"),
		Shift:                 string(rec.ShiftLabel),
		Phase:                 string(rec.Phase()),
		CheckIn:               timePtrToString(rec.CheckIn),
		CheckOut:              timePtrToString(rec.CheckOut),
		Status:                string(rec.Status),
		LateMinutes:           rec.LateMinutes,
		EarlyMinutes:          rec.EarlyMinutes,
		LunchDeductionMinutes: rec.LunchDeductionMinutes,
		ActualWorkedHours:     rec.ActualWorkedHours.StringFixed(2),
		ExpectedWorkedHours:   rec.ExpectedWorkedHours.StringFixed(2),
		IdentityScore:         rec.IdentityScore,
		Verification:          verificationStatus,
		Note:                  rec.Note,
		Explanations:          entries,
		CreatedAt:             rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
