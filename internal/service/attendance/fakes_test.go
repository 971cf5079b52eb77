package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/clinic"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/verification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/worker"
	"github.com/google/uuid"
)

type fakeTx struct{}

func (fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]attendance.Attendance
	// raceOnCreate simulates a concurrent writer inserting first.
	raceOnCreate *attendance.Attendance
	creates      int
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: map[string]attendance.Attendance{}}
}

func (r *fakeAttendanceRepo) find(workerID string, date time.Time, label shift.Label) *attendance.Attendance {
	for _, rec := range r.records {
		if rec.WorkerID == workerID && rec.WorkDate.Equal(date) && rec.ShiftLabel == label {
			c := rec
			return &c
		}
	}
	return nil
}

func (r *fakeAttendanceRepo) Create(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.raceOnCreate != nil {
		winner := *r.raceOnCreate
		winner.ID = uuid.NewString()
		r.records[winner.ID] = winner
		r.raceOnCreate = nil
		return attendance.Attendance{}, attendance.ErrDuplicateRecord
	}
	if r.find(a.WorkerID, a.WorkDate, a.ShiftLabel) != nil {
		return attendance.Attendance{}, attendance.ErrDuplicateRecord
	}
	a.ID = uuid.NewString()
	r.records[a.ID] = a
	return a, nil
}

func (r *fakeAttendanceRepo) CreateAbsence(_ context.Context, a attendance.Attendance) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(a.WorkerID, a.WorkDate, a.ShiftLabel) != nil {
		return false, nil
	}
	a.ID = uuid.NewString()
	r.records[a.ID] = a
	return true, nil
}

func (r *fakeAttendanceRepo) GetByID(_ context.Context, id string) (attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return rec, nil
}

func (r *fakeAttendanceRepo) GetByIDForUpdate(ctx context.Context, id string) (attendance.Attendance, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeAttendanceRepo) FindByWorkerDateShift(_ context.Context, workerID string, date time.Time, label shift.Label) (*attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(workerID, date, label), nil
}

func (r *fakeAttendanceRepo) FindByWorkerDateShiftForUpdate(ctx context.Context, workerID string, date time.Time, label shift.Label) (*attendance.Attendance, error) {
	return r.FindByWorkerDateShift(ctx, workerID, date, label)
}

func (r *fakeAttendanceRepo) FindLatestCheckedInForUpdate(_ context.Context, workerID string, label *shift.Label) (*attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidates []attendance.Attendance
	for _, rec := range r.records {
		if rec.WorkerID != workerID || rec.CheckIn == nil {
			continue
		}
		if label != nil && rec.ShiftLabel != *label {
			continue
		}
		candidates = append(candidates, rec)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].CheckIn.After(*candidates[j].CheckIn) })
	return &candidates[0], nil
}

func (r *fakeAttendanceRepo) AttachCheckIn(_ context.Context, a attendance.Attendance) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.records[a.ID]
	if !ok || cur.CheckIn != nil {
		return false, nil
	}
	r.records[a.ID] = a
	return true, nil
}

func (r *fakeAttendanceRepo) Update(_ context.Context, a attendance.Attendance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[a.ID]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	r.records[a.ID] = a
	return nil
}

func (r *fakeAttendanceRepo) UpdateAbsenceStatus(_ context.Context, id string, status attendance.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	if rec.CheckIn == nil {
		rec.Status = status
		r.records[id] = rec
	}
	return nil
}

func (r *fakeAttendanceRepo) List(_ context.Context, f attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.Attendance
	for _, rec := range r.records {
		if f.WorkerID != nil && rec.WorkerID != *f.WorkerID {
			continue
		}
		out = append(out, rec)
	}
	return out, int64(len(out)), nil
}

type fakeWorkers map[string]worker.Worker

func (f fakeWorkers) GetByID(_ context.Context, id string) (worker.Worker, error) {
	w, ok := f[id]
	if !ok {
		return worker.Worker{}, worker.ErrWorkerNotFound
	}
	return w, nil
}

func (f fakeWorkers) ListActiveByRole(_ context.Context, role worker.Role) ([]worker.Worker, error) {
	var out []worker.Worker
	for _, w := range f {
		if w.Role == role && w.IsActive {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeClinics map[string]clinic.Clinic

func (f fakeClinics) GetByID(_ context.Context, id string) (clinic.Clinic, error) {
	c, ok := f[id]
	if !ok {
		return clinic.Clinic{}, clinic.ErrClinicNotFound
	}
	return c, nil
}

type fakeRoster struct {
	mu      sync.Mutex
	entries []roster.Entry
}

func (f *fakeRoster) FindByWorkerClinicDate(_ context.Context, workerID, clinicID string, date time.Time) ([]roster.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []roster.Entry
	for _, e := range f.entries {
		if e.WorkerID == workerID && e.ClinicID == clinicID && e.WorkDate.Equal(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRoster) ListByDate(_ context.Context, date time.Time) ([]roster.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []roster.Entry
	for _, e := range f.entries {
		if e.WorkDate.Equal(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRoster) UpdateStatus(_ context.Context, id string, status roster.Activation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].Status = status
			return nil
		}
	}
	return roster.ErrEntryNotFound
}

func (f *fakeRoster) status(id string) roster.Activation {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id {
			return e.Status
		}
	}
	return ""
}

// fakeLeaves holds "workerID" for whole-day leave or "workerID/LABEL" for one shift.
type fakeLeaves map[string]bool

func (f fakeLeaves) HasApprovedLeave(_ context.Context, workerID string, _ time.Time, label *shift.Label) (bool, error) {
	if f[workerID] {
		return true, nil
	}
	if label != nil && f[workerID+"/"+string(*label)] {
		return true, nil
	}
	return false, nil
}

type fakeGateway struct {
	outcome verification.Outcome
	err     error
	calls   int
}

func (g *fakeGateway) Verify(context.Context, string, string, []float64, verification.LocationSample) (verification.Outcome, error) {
	g.calls++
	return g.outcome, g.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	queued []notification.CreateNotificationRequest
}

func (n *fakeNotifier) QueueNotification(_ context.Context, req notification.CreateNotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queued = append(n.queued, req)
	return nil
}

func (n *fakeNotifier) GetNotifications(context.Context, string, int, int, bool) (*notification.NotificationListResponse, error) {
	return &notification.NotificationListResponse{}, nil
}

func (n *fakeNotifier) MarkAsRead(context.Context, string, notification.MarkAsReadRequest) error {
	return nil
}

func (n *fakeNotifier) Subscribe(context.Context, string) (<-chan notification.SSEEvent, func()) {
	ch := make(chan notification.SSEEvent)
	return ch, func() { close(ch) }
}

func (n *fakeNotifier) Stop() {}
