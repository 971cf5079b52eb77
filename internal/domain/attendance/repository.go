package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
)

// AttendanceRepository defines data access methods for attendance records.
// Reads marked ForUpdate lock the row for the surrounding transaction.
type AttendanceRepository interface {
	// Create inserts a record; a duplicate (worker, date, shift) returns ErrDuplicateRecord.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// CreateAbsence inserts an absence record unless one already exists. Reports whether a row was written.
	CreateAbsence(ctx context.Context, attendance Attendance) (bool, error)

	GetByID(ctx context.Context, id string) (Attendance, error)
	GetByIDForUpdate(ctx context.Context, id string) (Attendance, error)

	// FindByWorkerDateShift returns nil when no record exists.
	FindByWorkerDateShift(ctx context.Context, workerID string, date time.Time, label shift.Label) (*Attendance, error)
	FindByWorkerDateShiftForUpdate(ctx context.Context, workerID string, date time.Time, label shift.Label) (*Attendance, error)

	// FindLatestCheckedInForUpdate returns the worker's newest record that has a
	// check-in, optionally restricted to label. Nil when there is none.
	FindLatestCheckedInForUpdate(ctx context.Context, workerID string, label *shift.Label) (*Attendance, error)

	// AttachCheckIn fills a swept absence row; false when the row already has a check-in.
	AttachCheckIn(ctx context.Context, attendance Attendance) (bool, error)

	Update(ctx context.Context, attendance Attendance) error

	// UpdateAbsenceStatus rewrites the status of a record that has no check-in yet.
	UpdateAbsenceStatus(ctx context.Context, id string, status Status) error

	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)
}

// Transactor runs fn inside one database transaction carried by ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
