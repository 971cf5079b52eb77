package worker

import "time"

// Role decides which attendance population a worker belongs to.
type Role string

const (
	RoleClinician Role = "CLINICIAN" // per-shift, roster driven
	RoleStaff     Role = "STAFF"     // fixed full-day schedule
	RoleAdmin     Role = "ADMIN"     // not tracked
)

type Worker struct {
	ID        string
	UserID    *string
	FullName  string
	Role      Role
	ClinicID  *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsClinician reports whether the worker follows the per-shift roster.
func (w *Worker) IsClinician() bool {
	return w.Role == RoleClinician
}

// IsTracked reports whether attendance applies to the worker at all.
func (w *Worker) IsTracked() bool {
	return w.Role == RoleClinician || w.Role == RoleStaff
}
