package user

// Role is the access role carried in the bearer token. It is independent of
// the worker's attendance population (clinician/staff).
type Role string

const (
	RoleHR      Role = "hr"      // approves explanations, overrides statuses
	RoleManager Role = "manager" // clinic lead, same attendance rights as HR
	RoleWorker  Role = "worker"  // checks in and out
)

// Principal is the authenticated caller extracted from token claims.
type Principal struct {
	UserID   string
	WorkerID *string
	ClinicID *string
	Role     Role
}

// IsHR reports whether the caller may act on other workers' records.
func (p Principal) IsHR() bool {
	return HasPermission(p.Role, PermissionAttendanceViewAll)
}

// CanApprove checks if the caller can resolve explanations
func (p Principal) CanApprove() bool {
	return HasPermission(p.Role, PermissionExplanationResolve)
}
