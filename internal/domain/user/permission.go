package user

type Permission string

const (
	// Self service
	PermissionAttendanceCheck   Permission = "attendance.check"
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionExplanationSubmit Permission = "explanation.submit"

	// HR
	PermissionAttendanceViewAll  Permission = "attendance.view_all"
	PermissionAttendanceEdit     Permission = "attendance.edit"
	PermissionAttendanceOverride Permission = "attendance.override"
	PermissionExplanationResolve Permission = "explanation.resolve"
	PermissionRosterReconcile    Permission = "roster.reconcile"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleHR: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceEdit,
		PermissionAttendanceOverride,
		PermissionExplanationResolve,
		PermissionRosterReconcile,
	},
	RoleManager: {
		PermissionAttendanceCheck,
		PermissionAttendanceViewOwn,
		PermissionExplanationSubmit,
		PermissionAttendanceViewAll,
		PermissionExplanationResolve,
		PermissionRosterReconcile,
	},
	RoleWorker: {
		PermissionAttendanceCheck,
		PermissionAttendanceViewOwn,
		PermissionExplanationSubmit,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
