package user

import "errors"

var (
	ErrHRAccessRequired        = errors.New("hr access required")
	ErrWorkerProfileRequired   = errors.New("account is not linked to a worker profile")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
