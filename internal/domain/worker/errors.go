package worker

import "errors"

var (
	ErrWorkerNotFound  = errors.New("worker not found")
	ErrWorkerNotActive = errors.New("worker is not active")
)
