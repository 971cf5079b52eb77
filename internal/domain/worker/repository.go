package worker

import "context"

type WorkerRepository interface {
	GetByID(ctx context.Context, id string) (Worker, error)

	// ListActiveByRole is used by the absence sweeps.
	ListActiveByRole(ctx context.Context, role Role) ([]Worker, error)
}
