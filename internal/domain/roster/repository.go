package roster

import (
	"context"
	"time"
)

type Repository interface {
	// FindByWorkerClinicDate returns the worker's entries at a clinic for one day, ordered by planned start.
	FindByWorkerClinicDate(ctx context.Context, workerID, clinicID string, date time.Time) ([]Entry, error)

	// ListByDate returns every clinician entry for the date across all clinics.
	ListByDate(ctx context.Context, date time.Time) ([]Entry, error)

	// UpdateStatus writes only the activation flag.
	UpdateStatus(ctx context.Context, id string, status Activation) error
}
