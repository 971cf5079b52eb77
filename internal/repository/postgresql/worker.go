package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/worker"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type workerRepository struct {
	db *database.DB
}

func NewWorkerRepository(db *database.DB) worker.WorkerRepository {
	return &workerRepository{db: db}
}

const workerColumns = `id, user_id, full_name, role, clinic_id, is_active, created_at, updated_at`

func scanWorker(row pgx.Row) (worker.Worker, error) {
	var (
		w    worker.Worker
		role string
	)
	err := row.Scan(&w.ID, &w.UserID, &w.FullName, &role, &w.ClinicID, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	w.Role = worker.Role(role)
	return w, err
}

// GetByID implements worker.WorkerRepository.
func (r *workerRepository) GetByID(ctx context.Context, id string) (worker.Worker, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + workerColumns + ` FROM workers WHERE id = $1`

	w, err := scanWorker(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == codeInvalidTextRepresent {
			return worker.Worker{}, worker.ErrWorkerNotFound
		}
		return worker.Worker{}, fmt.Errorf("failed to get worker by ID: %w", err)
	}

	return w, nil
}

// ListActiveByRole implements worker.WorkerRepository.
func (r *workerRepository) ListActiveByRole(ctx context.Context, role worker.Role) ([]worker.Worker, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + workerColumns + `
		FROM workers
		WHERE role = $1 AND is_active = true
		ORDER BY full_name
	`

	rows, err := q.Query(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []worker.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, w)
	}

	return workers, rows.Err()
}
