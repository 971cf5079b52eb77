package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type rosterRepository struct {
	db *database.DB
}

func NewRosterRepository(db *database.DB) roster.Repository {
	return &rosterRepository{db: db}
}

// Planned times are read as HH:MI text to stay independent of the TIME codec.
const rosterColumns = `
	r.id, r.worker_id, r.clinic_id, r.work_date,
	to_char(r.planned_start, 'HH24:MI'), to_char(r.planned_end, 'HH24:MI'),
	r.room, r.status, r.created_at, r.updated_at, c.timezone`

func (r *rosterRepository) queryEntries(ctx context.Context, where string, args ...interface{}) ([]roster.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + rosterColumns + `
		FROM roster_entries r
		JOIN clinics c ON c.id = r.clinic_id
		WHERE ` + where + `
		ORDER BY r.planned_start ASC
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster entries: %w", err)
	}
	defer rows.Close()

	var entries []roster.Entry
	for rows.Next() {
		e, err := scanRosterEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func scanRosterEntry(row pgx.Row) (roster.Entry, error) {
	var (
		e          roster.Entry
		start, end string
		status     string
	)
	if err := row.Scan(
		&e.ID, &e.WorkerID, &e.ClinicID, &e.WorkDate,
		&start, &end,
		&e.Room, &status, &e.CreatedAt, &e.UpdatedAt, &e.ClinicTimezone,
	); err != nil {
		return roster.Entry{}, err
	}

	var err error
	if e.PlannedStart, err = shift.ParseTimeOfDay(start); err != nil {
		return roster.Entry{}, err
	}
	if e.PlannedEnd, err = shift.ParseTimeOfDay(end); err != nil {
		return roster.Entry{}, err
	}
	e.Status = roster.Activation(status)

	return e, nil
}

// FindByWorkerClinicDate implements roster.Repository.
func (r *rosterRepository) FindByWorkerClinicDate(ctx context.Context, workerID, clinicID string, date time.Time) ([]roster.Entry, error) {
	return r.queryEntries(ctx, "r.worker_id = $1 AND r.clinic_id = $2 AND r.work_date = $3", workerID, clinicID, date)
}

// ListByDate implements roster.Repository.
func (r *rosterRepository) ListByDate(ctx context.Context, date time.Time) ([]roster.Entry, error) {
	return r.queryEntries(ctx, "r.work_date = $1", date)
}

// UpdateStatus implements roster.Repository.
func (r *rosterRepository) UpdateStatus(ctx context.Context, id string, status roster.Activation) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE roster_entries SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := q.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update roster status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return roster.ErrEntryNotFound
	}

	return nil
}
