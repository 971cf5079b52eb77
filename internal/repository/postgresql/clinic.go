package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/clinic"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type clinicRepository struct {
	db *database.DB
}

func NewClinicRepository(db *database.DB) clinic.ClinicRepository {
	return &clinicRepository{db: db}
}

// GetByID implements clinic.ClinicRepository.
func (r *clinicRepository) GetByID(ctx context.Context, id string) (clinic.Clinic, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, timezone, is_active, created_at, updated_at
		FROM clinics
		WHERE id = $1
	`

	var c clinic.Clinic
	err := q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Timezone, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == codeInvalidTextRepresent {
			return clinic.Clinic{}, clinic.ErrClinicNotFound
		}
		return clinic.Clinic{}, fmt.Errorf("failed to get clinic by ID: %w", err)
	}

	return c, nil
}
