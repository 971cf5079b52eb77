package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/verification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type templateRepository struct {
	db *database.DB
}

func NewTemplateRepository(db *database.DB) verification.TemplateRepository {
	return &templateRepository{db: db}
}

// GetEmbedding implements verification.TemplateRepository.
func (r *templateRepository) GetEmbedding(ctx context.Context, workerID string) ([]float64, error) {
	q := GetQuerier(ctx, r.db)

	var embedding []float64
	err := q.QueryRow(ctx, `SELECT embedding FROM identity_templates WHERE worker_id = $1`, workerID).Scan(&embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, verification.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get identity template: %w", err)
	}

	return embedding, nil
}

type networkRepository struct {
	db *database.DB
}

func NewNetworkRepository(db *database.DB) verification.NetworkRepository {
	return &networkRepository{db: db}
}

// ListByClinic implements verification.NetworkRepository.
func (r *networkRepository) ListByClinic(ctx context.Context, clinicID string) ([]verification.Network, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT clinic_id, ssid, bssid FROM clinic_networks WHERE clinic_id = $1`, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clinic networks: %w", err)
	}
	defer rows.Close()

	var networks []verification.Network
	for rows.Next() {
		var n verification.Network
		if err := rows.Scan(&n.ClinicID, &n.SSID, &n.BSSID); err != nil {
			return nil, fmt.Errorf("failed to scan clinic network: %w", err)
		}
		networks = append(networks, n)
	}

	return networks, rows.Err()
}
