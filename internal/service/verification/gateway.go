package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/verification"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/metrics"
)

// GatewayImpl runs identity then location checks and folds them into one outcome.
type GatewayImpl struct {
	templates       verification.TemplateRepository
	identity        verification.IdentityVerifier
	location        verification.LocationValidator
	enforceLocation bool
	metrics         *metrics.Metrics
}

func NewGateway(
	templates verification.TemplateRepository,
	identity verification.IdentityVerifier,
	location verification.LocationValidator,
	enforceLocation bool,
	m *metrics.Metrics,
) verification.Gateway {
	return &GatewayImpl{
		templates:       templates,
		identity:        identity,
		location:        location,
		enforceLocation: enforceLocation,
		metrics:         m,
	}
}

func (g *GatewayImpl) Verify(ctx context.Context, workerID, clinicID string, sample []float64, loc verification.LocationSample) (verification.Outcome, error) {
	outcome, err := g.verify(ctx, workerID, clinicID, sample, loc)
	switch {
	case err == nil && outcome.LocationValid:
		g.metrics.IncVerification("verified")
	case err == nil:
		g.metrics.IncVerification("location_failed")
	case errors.Is(err, verification.ErrVerificationFailed):
		g.metrics.IncVerification("rejected")
	default:
		g.metrics.IncVerification("error")
	}
	return outcome, err
}

func (g *GatewayImpl) verify(ctx context.Context, workerID, clinicID string, sample []float64, loc verification.LocationSample) (verification.Outcome, error) {
	stored, err := g.templates.GetEmbedding(ctx, workerID)
	if err != nil {
		if errors.Is(err, verification.ErrTemplateNotFound) {
			return verification.Outcome{}, verification.Failed("no identity template registered for this worker")
		}
		return verification.Outcome{}, fmt.Errorf("failed to load identity template: %w", err)
	}

	if err := validateSample(sample, len(stored)); err != nil {
		return verification.Outcome{}, err
	}

	identity, err := g.identity.Verify(ctx, sample, stored)
	if err != nil {
		return verification.Outcome{}, fmt.Errorf("identity verifier: %w", err)
	}
	// NaN compares false, so the score must be shown to reach the threshold.
	if !identity.Verified || !(identity.Score >= verification.AcceptanceThreshold) || identity.Score > 1 {
		return verification.Outcome{}, verification.Failed("identity not recognized (score %.2f)", identity.Score)
	}

	location, err := g.location.Validate(ctx, loc.SSID, loc.BSSID, clinicID)
	if err != nil {
		return verification.Outcome{}, fmt.Errorf("location validator: %w", err)
	}
	if !location.Valid {
		if g.enforceLocation {
			return verification.Outcome{}, verification.Failed("%s", location.Message)
		}
		slog.Warn("location check failed, continuing", "worker_id", workerID, "clinic_id", clinicID, "reason", location.Message)
	}

	return verification.Outcome{
		IdentityVerified: true,
		IdentityScore:    identity.Score,
		LocationValid:    location.Valid,
		LocationMessage:  location.Message,
	}, nil
}

func validateSample(sample []float64, dim int) error {
	if len(sample) == 0 {
		return verification.Failed("identity sample is empty")
	}
	if len(sample) != dim {
		return verification.Failed("identity sample has %d dimensions, expected %d", len(sample), dim)
	}
	for _, v := range sample {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return verification.Failed("identity sample contains non-finite values")
		}
	}
	return nil
}
