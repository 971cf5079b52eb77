package verification

import "context"

// Gateway is the single pass/fail facade the attendance engine calls.
type Gateway interface {
	Verify(ctx context.Context, workerID, clinicID string, identitySample []float64, location LocationSample) (Outcome, error)
}

// IdentityVerifier compares a live embedding against the stored one.
type IdentityVerifier interface {
	Verify(ctx context.Context, sample, stored []float64) (IdentityResult, error)
}

// LocationValidator checks the reported network against the clinic whitelist.
type LocationValidator interface {
	Validate(ctx context.Context, ssid, bssid, clinicID string) (LocationResult, error)
}

// TemplateRepository reads registered identity embeddings.
type TemplateRepository interface {
	GetEmbedding(ctx context.Context, workerID string) ([]float64, error)
}

// Network is one whitelisted WiFi access point for a clinic.
type Network struct {
	ClinicID string
	SSID     string
	BSSID    *string
}

type NetworkRepository interface {
	ListByClinic(ctx context.Context, clinicID string) ([]Network, error)
}
