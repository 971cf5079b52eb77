package verification

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/verification"
)

// WhitelistValidator accepts a network when the clinic whitelists its SSID,
// and its BSSID too when the whitelist row pins one.
type WhitelistValidator struct {
	networks verification.NetworkRepository
}

func NewWhitelistValidator(networks verification.NetworkRepository) *WhitelistValidator {
	return &WhitelistValidator{networks: networks}
}

func (v *WhitelistValidator) Validate(ctx context.Context, ssid, bssid, clinicID string) (verification.LocationResult, error) {
	if strings.TrimSpace(ssid) == "" {
		return verification.LocationResult{Valid: false, Message: "no WiFi network reported"}, nil
	}

	networks, err := v.networks.ListByClinic(ctx, clinicID)
	if err != nil {
		return verification.LocationResult{}, fmt.Errorf("failed to load clinic networks: %w", err)
	}

	for _, n := range networks {
		if n.SSID != ssid {
			continue
		}
		if n.BSSID == nil || strings.EqualFold(*n.BSSID, bssid) {
			return verification.LocationResult{Valid: true, Message: "connected to " + ssid}, nil
		}
	}

	return verification.LocationResult{
		Valid:   false,
		Message: fmt.Sprintf("network %q is not whitelisted for this clinic", ssid),
	}, nil
}
