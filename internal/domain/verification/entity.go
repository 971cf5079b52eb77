package verification

// Outcome is what the gateway reports back to the state machine.
type Outcome struct {
	IdentityVerified bool
	IdentityScore    float64
	LocationValid    bool
	LocationMessage  string
}

// LocationSample is the WiFi network the device reported.
type LocationSample struct {
	SSID  string `json:"ssid"`
	BSSID string `json:"bssid"`
}

// IdentityResult is returned by an IdentityVerifier.
type IdentityResult struct {
	Verified bool
	Score    float64
}

// LocationResult is returned by a LocationValidator.
type LocationResult struct {
	Valid   bool
	Message string
}

// AcceptanceThreshold is the minimum identity similarity that counts as a match.
const AcceptanceThreshold = 0.80
