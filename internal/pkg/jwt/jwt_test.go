package jwt

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService("test-secret", "1h")
	require.NoError(t, err)
	return svc
}

func TestNewJWTService_InvalidExpiration(t *testing.T) {
	_, err := NewJWTService("secret", "soon")
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := newService(t)
	workerID, clinicID := "w1", "c1"

	token, expiresAt, err := svc.GenerateAccessToken(user.Principal{
		UserID:   "u1",
		WorkerID: &workerID,
		ClinicID: &clinicID,
		Role:     user.RoleWorker,
	})
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(t.Context())
	require.NoError(t, err)

	p, err := PrincipalFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "w1", *p.WorkerID)
	assert.Equal(t, "c1", *p.ClinicID)
	assert.Equal(t, user.RoleWorker, p.Role)
}

func TestPrincipalFromClaims_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]interface{}
	}{
		{"sse token", map[string]interface{}{"type": TokenTypeSSE, "user_id": "u1", "role": "hr"}},
		{"missing role", map[string]interface{}{"type": TokenTypeAccess, "user_id": "u1"}},
		{"missing user", map[string]interface{}{"type": TokenTypeAccess, "role": "hr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrincipalFromClaims(tt.claims)
			assert.ErrorIs(t, err, ErrInvalidClaims)
		})
	}
}

func TestPrincipalFromClaims_HRWithoutWorker(t *testing.T) {
	p, err := PrincipalFromClaims(map[string]interface{}{
		"type": TokenTypeAccess, "user_id": "u9", "role": "hr", "worker_id": nil,
	})
	require.NoError(t, err)
	assert.Nil(t, p.WorkerID)
	assert.True(t, p.IsHR())
}

func TestSSEToken(t *testing.T) {
	svc := newService(t)

	token, expiresIn, err := svc.GenerateSSEToken("u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	workerID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "w1", workerID)

	access, _, err := svc.GenerateAccessToken(user.Principal{UserID: "u1", Role: user.RoleWorker})
	require.NoError(t, err)
	_, err = svc.ValidateSSEToken(access)
	assert.ErrorIs(t, err, ErrInvalidClaims)

	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := svc.GenerateSSEToken("u1", "w1")
	require.NoError(t, err)
	_, err = svc.ValidateSSEToken(expired)
	assert.Error(t, err)
}
