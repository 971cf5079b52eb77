package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenTTL = 5 * time.Minute
)

var ErrInvalidClaims = errors.New("token claims are invalid")

type Service interface {
	GenerateAccessToken(principal user.Principal) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID, workerID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (workerID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) (*JWTService, error) {
	expDuration, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration %q: %w", accessTokenExpirationTime, err)
	}
	return &JWTService{
		accessTokenExpiration: expDuration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(principal user.Principal) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"user_id":   principal.UserID,
		"worker_id": valueOrNil(principal.WorkerID),
		"clinic_id": valueOrNil(principal.ClinicID),
		"role":      string(principal.Role),
		"type":      TokenTypeAccess,
		"exp":       expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// GenerateSSEToken issues a short-lived token that EventSource clients pass as a query parameter.
func (j *JWTService) GenerateSSEToken(userID, workerID string) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(sseTokenTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":   userID,
		"worker_id": workerID,
		"type":      TokenTypeSSE,
		"exp":       expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenTTL.Seconds()), nil
}

// ValidateSSEToken validates an SSE token and returns the worker it streams for.
func (j *JWTService) ValidateSSEToken(tokenString string) (workerID string, err error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeSSE {
		return "", ErrInvalidClaims
	}

	workerIDVal, ok := token.Get("worker_id")
	if !ok {
		return "", ErrInvalidClaims
	}

	workerID, ok = workerIDVal.(string)
	if !ok || workerID == "" {
		return "", ErrInvalidClaims
	}

	return workerID, nil
}

// PrincipalFromClaims rebuilds the caller from access token claims.
func PrincipalFromClaims(claims map[string]interface{}) (user.Principal, error) {
	if tokenType, _ := claims["type"].(string); tokenType != TokenTypeAccess {
		return user.Principal{}, ErrInvalidClaims
	}

	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || role == "" {
		return user.Principal{}, ErrInvalidClaims
	}

	return user.Principal{
		UserID:   userID,
		WorkerID: stringOrNil(claims["worker_id"]),
		ClinicID: stringOrNil(claims["clinic_id"]),
		Role:     user.Role(role),
	}, nil
}

func valueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func stringOrNil(v interface{}) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
