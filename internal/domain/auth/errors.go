package auth

import "errors"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenExpired = errors.New("token has expired")
	ErrRateLimited  = errors.New("too many requests, try again later")
)
