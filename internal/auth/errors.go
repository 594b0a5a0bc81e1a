package auth

import "errors"

var (
	// ErrTokenInvalid indicates a JWT failed signature, expiry, or shape checks.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)
