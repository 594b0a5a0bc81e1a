package payment

import "errors"

// Domain errors for the payment package.
var (
	// ErrTokenNotFound is returned when a token is unknown or already redeemed.
	ErrTokenNotFound = errors.New("payment: token not found")

	// ErrTokenExpired is returned when a token's TTL has elapsed.
	ErrTokenExpired = errors.New("payment: token expired")

	// ErrAlreadyConsumed is returned when a disposable pin has already
	// produced its one trigger.
	ErrAlreadyConsumed = errors.New("payment: pin already consumed")

	// ErrNotFound is returned when a payment record does not exist.
	ErrNotFound = errors.New("payment: not found")
)
