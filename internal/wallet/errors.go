package wallet

import "errors"

var (
	// ErrUnavailable indicates the wallet backend could not be reached.
	ErrUnavailable = errors.New("wallet: backend unavailable")

	// ErrRejected indicates the wallet backend refused the request.
	ErrRejected = errors.New("wallet: request rejected")
)
