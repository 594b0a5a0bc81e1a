package rates

import "errors"

var (
	// ErrUnavailable indicates the rate source could not be reached and no
	// valid cached quote exists.
	ErrUnavailable = errors.New("rates: rate source unavailable")

	// ErrUnsupported indicates the rate source does not quote the currency.
	ErrUnsupported = errors.New("rates: unsupported currency")
)
