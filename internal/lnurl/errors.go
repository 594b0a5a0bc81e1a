package lnurl

import "errors"

var (
	// ErrPolicyViolation indicates the requested amount, comment, or asset
	// falls outside what the pin's configuration permits.
	ErrPolicyViolation = errors.New("lnurl: policy violation")

	// ErrRateUnavailable indicates a fiat-denominated pin could not be
	// priced because no exchange rate was available.
	ErrRateUnavailable = errors.New("lnurl: exchange rate unavailable")
)
