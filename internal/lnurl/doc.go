// Package lnurl implements the LNURL-pay exchange for switch pins.
//
// The exchange has two steps. The metadata step advertises what a
// (device, pin) pair costs and where to call back; it is idempotent and
// side-effect free. The callback step validates the payer's chosen
// amount, comment, and asset against pin policy, mints a one-time
// trigger token, and returns a Lightning invoice carrying the token in
// its extra record. Settlement of that invoice is observed elsewhere;
// this package never waits on payment.
package lnurl
