// Package rates converts fiat-denominated pin prices to millisatoshis.
//
// Prices come from a coingecko-style HTTP source and are cached per
// currency for a configurable validity window. When the source is down a
// stale quote is served in preference to failing a payment.
package rates
