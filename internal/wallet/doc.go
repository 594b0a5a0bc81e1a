// Package wallet integrates with an LNbits-compatible Lightning wallet
// backend.
//
// The Client creates invoices over the backend's HTTP API. The Listener
// consumes the backend's WebSocket settlement feed and surfaces each
// settled incoming payment, reconnecting with exponential backoff when
// the feed drops.
package wallet
