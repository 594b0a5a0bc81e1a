// Package payment holds the shared payment-side state of the trigger
// engine: the in-memory payment request token table, the per-pin lock
// domain that serialises disposable-pin consumption, and the SQLite
// bookkeeping for issued payments and consumed pins.
//
// The token table and pin locks are the only synchronised mutable state
// shared between the request builder and the settlement correlator.
package payment
