// Package device provides the switch registry for Bitswitch Core.
//
// A Switch is one configured device (relay board, vending actuator,
// display) with a list of trigger pins. The package follows the
// repository/registry split: Repository handles SQLite persistence,
// Registry adds an in-memory cache and validation on top. Every LNURL
// request and every settlement reads switch configuration, so lookups
// are served from the cache.
//
// The registry hands out copies; cached switches are never shared with
// callers.
package device
