// Package mqtt provides the optional broker-side trigger channel.
//
// Some relay firmware cannot hold a WebSocket open and subscribes to a
// broker instead. When enabled, every dispatched trigger is also
// published to bitswitch/trigger/{deviceID}. Delivery semantics match
// the WebSocket path: events, not retained state, and no replay.
//
// The daemon's own liveness is published retained to
// bitswitch/system/status with a Last Will for crash detection.
package mqtt
