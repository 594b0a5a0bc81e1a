// Package trigger turns settled payments into trigger events.
//
// The Correlator consumes settlement events from the wallet backend
// feed, redeems the one-time token each carries, resolves the activation
// duration, and enforces the disposable-pin invariant. The Dispatcher
// renders accepted events to wire JSON and fans them out to the device's
// live sessions, with optional MQTT publication and telemetry.
//
// Delivery is best effort: a device with no live session misses the
// trigger and nothing is redelivered.
package trigger
