// Package influxdb provides optional payment and delivery telemetry.
//
// When enabled, each settlement and each dispatched trigger is written
// as a point to an InfluxDB v2 bucket. Writes are batched and
// asynchronous; the payment path never blocks on telemetry, and a failed
// write is reported through an error callback rather than an error
// return.
package influxdb
