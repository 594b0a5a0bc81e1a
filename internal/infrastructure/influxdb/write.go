package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordTrigger writes a delivery point for one dispatched trigger.
// reached is the number of live sessions the event was delivered to;
// zero records a delivery miss.
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) RecordTrigger(deviceID string, pin int, reached int, amountMsat int64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"trigger",
		map[string]string{
			"device_id": deviceID,
			"pin":       strconv.Itoa(pin),
		},
		map[string]interface{}{
			"sessions_reached": reached,
			"amount_msat":      amountMsat,
			"delivered":        reached > 0,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordSettlement writes a settlement point for one settled payment.
func (c *Client) RecordSettlement(deviceID string, pin int, amountMsat int64, assetID string) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"device_id": deviceID,
		"pin":       strconv.Itoa(pin),
	}
	if assetID != "" {
		tags["asset"] = assetID
	}

	point := write.NewPoint(
		"settlement",
		tags,
		map[string]interface{}{
			"amount_msat": amountMsat,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
