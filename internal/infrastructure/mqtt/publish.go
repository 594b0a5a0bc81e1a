package mqtt

import (
	"context"
	"fmt"
)

// maxPayloadSize caps MQTT message payloads (1MB). Trigger payloads are
// tiny; the cap guards against programming errors, not traffic.
const maxPayloadSize = 1 << 20

// maxQoS is the maximum QoS level supported.
const maxQoS = 2

// Publish sends a message to the specified MQTT topic.
//
// QoS levels: 0 at most once, 1 at least once, 2 exactly once. Retained
// messages are stored by the broker and delivered to new subscribers;
// use them for state topics, never for trigger events.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return fmt.Errorf("%w: invalid QoS %d", ErrPublishFailed, qos)
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishTrigger publishes a trigger payload to the device's trigger
// topic at the configured QoS. Not retained: a trigger is an event, and
// firmware connecting later must not replay it.
func (c *Client) PublishTrigger(_ context.Context, deviceID string, payload []byte) error {
	return c.Publish(Topics{}.DeviceTrigger(deviceID), payload, byte(c.cfg.QoS), false)
}
