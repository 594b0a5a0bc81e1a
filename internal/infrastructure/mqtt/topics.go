package mqtt

import "fmt"

// Topic namespace. Everything the daemon publishes lives under bitswitch/.
const topicPrefix = "bitswitch"

// Topics builds the broker topic strings used by the daemon.
//
// Layout:
//
//	bitswitch/system/status           - daemon online/offline (retained)
//	bitswitch/trigger/{deviceID}      - trigger events for one device
type Topics struct{}

// SystemStatus returns the daemon status topic.
func (Topics) SystemStatus() string {
	return topicPrefix + "/system/status"
}

// DeviceTrigger returns the trigger topic for a device id.
func (Topics) DeviceTrigger(deviceID string) string {
	return fmt.Sprintf("%s/trigger/%s", topicPrefix, deviceID)
}
