package trigger

import "encoding/json"

// Event instructs a device to activate a pin for a duration. Exactly one
// Event is produced per accepted settlement or manual trigger.
type Event struct {
	DeviceID   string
	Pin        int
	DurationMs int64

	// Comment is the payer's comment, when the pin accepted one.
	Comment string

	// AmountMsat is the settled amount. Zero for manual triggers.
	AmountMsat int64

	// AssetID is set when the payment settled in a non-native asset.
	AssetID string
}

// wireEvent is the JSON pushed to device sessions. Optional fields are
// omitted rather than sent empty; relay firmware parses this directly.
type wireEvent struct {
	Pin      int    `json:"pin"`
	Duration int64  `json:"duration"`
	Comment  string `json:"comment,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
	Asset    string `json:"asset,omitempty"`
}

// Marshal renders the event to its wire JSON.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(wireEvent{
		Pin:      e.Pin,
		Duration: e.DurationMs,
		Comment:  e.Comment,
		Amount:   e.AmountMsat,
		Asset:    e.AssetID,
	})
}
