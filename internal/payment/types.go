package payment

import "time"

// Payment statuses.
const (
	StatusPending = "pending"
	StatusSettled = "settled"
)

// Payment is the bookkeeping record for one issued payment request.
// It exists for operator visibility only; the trigger path runs off the
// in-memory token, not this row.
type Payment struct {
	ID          string    `json:"id"`
	SwitchID    string    `json:"switch_id"`
	PaymentHash string    `json:"payment_hash"`
	Pin         int       `json:"pin"`
	AmountMsat  int64     `json:"amount_msat"`
	AssetID     string    `json:"asset_id,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
