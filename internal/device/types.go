package device

import "time"

// NativeCurrency is the currency code meaning amounts are denominated in
// satoshis directly, with no fiat conversion.
const NativeCurrency = "sat"

// Switch represents one configured switch device: a physical or virtual
// unit (relay board, vending actuator, display) holding zero or more
// trigger pins. It is created by an operator and mutated only through
// full replacement of its pin list.
type Switch struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	WalletID string `json:"wallet_id"`

	// AdminKey authorises device-scoped API operations (manual trigger,
	// update, delete). Minted at creation, never exposed on public reads.
	AdminKey string `json:"admin_key"`

	// Currency is the display currency for pin amounts. "sat" means
	// amounts are satoshis; anything else is a fiat code converted at
	// payment-request time.
	Currency string `json:"currency"`

	// Disabled rejects all new payment requests for this device.
	Disabled bool `json:"disabled"`

	// Disposable makes every pin on this device single-use: after one
	// successful trigger a pin permanently rejects further requests.
	Disposable bool `json:"disposable"`

	Pins []Pin `json:"pins"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pin is a single trigger target within a switch device.
type Pin struct {
	// Pin is the pin number, unique within a device.
	Pin int `json:"pin"`

	// Amount is the price in the device currency. For variable pins it is
	// the base amount the configured duration corresponds to.
	Amount float64 `json:"amount"`

	// Duration is the base activation duration in milliseconds. Scaled
	// proportionally for variable pins.
	Duration int64 `json:"duration"`

	// Variable lets the payer choose the amount; the trigger duration
	// scales linearly with the settled amount.
	Variable bool `json:"variable"`

	// Comment indicates whether the payment request accepts a payer comment.
	Comment bool `json:"comment"`

	// AcceptsAssets permits settlement in non-native assets.
	AcceptsAssets bool `json:"accepts_assets"`

	// AcceptedAssets is the allow-list of asset ids for this pin.
	// Empty with AcceptsAssets=false means native-currency-only.
	AcceptedAssets []string `json:"accepted_assets,omitempty"`

	// Label is an optional display label, also carried on trigger events
	// as the acknowledgement text.
	Label string `json:"label,omitempty"`
}

// FindPin returns the pin config with the given number, or nil.
func (s *Switch) FindPin(pin int) *Pin {
	for i := range s.Pins {
		if s.Pins[i].Pin == pin {
			return &s.Pins[i]
		}
	}
	return nil
}

// Clone returns an independent copy of the Switch. Slice fields are
// duplicated so modifications to the copy do not affect the original;
// this keeps the registry cache isolated from callers.
func (s *Switch) Clone() *Switch {
	if s == nil {
		return nil
	}

	cpy := *s
	if s.Pins != nil {
		cpy.Pins = make([]Pin, len(s.Pins))
		for i, p := range s.Pins {
			cpy.Pins[i] = p
			if p.AcceptedAssets != nil {
				cpy.Pins[i].AcceptedAssets = make([]string, len(p.AcceptedAssets))
				copy(cpy.Pins[i].AcceptedAssets, p.AcceptedAssets)
			}
		}
	}
	return &cpy
}

// Public returns a copy stripped of fields a payer-facing page must never
// see: the admin key and the owning wallet reference.
func (s *Switch) Public() *Switch {
	cpy := s.Clone()
	cpy.AdminKey = ""
	cpy.WalletID = ""
	return cpy
}

// AcceptsAsset reports whether the pin's allow-list permits the asset id.
func (p *Pin) AcceptsAsset(assetID string) bool {
	if !p.AcceptsAssets {
		return false
	}
	for _, id := range p.AcceptedAssets {
		if id == assetID {
			return true
		}
	}
	return false
}
