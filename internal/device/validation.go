package device

import (
	"fmt"
	"regexp"
)

// Validation constants.
const (
	maxTitleLength = 100
	maxLabelLength = 64
	maxPins        = 64
	maxAssetIDs    = 16

	// maxDurationMs caps a configured duration at 24 hours. A relay held
	// open longer than that is a configuration mistake, not a product.
	maxDurationMs = 24 * 60 * 60 * 1000
)

// currencyPattern matches "sat" or a 3-letter fiat code.
var currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)

// Validate performs comprehensive validation on a switch configuration.
// Returns an error wrapping ErrInvalid describing the first failure found.
func Validate(s *Switch) error {
	if s == nil {
		return fmt.Errorf("%w: switch is nil", ErrInvalid)
	}
	if s.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if len(s.Title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalid, maxTitleLength)
	}
	// WalletID is optional: invoices fall back to the deployment wallet key.
	if s.Currency != NativeCurrency && !currencyPattern.MatchString(s.Currency) {
		return fmt.Errorf("%w: currency %q is not 'sat' or a lowercase 3-letter code", ErrInvalid, s.Currency)
	}
	if len(s.Pins) > maxPins {
		return fmt.Errorf("%w: more than %d pins", ErrInvalid, maxPins)
	}

	seen := make(map[int]struct{}, len(s.Pins))
	for i := range s.Pins {
		if err := validatePin(&s.Pins[i]); err != nil {
			return err
		}
		if _, dup := seen[s.Pins[i].Pin]; dup {
			return fmt.Errorf("%w: duplicate pin %d", ErrInvalid, s.Pins[i].Pin)
		}
		seen[s.Pins[i].Pin] = struct{}{}
	}

	return nil
}

// validatePin checks a single pin configuration.
func validatePin(p *Pin) error {
	if p.Pin < 0 {
		return fmt.Errorf("%w: pin %d is negative", ErrInvalid, p.Pin)
	}
	if p.Amount <= 0 {
		return fmt.Errorf("%w: pin %d amount must be positive", ErrInvalid, p.Pin)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("%w: pin %d duration must be positive", ErrInvalid, p.Pin)
	}
	if p.Duration > maxDurationMs {
		return fmt.Errorf("%w: pin %d duration exceeds %d ms", ErrInvalid, p.Pin, maxDurationMs)
	}
	if len(p.Label) > maxLabelLength {
		return fmt.Errorf("%w: pin %d label exceeds %d characters", ErrInvalid, p.Pin, maxLabelLength)
	}
	if len(p.AcceptedAssets) > maxAssetIDs {
		return fmt.Errorf("%w: pin %d lists more than %d asset ids", ErrInvalid, p.Pin, maxAssetIDs)
	}
	if !p.AcceptsAssets && len(p.AcceptedAssets) > 0 {
		return fmt.Errorf("%w: pin %d has asset ids but accepts_assets is false", ErrInvalid, p.Pin)
	}
	for _, id := range p.AcceptedAssets {
		if id == "" {
			return fmt.Errorf("%w: pin %d has an empty asset id", ErrInvalid, p.Pin)
		}
	}
	return nil
}
