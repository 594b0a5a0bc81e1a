// Package assets enforces multi-asset settlement policy.
//
// A payment may settle in an asset other than bitcoin only when three
// gates all pass: asset support is enabled for the deployment, the
// backend allow-list admits the asset id, and the pin being paid accepts
// it. Policy is static configuration; there is no runtime discovery.
package assets

import (
	"errors"
	"fmt"
)

var (
	// ErrDisabled indicates asset settlement is not enabled for this deployment.
	ErrDisabled = errors.New("assets: asset settlement disabled")

	// ErrNotAllowed indicates the asset id failed the backend allow-list
	// or the pin's accepted set.
	ErrNotAllowed = errors.New("assets: asset not allowed")
)

// Resolver answers whether a given asset id may settle a payment.
type Resolver struct {
	enabled bool
	allowed map[string]struct{} // empty means any asset
}

// NewResolver builds a resolver from deployment policy. An empty allow
// list admits every asset id when enabled.
func NewResolver(enabled bool, allowed []string) *Resolver {
	r := &Resolver{
		enabled: enabled,
		allowed: make(map[string]struct{}, len(allowed)),
	}
	for _, id := range allowed {
		r.allowed[id] = struct{}{}
	}
	return r
}

// Enabled reports whether asset settlement is available at all.
func (r *Resolver) Enabled() bool {
	return r.enabled
}

// Check validates an asset id against deployment policy and the pin's
// accepted set. pinAccepted is the pin's own allow-list; empty means the
// pin takes any asset the deployment admits.
func (r *Resolver) Check(assetID string, pinAccepted []string) error {
	if assetID == "" {
		return nil // plain bitcoin settlement, no policy applies
	}
	if !r.enabled {
		return ErrDisabled
	}
	if len(r.allowed) > 0 {
		if _, ok := r.allowed[assetID]; !ok {
			return fmt.Errorf("%w: %q not in deployment allow-list", ErrNotAllowed, assetID)
		}
	}
	if len(pinAccepted) > 0 {
		for _, id := range pinAccepted {
			if id == assetID {
				return nil
			}
		}
		return fmt.Errorf("%w: %q not accepted by pin", ErrNotAllowed, assetID)
	}
	return nil
}
