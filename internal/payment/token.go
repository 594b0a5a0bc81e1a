package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const (
	// tokenBytes is the entropy of a payment request token. 32 bytes gives
	// 256 bits; forging a token must never be cheaper than paying.
	tokenBytes = 32

	// sweepInterval is how often expired tokens are evicted.
	sweepInterval = time.Minute
)

// Token binds one issued payment request to its eventual settlement.
// It is opaque to the payer, embedded in the invoice the wallet backend
// creates, and redeemable exactly once.
type Token struct {
	Token      string
	SwitchID   string
	Pin        int
	AmountMsat int64
	AssetID    string
	Comment    string
	PaymentID  string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenStore is an in-memory table of outstanding payment request tokens.
//
// Tokens are volatile by design: a restart drops unsettled requests, and
// the corresponding settlements are then logged anomalies rather than
// triggers. All methods are safe for concurrent use.
type TokenStore struct {
	ttl    time.Duration
	mu     sync.Mutex
	tokens map[string]*Token
}

// NewTokenStore creates a token store whose tokens expire after ttl.
func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{
		ttl:    ttl,
		tokens: make(map[string]*Token),
	}
}

// Mint creates and stores a new token for the given request parameters.
// The returned token value is a 64-character hex string minted from
// crypto/rand; it is not reconstructible from the request parameters.
func (s *TokenStore) Mint(switchID string, pin int, amountMsat int64, assetID, comment, paymentID string) (*Token, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	now := time.Now().UTC()
	t := &Token{
		Token:      hex.EncodeToString(buf),
		SwitchID:   switchID,
		Pin:        pin,
		AmountMsat: amountMsat,
		AssetID:    assetID,
		Comment:    comment,
		PaymentID:  paymentID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
	}

	s.mu.Lock()
	s.tokens[t.Token] = t
	s.mu.Unlock()

	return t, nil
}

// Redeem consumes a token, removing it from the store.
//
// A token can be redeemed at most once; a second redemption returns
// ErrTokenNotFound. An expired token returns ErrTokenExpired and is
// removed, so a stale settlement arriving late is never honoured.
func (s *TokenStore) Redeem(token string) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return nil, ErrTokenNotFound
	}
	delete(s.tokens, token)

	if time.Now().After(t.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return t, nil
}

// Len returns the number of outstanding tokens.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// Run sweeps expired tokens periodically until the context is cancelled.
func (s *TokenStore) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep removes all tokens that expired at or before now.
func (s *TokenStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, t := range s.tokens {
		if now.After(t.ExpiresAt) {
			delete(s.tokens, k)
		}
	}
}
