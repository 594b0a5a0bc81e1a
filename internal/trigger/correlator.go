package trigger

import (
	"context"
	"errors"

	"github.com/nerrad567/bitswitch-core/internal/device"
	"github.com/nerrad567/bitswitch-core/internal/payment"
	"github.com/nerrad567/bitswitch-core/internal/wallet"
)

// Correlator matches settlement events from the wallet backend feed to
// outstanding trigger tokens and turns each accepted match into exactly
// one dispatched trigger event.
//
// Anything that fails to correlate is a logged anomaly, never a crash:
// the feed carries every payment on the wallet, most of which have
// nothing to do with switches.
type Correlator struct {
	tokens     *payment.TokenStore
	devices    *device.Registry
	payments   payment.Repository
	locks      *payment.PinLocks
	dispatcher *Dispatcher
	recorder   SettlementRecorder // optional
	logger     Logger
}

// NewCorrelator creates a settlement correlator.
func NewCorrelator(tokens *payment.TokenStore, devices *device.Registry, payments payment.Repository,
	locks *payment.PinLocks, dispatcher *Dispatcher) *Correlator {
	return &Correlator{
		tokens:     tokens,
		devices:    devices,
		payments:   payments,
		locks:      locks,
		dispatcher: dispatcher,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the correlator.
func (c *Correlator) SetLogger(logger Logger) {
	c.logger = logger
}

// SetRecorder sets an optional settlement metrics sink.
func (c *Correlator) SetRecorder(recorder SettlementRecorder) {
	c.recorder = recorder
}

// HandleSettlement processes one settled payment from the backend feed.
func (c *Correlator) HandleSettlement(ctx context.Context, ev wallet.SettlementEvent) {
	tokenValue, ok := ev.Extra["trigger_token"].(string)
	if !ok || tokenValue == "" {
		// Unrelated wallet traffic.
		return
	}

	if ev.AmountMsat <= 0 {
		c.logger.Warn("settlement with non-positive amount ignored",
			"payment_hash", ev.PaymentHash, "amount_msat", ev.AmountMsat)
		return
	}

	tok, err := c.tokens.Redeem(tokenValue)
	if err != nil {
		c.logger.Warn("settlement did not match a live token",
			"payment_hash", ev.PaymentHash, "error", err)
		return
	}

	if err := c.payments.SettlePayment(ctx, tok.PaymentID, ev.AmountMsat); err != nil {
		// Bookkeeping only; the trigger still fires.
		c.logger.Error("settle payment record failed", "payment_id", tok.PaymentID, "error", err)
	}

	sw, err := c.devices.Get(ctx, tok.SwitchID)
	if err != nil {
		c.logger.Warn("settled payment for missing device", "device_id", tok.SwitchID, "error", err)
		return
	}
	if sw.Disabled {
		c.logger.Warn("settled payment for disabled device dropped", "device_id", sw.ID, "pin", tok.Pin)
		return
	}
	p := sw.FindPin(tok.Pin)
	if p == nil {
		c.logger.Warn("settled payment for removed pin dropped", "device_id", sw.ID, "pin", tok.Pin)
		return
	}

	duration := p.Duration
	if p.Variable {
		// Linear law: duration scales with the settled-to-base ratio.
		duration = p.Duration * ev.AmountMsat / tok.AmountMsat
	}
	if duration <= 0 {
		c.logger.Warn("resolved non-positive duration dropped",
			"device_id", sw.ID, "pin", tok.Pin, "duration_ms", duration)
		return
	}

	if sw.Disposable {
		// The durable mark and the re-check are one atomic step per
		// (device, pin); concurrent settlements race here and exactly one
		// proceeds.
		unlock := c.locks.Lock(sw.ID, tok.Pin)
		err := c.payments.ConsumePin(ctx, sw.ID, tok.Pin)
		unlock()
		if err != nil {
			if errors.Is(err, payment.ErrAlreadyConsumed) {
				c.logger.Warn("disposable pin already consumed, settlement dropped",
					"device_id", sw.ID, "pin", tok.Pin, "payment_hash", ev.PaymentHash)
			} else {
				c.logger.Error("consume pin failed", "device_id", sw.ID, "pin", tok.Pin, "error", err)
			}
			return
		}
	}

	if c.recorder != nil {
		c.recorder.RecordSettlement(sw.ID, tok.Pin, ev.AmountMsat, tok.AssetID)
	}

	c.dispatcher.Dispatch(ctx, Event{
		DeviceID:   sw.ID,
		Pin:        tok.Pin,
		DurationMs: duration,
		Comment:    tok.Comment,
		AmountMsat: ev.AmountMsat,
		AssetID:    tok.AssetID,
	})
}

// Manual fires a pin by operator action, subject to the same disabled and
// disposable gates as a settled payment. Returns the sessions reached.
func (c *Correlator) Manual(ctx context.Context, deviceID string, pin int) (int, error) {
	sw, err := c.devices.Get(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	if sw.Disabled {
		return 0, device.ErrDisabled
	}
	p := sw.FindPin(pin)
	if p == nil {
		return 0, device.ErrPinNotFound
	}

	if sw.Disposable {
		unlock := c.locks.Lock(sw.ID, pin)
		err := c.payments.ConsumePin(ctx, sw.ID, pin)
		unlock()
		if err != nil {
			return 0, err
		}
	}

	return c.dispatcher.Dispatch(ctx, Event{
		DeviceID:   sw.ID,
		Pin:        pin,
		DurationMs: p.Duration,
	}), nil
}
