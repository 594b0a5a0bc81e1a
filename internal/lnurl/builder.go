package lnurl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/bitswitch-core/internal/assets"
	"github.com/nerrad567/bitswitch-core/internal/device"
	"github.com/nerrad567/bitswitch-core/internal/payment"
	"github.com/nerrad567/bitswitch-core/internal/rates"
	"github.com/nerrad567/bitswitch-core/internal/wallet"
)

// Logger defines the logging interface used by the Builder.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// fiatTolerance absorbs exchange rate drift between the metadata step and
// the callback for fiat-denominated fixed pins.
const fiatTolerance = 0.01

// PayParams is the LNURL-pay metadata step response.
type PayParams struct {
	Tag            string `json:"tag"`
	Callback       string `json:"callback"`
	MinSendable    int64  `json:"minSendable"`
	MaxSendable    int64  `json:"maxSendable"`
	Metadata       string `json:"metadata"`
	CommentAllowed int    `json:"commentAllowed,omitempty"`
}

// SuccessAction is shown by the payer's wallet after the payment settles.
type SuccessAction struct {
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// InvoiceResponse is the LNURL-pay callback step response.
type InvoiceResponse struct {
	PR            string         `json:"pr"`
	SuccessAction *SuccessAction `json:"successAction,omitempty"`
	Routes        []any          `json:"routes"`
}

// Options carries deployment settings for the builder.
type Options struct {
	// PublicURL is the externally reachable base URL embedded in callbacks.
	PublicURL string

	// MaxCommentLength caps payer comments (BOLT-11 description limit).
	MaxCommentLength int

	// VariableMaxRatio sets maxSendable = base * ratio for variable pins.
	VariableMaxRatio int
}

// Builder implements both steps of the LNURL-pay exchange for a
// (device, pin) pair. The metadata step is side-effect free; the
// callback step mints a one-time trigger token, creates the invoice
// through the wallet backend, and records a pending payment row.
type Builder struct {
	devices  *device.Registry
	payments payment.Repository
	tokens   *payment.TokenStore
	wallet   wallet.InvoiceCreator
	rates    rates.Converter
	assets   *assets.Resolver
	opts     Options
	logger   Logger
}

// NewBuilder creates a payment request builder.
func NewBuilder(devices *device.Registry, payments payment.Repository, tokens *payment.TokenStore,
	invoices wallet.InvoiceCreator, converter rates.Converter, resolver *assets.Resolver, opts Options) *Builder {
	return &Builder{
		devices:  devices,
		payments: payments,
		tokens:   tokens,
		wallet:   invoices,
		rates:    converter,
		assets:   resolver,
		opts:     opts,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the builder.
func (b *Builder) SetLogger(logger Logger) {
	b.logger = logger
}

// PayParams handles the metadata step. Repeating it any number of times
// observes state only; nothing is minted or recorded.
func (b *Builder) PayParams(ctx context.Context, deviceID string, pin int) (*PayParams, error) {
	sw, p, err := b.resolve(ctx, deviceID, pin)
	if err != nil {
		return nil, err
	}

	baseMsat, err := b.pinAmountMsat(ctx, sw, p)
	if err != nil {
		return nil, err
	}

	params := &PayParams{
		Tag:         "payRequest",
		Callback:    fmt.Sprintf("%s/api/v1/lnurl/cb/%s/%d", strings.TrimRight(b.opts.PublicURL, "/"), sw.ID, p.Pin),
		MinSendable: baseMsat,
		MaxSendable: baseMsat,
		Metadata:    metadata(sw, p),
	}
	if p.Variable {
		params.MaxSendable = baseMsat * int64(b.opts.VariableMaxRatio)
	}
	if p.Comment {
		params.CommentAllowed = b.opts.MaxCommentLength
	}
	return params, nil
}

// Invoice handles the callback step. amountMsat is the payer-chosen
// amount in millisatoshis; comment and assetID are optional.
func (b *Builder) Invoice(ctx context.Context, deviceID string, pin int, amountMsat int64, comment, assetID string) (*InvoiceResponse, error) {
	sw, p, err := b.resolve(ctx, deviceID, pin)
	if err != nil {
		return nil, err
	}

	baseMsat, err := b.pinAmountMsat(ctx, sw, p)
	if err != nil {
		return nil, err
	}

	if err := b.checkAmount(sw, p, baseMsat, amountMsat); err != nil {
		return nil, err
	}
	if err := b.checkComment(p, comment); err != nil {
		return nil, err
	}
	if err := b.checkAsset(p, assetID); err != nil {
		return nil, err
	}

	paymentID := uuid.NewString()
	tok, err := b.tokens.Mint(sw.ID, p.Pin, baseMsat, assetID, comment, paymentID)
	if err != nil {
		return nil, fmt.Errorf("lnurl: mint token: %w", err)
	}

	inv, err := b.wallet.CreateInvoice(ctx, wallet.InvoiceRequest{
		WalletID:   sw.WalletID,
		AmountMsat: amountMsat,
		Memo:       sw.Title,
		Metadata:   metadata(sw, p),
		Extra: map[string]any{
			"tag":           "bitswitch",
			"trigger_token": tok.Token,
			"pin":           p.Pin,
		},
	})
	if err != nil {
		// Best effort: a token with no invoice can never settle, reclaim it.
		b.tokens.Redeem(tok.Token)
		return nil, err
	}

	if err := b.payments.CreatePayment(ctx, &payment.Payment{
		ID:          paymentID,
		SwitchID:    sw.ID,
		PaymentHash: inv.PaymentHash,
		Pin:         p.Pin,
		AmountMsat:  amountMsat,
		AssetID:     assetID,
		Status:      payment.StatusPending,
	}); err != nil {
		return nil, fmt.Errorf("lnurl: record payment: %w", err)
	}

	b.logger.Info("invoice issued",
		"device_id", sw.ID, "pin", p.Pin, "amount_msat", amountMsat, "payment_hash", inv.PaymentHash)

	return &InvoiceResponse{
		PR: inv.Bolt11,
		SuccessAction: &SuccessAction{
			Tag:     "message",
			Message: fmt.Sprintf("%d sats sent", amountMsat/1000),
		},
		Routes: []any{},
	}, nil
}

// resolve walks the rejection ladder shared by both steps: device exists,
// device enabled, pin exists, disposable pin not already consumed.
func (b *Builder) resolve(ctx context.Context, deviceID string, pin int) (*device.Switch, *device.Pin, error) {
	sw, err := b.devices.Get(ctx, deviceID)
	if err != nil {
		return nil, nil, err
	}
	if sw.Disabled {
		return nil, nil, device.ErrDisabled
	}
	p := sw.FindPin(pin)
	if p == nil {
		return nil, nil, device.ErrPinNotFound
	}
	if sw.Disposable {
		consumed, err := b.payments.IsPinConsumed(ctx, sw.ID, pin)
		if err != nil {
			return nil, nil, fmt.Errorf("lnurl: check pin consumption: %w", err)
		}
		if consumed {
			return nil, nil, payment.ErrAlreadyConsumed
		}
	}
	return sw, p, nil
}

// pinAmountMsat resolves the pin's configured price to millisatoshis,
// converting through the rate service for fiat-denominated devices.
func (b *Builder) pinAmountMsat(ctx context.Context, sw *device.Switch, p *device.Pin) (int64, error) {
	if sw.Currency == device.NativeCurrency {
		return int64(p.Amount * 1000), nil
	}
	msat, err := b.rates.FiatToMsat(ctx, p.Amount, sw.Currency)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	return msat, nil
}

func (b *Builder) checkAmount(sw *device.Switch, p *device.Pin, baseMsat, amountMsat int64) error {
	if amountMsat <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrPolicyViolation)
	}
	if p.Variable {
		max := baseMsat * int64(b.opts.VariableMaxRatio)
		if amountMsat < baseMsat || amountMsat > max {
			return fmt.Errorf("%w: amount %d outside [%d, %d]", ErrPolicyViolation, amountMsat, baseMsat, max)
		}
		return nil
	}
	if sw.Currency != device.NativeCurrency {
		// Rates drift between the metadata step and the callback; allow a
		// narrow band around the freshly converted price.
		diff := amountMsat - baseMsat
		if diff < 0 {
			diff = -diff
		}
		if float64(diff) > float64(baseMsat)*fiatTolerance {
			return fmt.Errorf("%w: amount %d does not match price %d", ErrPolicyViolation, amountMsat, baseMsat)
		}
		return nil
	}
	if amountMsat != baseMsat {
		return fmt.Errorf("%w: amount %d does not match price %d", ErrPolicyViolation, amountMsat, baseMsat)
	}
	return nil
}

func (b *Builder) checkComment(p *device.Pin, comment string) error {
	if comment == "" {
		return nil
	}
	if !p.Comment {
		return fmt.Errorf("%w: pin does not accept comments", ErrPolicyViolation)
	}
	if len(comment) > b.opts.MaxCommentLength {
		return fmt.Errorf("%w: comment exceeds %d characters", ErrPolicyViolation, b.opts.MaxCommentLength)
	}
	return nil
}

func (b *Builder) checkAsset(p *device.Pin, assetID string) error {
	if assetID == "" {
		return nil
	}
	if !p.AcceptsAssets {
		return fmt.Errorf("%w: pin does not accept asset settlement", ErrPolicyViolation)
	}
	if err := b.assets.Check(assetID, p.AcceptedAssets); err != nil {
		return fmt.Errorf("%w: %v", ErrPolicyViolation, err)
	}
	return nil
}

// metadata renders the LNURL-pay metadata array. Both steps must produce
// the identical string: the invoice description hash commits to it.
func metadata(sw *device.Switch, p *device.Pin) string {
	text := sw.Title
	if p.Label != "" {
		text = fmt.Sprintf("%s: %s", sw.Title, p.Label)
	}
	raw, _ := json.Marshal([][]string{{"text/plain", text}})
	return string(raw)
}
