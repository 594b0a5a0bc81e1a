package wallet

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// SettlementEvent is one settled incoming payment reported by the
// backend feed. Extra carries whatever the invoice was created with.
type SettlementEvent struct {
	PaymentHash string
	AmountMsat  int64
	Extra       map[string]any
}

// settlementMessage is the backend feed wire shape. The feed also emits
// wallet balance updates, which decode with a nil Payment and are skipped.
type settlementMessage struct {
	Payment *struct {
		PaymentHash string         `json:"payment_hash"`
		Amount      int64          `json:"amount"` // msat, negative for outgoing
		Pending     bool           `json:"pending"`
		Extra       map[string]any `json:"extra"`
	} `json:"payment"`
}

// Listener consumes the wallet backend settlement feed over WebSocket
// and hands each settled incoming payment to the handler. It reconnects
// with exponential backoff and never gives up until the context ends.
type Listener struct {
	url          string
	dialer       *websocket.Dialer
	handler      func(SettlementEvent)
	initialDelay time.Duration
	maxDelay     time.Duration
	logger       Logger
}

// NewListener creates a settlement feed listener. baseURL is the wallet
// backend HTTP base; the feed endpoint is derived from it.
func NewListener(baseURL, apiKey string, initialDelay, maxDelay time.Duration, handler func(SettlementEvent)) *Listener {
	wsURL := strings.Replace(strings.TrimRight(baseURL, "/"), "http", "ws", 1)
	return &Listener{
		url:          wsURL + "/api/v1/ws/" + apiKey,
		dialer:       &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		handler:      handler,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		logger:       noopLogger{},
	}
}

// SetLogger sets the logger for the listener.
func (l *Listener) SetLogger(logger Logger) {
	l.logger = logger
}

// Run connects to the feed and blocks until ctx is cancelled. Connection
// loss is logged and retried; events arriving while disconnected are
// missed, which the token redemption layer tolerates by TTL expiry.
func (l *Listener) Run(ctx context.Context) error {
	delay := l.initialDelay

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
		if err != nil {
			l.logger.Warn("settlement feed connect failed", "error", err, "retry_in", delay.String())
			if !sleepCtx(ctx, delay) {
				return ctx.Err()
			}
			delay = nextDelay(delay, l.maxDelay)
			continue
		}

		l.logger.Info("settlement feed connected")
		delay = l.initialDelay

		err = l.consume(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("settlement feed disconnected", "error", err, "retry_in", delay.String())
		if !sleepCtx(ctx, delay) {
			return ctx.Err()
		}
		delay = nextDelay(delay, l.maxDelay)
	}
}

// consume reads feed messages until the connection breaks or ctx ends.
func (l *Listener) consume(ctx context.Context, conn *websocket.Conn) error {
	// Unblock the blocking read when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg settlementMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			l.logger.Debug("settlement feed message skipped", "error", err)
			continue
		}
		p := msg.Payment
		if p == nil || p.Pending || p.Amount <= 0 {
			continue
		}

		l.handler(SettlementEvent{
			PaymentHash: p.PaymentHash,
			AmountMsat:  p.Amount,
			Extra:       p.Extra,
		})
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
