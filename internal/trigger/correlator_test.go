package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/bitswitch-core/internal/device"
	"github.com/nerrad567/bitswitch-core/internal/payment"
	"github.com/nerrad567/bitswitch-core/internal/session"
	"github.com/nerrad567/bitswitch-core/internal/wallet"
)

type fakeDeviceRepo struct {
	switches map[string]*device.Switch
}

func (f *fakeDeviceRepo) GetByID(_ context.Context, id string) (*device.Switch, error) {
	s, ok := f.switches[id]
	if !ok {
		return nil, device.ErrNotFound
	}
	return s.Clone(), nil
}

func (f *fakeDeviceRepo) List(_ context.Context) ([]device.Switch, error) {
	out := make([]device.Switch, 0, len(f.switches))
	for _, s := range f.switches {
		out = append(out, *s.Clone())
	}
	return out, nil
}

func (f *fakeDeviceRepo) Create(_ context.Context, s *device.Switch) error {
	f.switches[s.ID] = s.Clone()
	return nil
}

func (f *fakeDeviceRepo) Update(_ context.Context, s *device.Switch) error {
	f.switches[s.ID] = s.Clone()
	return nil
}

func (f *fakeDeviceRepo) Delete(_ context.Context, id string) error {
	delete(f.switches, id)
	return nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	consumed map[string]bool
	settled  map[string]int64
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		consumed: make(map[string]bool),
		settled:  make(map[string]int64),
	}
}

func (f *fakePaymentRepo) CreatePayment(context.Context, *payment.Payment) error { return nil }

func (f *fakePaymentRepo) SettlePayment(_ context.Context, id string, amountMsat int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settled[id] = amountMsat
	return nil
}

func (f *fakePaymentRepo) ListBySwitch(context.Context, string) ([]payment.Payment, error) {
	return nil, nil
}

func (f *fakePaymentRepo) IsPinConsumed(_ context.Context, switchID string, pin int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.consumed[fmt.Sprintf("%s/%d", switchID, pin)], nil
}

func (f *fakePaymentRepo) ConsumePin(_ context.Context, switchID string, pin int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := fmt.Sprintf("%s/%d", switchID, pin)
	if f.consumed[k] {
		return payment.ErrAlreadyConsumed
	}
	f.consumed[k] = true
	return nil
}

type fixture struct {
	correlator *Correlator
	tokens     *payment.TokenStore
	sessions   *session.Registry
	payments   *fakePaymentRepo
}

func newFixture(t *testing.T, switches ...*device.Switch) *fixture {
	t.Helper()

	repo := &fakeDeviceRepo{switches: make(map[string]*device.Switch)}
	for _, s := range switches {
		repo.switches[s.ID] = s
	}

	f := &fixture{
		tokens:   payment.NewTokenStore(time.Hour),
		sessions: session.NewRegistry(16),
		payments: newFakePaymentRepo(),
	}
	dispatcher := NewDispatcher(f.sessions, nil, nil)
	f.correlator = NewCorrelator(f.tokens, device.NewRegistry(repo), f.payments, payment.NewPinLocks(), dispatcher)
	return f
}

// settle mints a token for the pin and feeds a matching settlement event.
func (f *fixture) settle(t *testing.T, switchID string, pin int, baseMsat, settledMsat int64, comment, assetID string) {
	t.Helper()
	tok, err := f.tokens.Mint(switchID, pin, baseMsat, assetID, comment, "pay-"+tokenSuffix())
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	f.correlator.HandleSettlement(context.Background(), wallet.SettlementEvent{
		PaymentHash: "hash",
		AmountMsat:  settledMsat,
		Extra:       map[string]any{"trigger_token": tok.Token},
	})
}

var suffixCounter int

func tokenSuffix() string {
	suffixCounter++
	return fmt.Sprintf("%d", suffixCounter)
}

func recvWire(t *testing.T, s *session.Session) wireEvent {
	t.Helper()
	select {
	case data := <-s.Send():
		var w wireEvent
		if err := json.Unmarshal(data, &w); err != nil {
			t.Fatalf("unmarshal wire event: %v", err)
		}
		return w
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for trigger event")
		return wireEvent{}
	}
}

func expectNone(t *testing.T, s *session.Session) {
	t.Helper()
	select {
	case data := <-s.Send():
		t.Fatalf("unexpected trigger event %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func fixedSwitch() *device.Switch {
	return &device.Switch{
		ID:       "d1",
		Title:    "Door",
		Currency: device.NativeCurrency,
		Pins:     []device.Pin{{Pin: 0, Amount: 100, Duration: 500}},
	}
}

func TestFixedPinRepeatedSettlements(t *testing.T) {
	f := newFixture(t, fixedSwitch())
	s := f.sessions.Attach("d1")

	for i := 0; i < 2; i++ {
		f.settle(t, "d1", 0, 100_000, 100_000, "", "")
		w := recvWire(t, s)
		if w.Pin != 0 || w.Duration != 500 {
			t.Errorf("event %d = %+v, want pin 0 duration 500", i, w)
		}
	}
}

func TestVariablePinLinearScaling(t *testing.T) {
	sw := &device.Switch{
		ID:       "d3",
		Title:    "Pump",
		Currency: device.NativeCurrency,
		Pins:     []device.Pin{{Pin: 2, Amount: 10, Duration: 1000, Variable: true}},
	}
	f := newFixture(t, sw)
	s := f.sessions.Attach("d3")

	f.settle(t, "d3", 2, 10_000, 25_000, "", "")

	w := recvWire(t, s)
	if w.Duration != 2500 {
		t.Errorf("duration = %d, want 2500 (settled 2.5x base)", w.Duration)
	}
	if w.Amount != 25_000 {
		t.Errorf("amount = %d, want 25000 (settled amount carried)", w.Amount)
	}
}

func TestUnknownTokenIgnored(t *testing.T) {
	f := newFixture(t, fixedSwitch())
	s := f.sessions.Attach("d1")

	f.correlator.HandleSettlement(context.Background(), wallet.SettlementEvent{
		PaymentHash: "hash",
		AmountMsat:  100_000,
		Extra:       map[string]any{"trigger_token": "deadbeef"},
	})
	expectNone(t, s)
}

func TestUnrelatedSettlementIgnored(t *testing.T) {
	f := newFixture(t, fixedSwitch())
	s := f.sessions.Attach("d1")

	f.correlator.HandleSettlement(context.Background(), wallet.SettlementEvent{
		PaymentHash: "hash",
		AmountMsat:  100_000,
		Extra:       nil,
	})
	expectNone(t, s)
}

func TestReplayedTokenNeverRetriggers(t *testing.T) {
	f := newFixture(t, fixedSwitch())
	s := f.sessions.Attach("d1")

	tok, err := f.tokens.Mint("d1", 0, 100_000, "", "", "pay-replay")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	ev := wallet.SettlementEvent{
		PaymentHash: "hash",
		AmountMsat:  100_000,
		Extra:       map[string]any{"trigger_token": tok.Token},
	}

	f.correlator.HandleSettlement(context.Background(), ev)
	recvWire(t, s)

	f.correlator.HandleSettlement(context.Background(), ev)
	expectNone(t, s)
}

func TestNonPositiveSettlementRejected(t *testing.T) {
	f := newFixture(t, fixedSwitch())
	s := f.sessions.Attach("d1")

	f.settle(t, "d1", 0, 100_000, 0, "", "")
	expectNone(t, s)

	// Rejection happens before redemption, so the token stays live.
	if got := f.tokens.Len(); got != 1 {
		t.Errorf("tokens = %d, want 1 (unredeemed)", got)
	}
}

func TestDisabledDeviceDropped(t *testing.T) {
	sw := fixedSwitch()
	sw.Disabled = true
	f := newFixture(t, sw)
	s := f.sessions.Attach("d1")

	f.settle(t, "d1", 0, 100_000, 100_000, "", "")
	expectNone(t, s)
}

func TestSettlementRecordsBookkeeping(t *testing.T) {
	f := newFixture(t, fixedSwitch())
	f.sessions.Attach("d1")

	tok, _ := f.tokens.Mint("d1", 0, 100_000, "", "", "pay-book")
	f.correlator.HandleSettlement(context.Background(), wallet.SettlementEvent{
		AmountMsat: 100_000,
		Extra:      map[string]any{"trigger_token": tok.Token},
	})

	f.payments.mu.Lock()
	got := f.payments.settled["pay-book"]
	f.payments.mu.Unlock()
	if got != 100_000 {
		t.Errorf("settled amount recorded = %d, want 100000", got)
	}
}

func TestDisposablePinSingleWinner(t *testing.T) {
	sw := &device.Switch{
		ID:         "d2",
		Title:      "Locker",
		Currency:   device.NativeCurrency,
		Disposable: true,
		Pins:       []device.Pin{{Pin: 1, Amount: 50, Duration: 800}},
	}
	f := newFixture(t, sw)
	s := f.sessions.Attach("d2")

	// Two invoices were issued before either settled; both settlements
	// arrive concurrently and exactly one may trigger.
	const n = 8
	tokens := make([]*payment.Token, n)
	for i := range tokens {
		tok, err := f.tokens.Mint("d2", 1, 50_000, "", "", fmt.Sprintf("pay-%d", i))
		if err != nil {
			t.Fatalf("Mint() error = %v", err)
		}
		tokens[i] = tok
	}

	var wg sync.WaitGroup
	for _, tok := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			f.correlator.HandleSettlement(context.Background(), wallet.SettlementEvent{
				AmountMsat: 50_000,
				Extra:      map[string]any{"trigger_token": token},
			})
		}(tok.Token)
	}
	wg.Wait()

	recvWire(t, s)
	expectNone(t, s)

	consumed, err := f.payments.IsPinConsumed(context.Background(), "d2", 1)
	if err != nil || !consumed {
		t.Errorf("IsPinConsumed() = %v, %v, want true", consumed, err)
	}
}

func TestWireShapeOptionalFields(t *testing.T) {
	sw := fixedSwitch()
	sw.Pins = []device.Pin{{Pin: 0, Amount: 100, Duration: 500, Comment: true, AcceptsAssets: true, AcceptedAssets: []string{"usdt"}}}
	f := newFixture(t, sw)
	s := f.sessions.Attach("d1")

	f.settle(t, "d1", 0, 100_000, 100_000, "thanks", "usdt")

	select {
	case data := <-s.Send():
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		for _, key := range []string{"pin", "duration", "comment", "amount", "asset"} {
			if _, ok := raw[key]; !ok {
				t.Errorf("wire JSON missing %q: %s", key, data)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}

	// Bare trigger omits the optional fields entirely.
	f.settle(t, "d1", 0, 100_000, 100_000, "", "")
	select {
	case data := <-s.Send():
		var raw map[string]any
		json.Unmarshal(data, &raw)
		for _, key := range []string{"comment", "asset"} {
			if _, ok := raw[key]; ok {
				t.Errorf("wire JSON carries empty %q: %s", key, data)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestManualTrigger(t *testing.T) {
	f := newFixture(t, fixedSwitch())
	s := f.sessions.Attach("d1")

	reached, err := f.correlator.Manual(context.Background(), "d1", 0)
	if err != nil {
		t.Fatalf("Manual() error = %v", err)
	}
	if reached != 1 {
		t.Errorf("Manual() reached = %d, want 1", reached)
	}
	w := recvWire(t, s)
	if w.Pin != 0 || w.Duration != 500 {
		t.Errorf("event = %+v", w)
	}
	if w.Amount != 0 {
		t.Errorf("amount = %d, want 0 for manual trigger", w.Amount)
	}
}

func TestManualTriggerGates(t *testing.T) {
	disabled := fixedSwitch()
	disabled.ID = "off"
	disabled.Disabled = true

	disposable := fixedSwitch()
	disposable.ID = "once"
	disposable.Disposable = true

	f := newFixture(t, fixedSwitch(), disabled, disposable)
	f.sessions.Attach("once")

	if _, err := f.correlator.Manual(context.Background(), "ghost", 0); !errors.Is(err, device.ErrNotFound) {
		t.Errorf("Manual(ghost) error = %v, want ErrNotFound", err)
	}
	if _, err := f.correlator.Manual(context.Background(), "off", 0); !errors.Is(err, device.ErrDisabled) {
		t.Errorf("Manual(off) error = %v, want ErrDisabled", err)
	}
	if _, err := f.correlator.Manual(context.Background(), "d1", 42); !errors.Is(err, device.ErrPinNotFound) {
		t.Errorf("Manual(bad pin) error = %v, want ErrPinNotFound", err)
	}

	// Disposable: first manual trigger consumes, second is rejected.
	if _, err := f.correlator.Manual(context.Background(), "once", 0); err != nil {
		t.Fatalf("Manual(once) error = %v", err)
	}
	if _, err := f.correlator.Manual(context.Background(), "once", 0); !errors.Is(err, payment.ErrAlreadyConsumed) {
		t.Errorf("Manual(once) second error = %v, want ErrAlreadyConsumed", err)
	}
}
