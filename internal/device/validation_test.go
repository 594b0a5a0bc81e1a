package device

import (
	"errors"
	"strings"
	"testing"
)

func validSwitch() *Switch {
	return &Switch{
		Title:    "Jukebox",
		WalletID: "wallet-1",
		Currency: NativeCurrency,
		Pins: []Pin{
			{Pin: 0, Amount: 21, Duration: 30000},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Switch)
		wantMsg string // empty means valid
	}{
		{
			name:   "valid switch",
			mutate: func(*Switch) {},
		},
		{
			name:   "valid fiat currency",
			mutate: func(s *Switch) { s.Currency = "eur" },
		},
		{
			name:   "no pins is allowed",
			mutate: func(s *Switch) { s.Pins = nil },
		},
		{
			name:    "missing title",
			mutate:  func(s *Switch) { s.Title = "" },
			wantMsg: "title is required",
		},
		{
			name:   "missing wallet falls back to deployment key",
			mutate: func(s *Switch) { s.WalletID = "" },
		},
		{
			name:    "bad currency",
			mutate:  func(s *Switch) { s.Currency = "EURO" },
			wantMsg: "currency",
		},
		{
			name: "duplicate pin numbers",
			mutate: func(s *Switch) {
				s.Pins = append(s.Pins, Pin{Pin: 0, Amount: 1, Duration: 100})
			},
			wantMsg: "duplicate pin",
		},
		{
			name:    "negative pin",
			mutate:  func(s *Switch) { s.Pins[0].Pin = -1 },
			wantMsg: "negative",
		},
		{
			name:    "zero amount",
			mutate:  func(s *Switch) { s.Pins[0].Amount = 0 },
			wantMsg: "amount must be positive",
		},
		{
			name:    "zero duration",
			mutate:  func(s *Switch) { s.Pins[0].Duration = 0 },
			wantMsg: "duration must be positive",
		},
		{
			name:    "excessive duration",
			mutate:  func(s *Switch) { s.Pins[0].Duration = maxDurationMs + 1 },
			wantMsg: "duration exceeds",
		},
		{
			name: "asset ids without accepts_assets",
			mutate: func(s *Switch) {
				s.Pins[0].AcceptedAssets = []string{"asset-a"}
			},
			wantMsg: "accepts_assets is false",
		},
		{
			name: "empty asset id",
			mutate: func(s *Switch) {
				s.Pins[0].AcceptsAssets = true
				s.Pins[0].AcceptedAssets = []string{""}
			},
			wantMsg: "empty asset id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSwitch()
			tt.mutate(s)

			err := Validate(s)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() should have failed")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v should wrap ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestFindPin(t *testing.T) {
	s := validSwitch()
	s.Pins = append(s.Pins, Pin{Pin: 7, Amount: 1, Duration: 100})

	if p := s.FindPin(7); p == nil || p.Pin != 7 {
		t.Errorf("FindPin(7) = %+v", p)
	}
	if p := s.FindPin(3); p != nil {
		t.Errorf("FindPin(3) = %+v, want nil", p)
	}
}

func TestAcceptsAsset(t *testing.T) {
	p := Pin{AcceptsAssets: true, AcceptedAssets: []string{"a", "b"}}
	if !p.AcceptsAsset("a") {
		t.Error("AcceptsAsset(a) = false, want true")
	}
	if p.AcceptsAsset("c") {
		t.Error("AcceptsAsset(c) = true, want false")
	}

	off := Pin{AcceptedAssets: []string{"a"}}
	if off.AcceptsAsset("a") {
		t.Error("AcceptsAsset must be false when accepts_assets is off")
	}
}
