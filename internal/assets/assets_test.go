package assets

import (
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		allowed     []string
		assetID     string
		pinAccepted []string
		wantErr     error
	}{
		{
			name:    "bitcoin settlement bypasses policy",
			enabled: false,
			assetID: "",
			wantErr: nil,
		},
		{
			name:    "asset while disabled",
			enabled: false,
			assetID: "usdt",
			wantErr: ErrDisabled,
		},
		{
			name:    "enabled, empty allow-list admits any",
			enabled: true,
			assetID: "usdt",
			wantErr: nil,
		},
		{
			name:    "enabled, asset in allow-list",
			enabled: true,
			allowed: []string{"usdt", "lbtc"},
			assetID: "usdt",
			wantErr: nil,
		},
		{
			name:    "enabled, asset outside allow-list",
			enabled: true,
			allowed: []string{"usdt"},
			assetID: "lbtc",
			wantErr: ErrNotAllowed,
		},
		{
			name:        "pin accepts the asset",
			enabled:     true,
			assetID:     "usdt",
			pinAccepted: []string{"usdt"},
			wantErr:     nil,
		},
		{
			name:        "pin rejects the asset",
			enabled:     true,
			assetID:     "lbtc",
			pinAccepted: []string{"usdt"},
			wantErr:     ErrNotAllowed,
		},
		{
			name:        "deployment list passes, pin list rejects",
			enabled:     true,
			allowed:     []string{"usdt", "lbtc"},
			assetID:     "lbtc",
			pinAccepted: []string{"usdt"},
			wantErr:     ErrNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.enabled, tt.allowed)
			err := r.Check(tt.assetID, tt.pinAccepted)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	if NewResolver(false, nil).Enabled() {
		t.Error("Enabled() = true, want false")
	}
	if !NewResolver(true, nil).Enabled() {
		t.Error("Enabled() = false, want true")
	}
}
