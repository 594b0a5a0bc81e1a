package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/bitswitch-core/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.TelemetryConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestDisconnectedClientIsInert(t *testing.T) {
	c := &Client{}

	// Writes on a never-connected client must be silent no-ops.
	c.RecordTrigger("dev-1", 4, 1, 21_000)
	c.RecordSettlement("dev-1", 4, 21_000, "")
	c.WritePoint("m", nil, map[string]interface{}{"v": 1})
	c.Flush()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
