// Bitswitch Core - Lightning payment-to-trigger engine
//
// This is the main entry point for the Bitswitch daemon. It serves the
// public LNURL-pay endpoints that payer wallets hit, correlates settled
// payments from the wallet backend feed to trigger tokens, and pushes
// trigger events to switch devices over WebSocket (and optionally MQTT).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/bitswitch-core/migrations"

	"github.com/nerrad567/bitswitch-core/internal/api"
	"github.com/nerrad567/bitswitch-core/internal/assets"
	"github.com/nerrad567/bitswitch-core/internal/audit"
	"github.com/nerrad567/bitswitch-core/internal/device"
	"github.com/nerrad567/bitswitch-core/internal/infrastructure/config"
	"github.com/nerrad567/bitswitch-core/internal/infrastructure/database"
	"github.com/nerrad567/bitswitch-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/bitswitch-core/internal/infrastructure/logging"
	"github.com/nerrad567/bitswitch-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/bitswitch-core/internal/lnurl"
	"github.com/nerrad567/bitswitch-core/internal/payment"
	"github.com/nerrad567/bitswitch-core/internal/rates"
	"github.com/nerrad567/bitswitch-core/internal/session"
	"github.com/nerrad567/bitswitch-core/internal/trigger"
	"github.com/nerrad567/bitswitch-core/internal/wallet"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Bitswitch Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Switch registry over the durable store
	deviceRepo := device.NewSQLiteRepository(db.DB)
	registry := device.NewRegistry(deviceRepo)
	registry.SetLogger(log)
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading switch registry: %w", refreshErr)
	}
	log.Info("switch registry initialised", "switches", registry.Count())

	paymentRepo := payment.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	// Trigger tokens live in memory only; a restart invalidates whatever
	// was outstanding, which is the correct failure mode for unpaid invoices.
	tokens := payment.NewTokenStore(time.Duration(cfg.LNURL.TokenTTL) * time.Second)
	locks := payment.NewPinLocks()

	sessions := session.NewRegistry(cfg.WebSocket.SendBufferSize)
	sessions.SetLogger(log)

	// Wallet backend: invoice creation plus the settlement feed.
	walletClient := wallet.NewClient(cfg.Wallet.URL, cfg.Wallet.APIKey,
		time.Duration(cfg.Wallet.Timeout)*time.Second)
	walletClient.SetLogger(log)

	// Fiat rate source; only consulted for switches priced in fiat.
	rateService := rates.NewService(cfg.Rates.URL,
		time.Duration(cfg.Rates.Timeout)*time.Second,
		time.Duration(cfg.Rates.Validity)*time.Second)
	rateService.SetLogger(log)

	assetResolver := assets.NewResolver(cfg.Assets.Enabled, cfg.Assets.Allowed)

	builder := lnurl.NewBuilder(registry, paymentRepo, tokens, walletClient, rateService, assetResolver,
		lnurl.Options{
			PublicURL:        cfg.API.PublicURL,
			MaxCommentLength: cfg.LNURL.MaxCommentLength,
			VariableMaxRatio: cfg.LNURL.VariableMaxRatio,
		})
	builder.SetLogger(log)

	// Optional MQTT trigger publisher
	var mqttClient *mqtt.Client
	var publisher trigger.Publisher
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			mqttClient.Disconnect()
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		publisher = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// Optional InfluxDB telemetry
	var influxClient *influxdb.Client
	var recorder trigger.Recorder
	if cfg.Telemetry.Enabled {
		influxClient, err = influxdb.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.Telemetry.URL,
			"org", cfg.Telemetry.Org,
			"bucket", cfg.Telemetry.Bucket,
		)
		recorder = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	dispatcher := trigger.NewDispatcher(sessions, publisher, recorder)
	dispatcher.SetLogger(log)

	correlator := trigger.NewCorrelator(tokens, registry, paymentRepo, locks, dispatcher)
	correlator.SetLogger(log)
	if influxClient != nil {
		correlator.SetRecorder(influxClient)
	}

	// Settlement feed from the wallet backend. Every settled payment on
	// the wallet flows through here; the correlator picks out the ones
	// carrying a live trigger token.
	listener := wallet.NewListener(cfg.Wallet.URL, cfg.Wallet.APIKey,
		time.Duration(cfg.Wallet.Reconnect.InitialDelay)*time.Second,
		time.Duration(cfg.Wallet.Reconnect.MaxDelay)*time.Second,
		func(ev wallet.SettlementEvent) {
			correlator.HandleSettlement(ctx, ev)
		})
	listener.SetLogger(log)

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log,
		Registry:   registry,
		Payments:   paymentRepo,
		Builder:    builder,
		Correlator: correlator,
		Sessions:   sessions,
		Audit:      auditRepo,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Background loops: token expiry janitor and the settlement feed.
	// Both exit on context cancellation; a feed failure beyond the
	// reconnect policy takes the daemon down rather than running deaf.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tokens.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return listener.Run(gctx)
	})

	log.Info("initialisation complete, waiting for shutdown signal")

	err = g.Wait()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("settlement feed: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")
	log.Info("Bitswitch Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses BITSWITCH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BITSWITCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy. The MQTT
// and InfluxDB clients may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil && !mqttClient.IsConnected() {
		return fmt.Errorf("mqtt: not connected")
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
