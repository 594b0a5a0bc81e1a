package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Bitswitch Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Database  DatabaseConfig  `yaml:"database"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Wallet    WalletConfig    `yaml:"wallet"`
	LNURL     LNURLConfig     `yaml:"lnurl"`
	Rates     RatesConfig     `yaml:"rates"`
	Assets    AssetsConfig    `yaml:"assets"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	PublicURL string           `yaml:"public_url"` // Externally reachable base URL used in LNURL callbacks
	TLS       TLSConfig        `yaml:"tls"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	CORS      CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// WebSocketConfig contains settings for device-facing WebSocket connections.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
	SendBufferSize int `yaml:"send_buffer_size"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT           JWTConfig `yaml:"jwt"`
	AdminPassword string    `yaml:"admin_password"`
}

// JWTConfig contains JWT token settings for operator authentication.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// WalletConfig contains Lightning wallet backend connection settings.
type WalletConfig struct {
	URL       string                `yaml:"url"`
	APIKey    string                `yaml:"api_key"`
	Timeout   int                   `yaml:"timeout"` // seconds, per HTTP call
	Reconnect WalletReconnectConfig `yaml:"reconnect"`
}

// WalletReconnectConfig contains settlement-feed reconnection settings in seconds.
type WalletReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// LNURLConfig contains LNURL-pay responder settings.
type LNURLConfig struct {
	MaxCommentLength int `yaml:"max_comment_length"` // BOLT-11 description limit
	VariableMaxRatio int `yaml:"variable_max_ratio"` // maxSendable = amount * ratio for variable pins
	TokenTTL         int `yaml:"token_ttl"`          // seconds a minted token stays redeemable
}

// RatesConfig contains fiat exchange rate source settings.
type RatesConfig struct {
	URL      string `yaml:"url"`
	Timeout  int    `yaml:"timeout"`  // seconds, per HTTP call
	Validity int    `yaml:"validity"` // seconds a cached quote remains usable
}

// AssetsConfig contains multi-asset settlement settings.
type AssetsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Allowed []string `yaml:"allowed"` // asset ids the backend can settle; empty = any
}

// MQTTConfig contains optional trigger-publisher broker settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// TelemetryConfig contains InfluxDB telemetry settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: BITSWITCH_SECTION_KEY
// For example: BITSWITCH_DATABASE_PATH, BITSWITCH_WALLET_API_KEY
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host:      "0.0.0.0",
			Port:      9090,
			PublicURL: "http://localhost:9090",
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/bitswitch.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    60,
			SendBufferSize: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 60,
			},
		},
		Wallet: WalletConfig{
			URL:     "http://localhost:5000",
			Timeout: 10,
			Reconnect: WalletReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		LNURL: LNURLConfig{
			MaxCommentLength: 639,
			VariableMaxRatio: 360,
			TokenTTL:         3600,
		},
		Rates: RatesConfig{
			URL:      "https://api.coingecko.com/api/v3/simple/price",
			Timeout:  10,
			Validity: 300,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "bitswitch-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Telemetry: TelemetryConfig{
			URL:           "http://localhost:8086",
			Org:           "bitswitch",
			Bucket:        "bitswitch",
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only secrets and deployment-specific values are overridable; everything
// else belongs in the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BITSWITCH_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("BITSWITCH_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("BITSWITCH_API_PUBLIC_URL"); v != "" {
		cfg.API.PublicURL = v
	}
	if v := os.Getenv("BITSWITCH_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BITSWITCH_WALLET_URL"); v != "" {
		cfg.Wallet.URL = v
	}
	if v := os.Getenv("BITSWITCH_WALLET_API_KEY"); v != "" {
		cfg.Wallet.APIKey = v
	}
	if v := os.Getenv("BITSWITCH_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("BITSWITCH_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("BITSWITCH_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
	if v := os.Getenv("BITSWITCH_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
	if v := os.Getenv("BITSWITCH_ADMIN_PASSWORD"); v != "" {
		cfg.Security.AdminPassword = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.PublicURL == "" {
		errs = append(errs, "api.public_url is required (payers must be able to reach the LNURL callback)")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Wallet.URL == "" {
		errs = append(errs, "wallet.url is required")
	}

	if c.LNURL.TokenTTL < 1 {
		errs = append(errs, "lnurl.token_ttl must be positive")
	}
	if c.LNURL.VariableMaxRatio < 1 {
		errs = append(errs, "lnurl.variable_max_ratio must be at least 1")
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// JWT secret is REQUIRED. A forged operator token can trigger physical
	// devices without payment, so an empty or weak secret is a hard error.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set BITSWITCH_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if c.Security.AdminPassword == "" {
		errs = append(errs, "security.admin_password is required (set BITSWITCH_ADMIN_PASSWORD environment variable)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetTokenTTL returns the payment-request token lifetime as a Duration.
func (c *LNURLConfig) GetTokenTTL() time.Duration {
	return time.Duration(c.TokenTTL) * time.Second
}
