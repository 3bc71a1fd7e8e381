package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. It is loaded from an optional
// YAML file and then overridden by environment variables.
type Config struct {
	Server     Server     `yaml:"server"`
	Face       Face       `yaml:"face"`
	Ledger     Ledger     `yaml:"ledger"`
	Enrollment Enrollment `yaml:"enrollment"`
	Journal    Journal    `yaml:"journal"`
	Admin      Admin      `yaml:"admin"`
	Payment    Payment    `yaml:"payment"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `yaml:"addr"`
	Environment    string        `yaml:"environment"`
	LogLevel       string        `yaml:"log_level"`
	MaxPhotoBytes  int64         `yaml:"max_photo_bytes"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	TrustedProxies []string      `yaml:"trusted_proxies"`
}

// Face selects and configures the face identity resolver.
type Face struct {
	Mode          string        `yaml:"mode"` // luxand | memory
	LuxandBaseURL string        `yaml:"luxand_base_url"`
	LuxandToken   string        `yaml:"luxand_api_token"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Ledger selects and configures the ledger client.
type Ledger struct {
	Mode            string        `yaml:"mode"` // aptos | memory
	Network         string        `yaml:"network"`
	NodeURL         string        `yaml:"node_url"`
	FaucetURL       string        `yaml:"faucet_url"`
	ExplorerURL     string        `yaml:"explorer_url"`
	AdminPrivateKey string        `yaml:"admin_private_key"`
	PackageAddress  string        `yaml:"package_address"`
	Timeout         time.Duration `yaml:"timeout"`
	ConfirmTimeout  time.Duration `yaml:"confirm_timeout"`
}

// Enrollment selects the enrollment store backend.
type Enrollment struct {
	Store    string `yaml:"store"` // memory | redis
	RedisURL string `yaml:"redis_url"`
}

// Journal configures where terminal payment outcomes are recorded.
type Journal struct {
	DatabaseURL  string   `yaml:"database_url"`
	Sink         string   `yaml:"sink"` // none | kafka | amqp
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	AMQPURL      string   `yaml:"amqp_url"`
	AMQPExchange string   `yaml:"amqp_exchange"`
}

// Admin configures admin route authentication.
type Admin struct {
	JWTSigningKey string        `yaml:"jwt_signing_key"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
}

// Payment configures payment request handling.
type Payment struct {
	RequestIDTTL time.Duration `yaml:"request_id_ttl"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":8080",
			Environment:    "development",
			LogLevel:       "info",
			MaxPhotoBytes:  10 << 20,
			RequestTimeout: 60 * time.Second,
		},
		Face: Face{
			Mode:          "luxand",
			LuxandBaseURL: "https://api.luxand.cloud",
			Timeout:       15 * time.Second,
		},
		Ledger: Ledger{
			Mode:        "aptos",
			Network:     "devnet",
			ExplorerURL:    "https://explorer.aptoslabs.com",
			Timeout:        30 * time.Second,
			ConfirmTimeout: 60 * time.Second,
		},
		Enrollment: Enrollment{Store: "memory"},
		Journal: Journal{
			Sink:         "none",
			KafkaTopic:   "facepay.payment-outcomes",
			AMQPExchange: "facepay.payments",
		},
		Admin:   Admin{TokenTTL: time.Hour},
		Payment: Payment{RequestIDTTL: 24 * time.Hour},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// FACEPAY_CONFIG (if set), then environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("FACEPAY_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg, os.Getenv)
	cfg.Ledger.applyNetworkDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 - operator supplied path
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	setString(getenv, "FACEPAY_ADDR", &cfg.Server.Addr)
	setString(getenv, "FACEPAY_ENV", &cfg.Server.Environment)
	setString(getenv, "LOG_LEVEL", &cfg.Server.LogLevel)
	setInt64(getenv, "MAX_PHOTO_BYTES", &cfg.Server.MaxPhotoBytes)
	setDuration(getenv, "REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	setList(getenv, "TRUSTED_PROXIES", &cfg.Server.TrustedProxies)

	setString(getenv, "FACE_MODE", &cfg.Face.Mode)
	setString(getenv, "LUXAND_BASE_URL", &cfg.Face.LuxandBaseURL)
	setString(getenv, "LUXAND_API_TOKEN", &cfg.Face.LuxandToken)
	setDuration(getenv, "FACE_TIMEOUT", &cfg.Face.Timeout)

	setString(getenv, "LEDGER_MODE", &cfg.Ledger.Mode)
	setString(getenv, "APTOS_NETWORK", &cfg.Ledger.Network)
	setString(getenv, "APTOS_NODE_URL", &cfg.Ledger.NodeURL)
	setString(getenv, "APTOS_FAUCET_URL", &cfg.Ledger.FaucetURL)
	setString(getenv, "APTOS_PRIVATE_KEY", &cfg.Ledger.AdminPrivateKey)
	setString(getenv, "APTOS_PACKAGE_ADDRESS", &cfg.Ledger.PackageAddress)
	setDuration(getenv, "LEDGER_TIMEOUT", &cfg.Ledger.Timeout)
	setDuration(getenv, "LEDGER_CONFIRM_TIMEOUT", &cfg.Ledger.ConfirmTimeout)

	setString(getenv, "ENROLLMENT_STORE", &cfg.Enrollment.Store)
	setString(getenv, "REDIS_URL", &cfg.Enrollment.RedisURL)

	setString(getenv, "DATABASE_URL", &cfg.Journal.DatabaseURL)
	setString(getenv, "OUTCOME_SINK", &cfg.Journal.Sink)
	setList(getenv, "KAFKA_BROKERS", &cfg.Journal.KafkaBrokers)
	setString(getenv, "KAFKA_OUTCOME_TOPIC", &cfg.Journal.KafkaTopic)
	setString(getenv, "AMQP_URL", &cfg.Journal.AMQPURL)
	setString(getenv, "AMQP_EXCHANGE", &cfg.Journal.AMQPExchange)

	setString(getenv, "ADMIN_JWT_SIGNING_KEY", &cfg.Admin.JWTSigningKey)
	setDuration(getenv, "ADMIN_TOKEN_TTL", &cfg.Admin.TokenTTL)

	setDuration(getenv, "REQUEST_ID_TTL", &cfg.Payment.RequestIDTTL)
}

// applyNetworkDefaults fills node and faucet URLs for the public networks.
func (l *Ledger) applyNetworkDefaults() {
	switch l.Network {
	case "devnet", "testnet", "mainnet":
		if l.NodeURL == "" {
			l.NodeURL = fmt.Sprintf("https://fullnode.%s.aptoslabs.com/v1", l.Network)
		}
		if l.FaucetURL == "" && l.Network != "mainnet" {
			l.FaucetURL = fmt.Sprintf("https://faucet.%s.aptoslabs.com", l.Network)
		}
	}
}

// Validate rejects inconsistent combinations.
func (c Config) Validate() error {
	var errs []error
	if !oneOf(c.Face.Mode, "luxand", "memory") {
		errs = append(errs, fmt.Errorf("face mode %q must be luxand or memory", c.Face.Mode))
	}
	if c.Face.Mode == "luxand" && c.Face.LuxandToken == "" {
		errs = append(errs, errors.New("LUXAND_API_TOKEN is required when face mode is luxand"))
	}
	if !oneOf(c.Ledger.Mode, "aptos", "memory") {
		errs = append(errs, fmt.Errorf("ledger mode %q must be aptos or memory", c.Ledger.Mode))
	}
	if c.Ledger.Mode == "aptos" && c.Ledger.NodeURL == "" {
		errs = append(errs, fmt.Errorf("APTOS_NODE_URL is required for network %q", c.Ledger.Network))
	}
	if !oneOf(c.Enrollment.Store, "memory", "redis") {
		errs = append(errs, fmt.Errorf("enrollment store %q must be memory or redis", c.Enrollment.Store))
	}
	if c.Enrollment.Store == "redis" && c.Enrollment.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required when enrollment store is redis"))
	}
	switch c.Journal.Sink {
	case "", "none":
	case "kafka":
		if len(c.Journal.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when outcome sink is kafka"))
		}
	case "amqp":
		if c.Journal.AMQPURL == "" {
			errs = append(errs, errors.New("AMQP_URL is required when outcome sink is amqp"))
		}
	default:
		errs = append(errs, fmt.Errorf("outcome sink %q must be none, kafka or amqp", c.Journal.Sink))
	}
	if c.Server.MaxPhotoBytes <= 0 {
		errs = append(errs, errors.New("MAX_PHOTO_BYTES must be positive"))
	}
	if c.Payment.RequestIDTTL <= 0 {
		errs = append(errs, errors.New("REQUEST_ID_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// AdminConfigured reports whether the ledger admin credential is set.
func (l Ledger) AdminConfigured() bool {
	return strings.TrimSpace(l.AdminPrivateKey) != ""
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(getenv func(string) string, key string, dst *time.Duration) {
	if v := getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setInt64(getenv func(string) string, key string, dst *int64) {
	if v := getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setList(getenv func(string) string, key string, dst *[]string) {
	v := getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
