package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ChatConfig holds chat transport settings.
type ChatConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// AdminAddr is the single privileged sender address. Catalog mutations and
	// broadcasts are accepted from this address only.
	AdminAddr string `yaml:"admin_addr" envconfig:"CHAT_ADMIN_ADDR"`
	RunMode   string `yaml:"run_mode" envconfig:"CHAT_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"CHAT_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for chat updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for chat updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StoreDriverFile keeps the catalog and ledger in whole-document JSON files.
	StoreDriverFile = "file"
	// StoreDriverPostgres keeps the catalog and ledger in Postgres tables.
	StoreDriverPostgres = "postgres"
)

// RateLimitConfig holds settings for per-sender message throttling.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	// ExcludeAdmin bypasses the limit for the configured admin address so
	// multi-step wizard input is never throttled.
	ExcludeAdmin bool `yaml:"exclude_admin" envconfig:"RATE_LIMIT_EXCLUDE_ADMIN"`
}

// DatabaseConfig holds connection settings for the postgres store backend.
// It mirrors core/database.Config; the bootstrap maps between the two so this
// package stays dependency-free.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// StoreConfig selects the persistence backend for the catalog and ledger.
type StoreConfig struct {
	Driver      string         `yaml:"driver" envconfig:"STORE_DRIVER"`
	CatalogPath string         `yaml:"catalog_path" envconfig:"STORE_CATALOG_PATH"`
	LedgerPath  string         `yaml:"ledger_path" envconfig:"STORE_LEDGER_PATH"`
	Database    DatabaseConfig `yaml:"database"`
}

// PaymentConfig holds Mercado Pago and PIX rendering settings.
type PaymentConfig struct {
	AccessToken string `yaml:"access_token" envconfig:"MP_ACCESS_TOKEN"`
	PayerEmail  string `yaml:"payer_email" envconfig:"MP_PAYER_EMAIL"`
	// NotificationURL is forwarded to the gateway as-is. Nothing in this
	// process listens on it; confirmation stays out-of-band.
	NotificationURL string `yaml:"notification_url" envconfig:"MP_NOTIFICATION_URL"`
	// FallbackContact is shown to buyers when payment creation fails.
	FallbackContact string `yaml:"fallback_contact" envconfig:"PAYMENT_FALLBACK_CONTACT"`
	QRSize          int    `yaml:"qr_size" envconfig:"PAYMENT_QR_SIZE"`
}

// SendConfig controls the outbound dispatcher pacing.
type SendConfig struct {
	// MinIntervalMS is the minimum gap between consecutive outbound sends.
	MinIntervalMS  int `yaml:"min_interval_ms" envconfig:"SEND_MIN_INTERVAL_MS"`
	QueueSize      int `yaml:"queue_size" envconfig:"SEND_QUEUE_SIZE"`
	MaxRetries     int `yaml:"max_retries" envconfig:"SEND_MAX_RETRIES"`
	RetryBackoffMS int `yaml:"retry_backoff_ms" envconfig:"SEND_RETRY_BACKOFF_MS"`
}

// Config aggregates the full bot configuration.
type Config struct {
	Chat      ChatConfig      `yaml:"chat"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Store     StoreConfig     `yaml:"store"`
	Payment   PaymentConfig   `yaml:"payment"`
	Send      SendConfig      `yaml:"send"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Chat.Token == "" {
		return fmt.Errorf("chat token is required")
	}
	if strings.TrimSpace(cfg.Chat.AdminAddr) == "" {
		return fmt.Errorf("chat.admin_addr is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Chat.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when chat.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when chat.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when chat.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Chat.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("chat.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid chat.run_mode %q; allowed: webhook, longpoll", cfg.Chat.RunMode)
	}
	cfg.Chat.RunMode = rm

	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if driver == "" {
		driver = StoreDriverFile
	}
	switch driver {
	case StoreDriverFile:
		if strings.TrimSpace(cfg.Store.CatalogPath) == "" {
			cfg.Store.CatalogPath = "contas.json"
		}
		if strings.TrimSpace(cfg.Store.LedgerPath) == "" {
			cfg.Store.LedgerPath = "pagamentos.json"
		}
	case StoreDriverPostgres:
		if strings.TrimSpace(cfg.Store.Database.Host) == "" {
			return fmt.Errorf("store.database.host is required when store.driver is 'postgres'")
		}
		if strings.TrimSpace(cfg.Store.Database.Name) == "" {
			return fmt.Errorf("store.database.name is required when store.driver is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid store.driver %q; allowed: file, postgres", cfg.Store.Driver)
	}
	cfg.Store.Driver = driver

	if cfg.Payment.AccessToken == "" {
		return fmt.Errorf("payment.access_token is required")
	}
	if cfg.Payment.QRSize <= 0 {
		cfg.Payment.QRSize = 400
	}
	if strings.TrimSpace(cfg.Payment.PayerEmail) == "" {
		cfg.Payment.PayerEmail = "cliente@email.com"
	}

	if cfg.Send.MinIntervalMS < 0 {
		return fmt.Errorf("send.min_interval_ms must be >= 0")
	}
	if cfg.Send.MinIntervalMS == 0 {
		cfg.Send.MinIntervalMS = 500
	}
	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}
	return nil
}
