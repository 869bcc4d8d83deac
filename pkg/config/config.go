package config

import "time"

// Config holds runtime configuration for the exchange bot.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Simplex  SimplexConfig  `mapstructure:"simplex"`
	Bot      BotConfig      `mapstructure:"bot"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level    string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	File     string `mapstructure:"file"`
	MaxSize  int    `mapstructure:"max_size"`
	MaxAge   int    `mapstructure:"max_age"`
	Backups  int    `mapstructure:"backups"`
	Compress bool   `mapstructure:"compress"`
}

// ServerConfig configures the metrics/health HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ExchangeConfig configures the remote exchange REST API client.
type ExchangeConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	APIKey      string        `mapstructure:"api_key"`
	AffiliateID string        `mapstructure:"affiliate_id"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// StatusRetries and StatusRetryDelay bound the order-status fetch
	// retry loop.
	StatusRetries    int           `mapstructure:"status_retries" validate:"omitempty,min=1"`
	StatusRetryDelay time.Duration `mapstructure:"status_retry_delay"`
}

// SimplexConfig configures the local SimpleX CLI process and its
// websocket bridge.
type SimplexConfig struct {
	CLIPath  string        `mapstructure:"cli_path" validate:"required"`
	Database string        `mapstructure:"database" validate:"required"`
	Port     int           `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	PortWait time.Duration `mapstructure:"port_wait"`
}

// BotConfig holds the command-engine and tracker tunables.
type BotConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`

	// CreateAmount is the indicative amount submitted with new orders;
	// the exchange accepts any deposit inside the quoted bounds.
	CreateAmount float64 `mapstructure:"create_amount"`

	ReadyAttempts int           `mapstructure:"ready_attempts"`
	ReadyDelay    time.Duration `mapstructure:"ready_delay"`
	AddressGrace  time.Duration `mapstructure:"address_grace"`

	TrackerInterval time.Duration `mapstructure:"tracker_interval"`
	StallTimeout    time.Duration `mapstructure:"stall_timeout"`
}

// SentryConfig gates error reporting to Sentry.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string `mapstructure:"environment"`
}

// applyDefaults fills zero values with the defaults the original
// deployment ran with.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":9090"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Exchange.Timeout <= 0 {
		c.Exchange.Timeout = 10 * time.Second
	}
	if c.Exchange.StatusRetries <= 0 {
		c.Exchange.StatusRetries = 3
	}
	if c.Exchange.StatusRetryDelay <= 0 {
		c.Exchange.StatusRetryDelay = 2 * time.Second
	}
	if c.Simplex.Port == 0 {
		c.Simplex.Port = 8000
	}
	if c.Simplex.PortWait <= 0 {
		c.Simplex.PortWait = time.Minute
	}
	if c.Bot.Cooldown <= 0 {
		c.Bot.Cooldown = 5 * time.Second
	}
	if c.Bot.CreateAmount <= 0 {
		c.Bot.CreateAmount = 0.001
	}
	if c.Bot.ReadyAttempts <= 0 {
		c.Bot.ReadyAttempts = 5
	}
	if c.Bot.ReadyDelay <= 0 {
		c.Bot.ReadyDelay = 3 * time.Second
	}
	if c.Bot.AddressGrace <= 0 {
		c.Bot.AddressGrace = 15 * time.Second
	}
	if c.Bot.TrackerInterval <= 0 {
		c.Bot.TrackerInterval = 30 * time.Second
	}
	if c.Bot.StallTimeout <= 0 {
		c.Bot.StallTimeout = 30 * time.Minute
	}
}
