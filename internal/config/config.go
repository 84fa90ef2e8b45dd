package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/adambarczewski00/telemetry-board/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Retention RetentionConfig `mapstructure:"retention"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Server    ServerConfig    `mapstructure:"server"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig points at the optional latest-price cache.
type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

// FetcherConfig covers upstream quote provider access.
type FetcherConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SchedulerConfig governs the periodic job table.
type SchedulerConfig struct {
	Enabled              bool     `mapstructure:"enabled"`
	Assets               []string `mapstructure:"assets"`
	FetchIntervalSeconds int      `mapstructure:"fetch_interval_seconds"`
}

// AlertingConfig defines global alert defaults and notification routing.
type AlertingConfig struct {
	WindowMinutes int            `mapstructure:"window_minutes"`
	ThresholdPct  float64        `mapstructure:"threshold_pct"`
	Telegram      TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the optional Telegram notification channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// RetentionConfig bounds sample lifetime. Days <= 0 disables pruning.
type RetentionConfig struct {
	Days            int `mapstructure:"days"`
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// SeedConfig parameterises synthetic backfill.
type SeedConfig struct {
	Hours           int `mapstructure:"hours"`
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// ServerConfig sets HTTP listener behaviour.
type ServerConfig struct {
	Listen          string `mapstructure:"listen"`
	MetricsEndpoint bool   `mapstructure:"metrics_endpoint"`
}

// FetchInterval returns the fetch cadence as a duration.
func (c SchedulerConfig) FetchInterval() time.Duration {
	return time.Duration(c.FetchIntervalSeconds) * time.Second
}

// Interval returns the retention sweep cadence as a duration.
func (c RetentionConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TELEMETRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "telemetry-board")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.ttl", "5m")

	v.SetDefault("fetcher.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("fetcher.request_timeout", "10s")
	v.SetDefault("fetcher.user_agent", "telemetry-board/1.0")

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.assets", []string{"BTC", "ETH"})
	v.SetDefault("scheduler.fetch_interval_seconds", 300)

	v.SetDefault("alerting.window_minutes", 60)
	v.SetDefault("alerting.threshold_pct", 5.0)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("retention.days", 30)
	v.SetDefault("retention.interval_seconds", 86400)

	v.SetDefault("seed.hours", 168)
	v.SetDefault("seed.interval_seconds", 300)

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.metrics_endpoint", false)
}

// bindLegacyEnv keeps the bare variable names recognised by earlier
// deployments working alongside the TELEMETRY_-prefixed forms.
func bindLegacyEnv(v *viper.Viper) {
	aliases := map[string]string{
		"scheduler.assets":                 "ASSETS",
		"scheduler.fetch_interval_seconds": "FETCH_INTERVAL_SECONDS",
		"scheduler.enabled":                "ENABLE_BEAT",
		"alerting.window_minutes":          "ALERT_WINDOW_MINUTES",
		"alerting.threshold_pct":           "ALERT_THRESHOLD_PCT",
		"retention.days":                   "RETENTION_DAYS",
		"retention.interval_seconds":       "RETENTION_INTERVAL_SECONDS",
		"seed.hours":                       "MOCK_SEED_HOURS",
		"seed.interval_seconds":            "MOCK_SEED_INTERVAL_SECONDS",
		"database.dsn":                     "DATABASE_URL",
		"redis.url":                        "REDIS_URL",
		"server.metrics_endpoint":          "ENABLE_METRICS_ENDPOINT",
	}
	for key, bare := range aliases {
		prefixed := "TELEMETRY_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, bare)
	}
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.FetchIntervalSeconds <= 0 {
		return fmt.Errorf("scheduler.fetch_interval_seconds must be greater than zero")
	}
	if c.Alerting.WindowMinutes <= 0 {
		return fmt.Errorf("alerting.window_minutes must be greater than zero")
	}
	if c.Alerting.ThresholdPct < 0 {
		return fmt.Errorf("alerting.threshold_pct cannot be negative")
	}
	if c.Retention.IntervalSeconds <= 0 {
		return fmt.Errorf("retention.interval_seconds must be greater than zero")
	}
	if c.Seed.Hours <= 0 || c.Seed.IntervalSeconds <= 0 {
		return fmt.Errorf("seed.hours and seed.interval_seconds must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required when telegram is enabled")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}
