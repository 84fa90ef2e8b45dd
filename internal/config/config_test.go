package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "telemetry-board", cfg.App.Name)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Scheduler.Assets)
	assert.Equal(t, 300, cfg.Scheduler.FetchIntervalSeconds)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 60, cfg.Alerting.WindowMinutes)
	assert.Equal(t, 5.0, cfg.Alerting.ThresholdPct)
	assert.Equal(t, 30, cfg.Retention.Days)
	assert.Equal(t, 86400, cfg.Retention.IntervalSeconds)
	assert.Equal(t, 168, cfg.Seed.Hours)
	assert.Equal(t, 300, cfg.Seed.IntervalSeconds)
	assert.Equal(t, ":8080", cfg.Server.Listen)
}

func TestLoadBareEnvAliases(t *testing.T) {
	t.Setenv("ASSETS", "SOL,ADA")
	t.Setenv("FETCH_INTERVAL_SECONDS", "60")
	t.Setenv("ENABLE_BEAT", "true")
	t.Setenv("ALERT_WINDOW_MINUTES", "90")
	t.Setenv("ALERT_THRESHOLD_PCT", "7.5")
	t.Setenv("RETENTION_DAYS", "10")
	t.Setenv("DATABASE_URL", "postgres://localhost/telemetry")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"SOL", "ADA"}, cfg.Scheduler.Assets)
	assert.Equal(t, 60, cfg.Scheduler.FetchIntervalSeconds)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 90, cfg.Alerting.WindowMinutes)
	assert.Equal(t, 7.5, cfg.Alerting.ThresholdPct)
	assert.Equal(t, 10, cfg.Retention.Days)
	assert.Equal(t, "postgres://localhost/telemetry", cfg.Database.DSN)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadPrefixedEnvOverrides(t *testing.T) {
	t.Setenv("TELEMETRY_ALERTING_THRESHOLD_PCT", "3.0")
	t.Setenv("TELEMETRY_RETENTION_DAYS", "14")
	t.Setenv("TELEMETRY_SERVER_LISTEN", ":9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.Alerting.ThresholdPct)
	assert.Equal(t, 14, cfg.Retention.Days)
	assert.Equal(t, ":9090", cfg.Server.Listen)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("ALERT_WINDOW_MINUTES", "0")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsIncompleteTelegram(t *testing.T) {
	t.Setenv("TELEMETRY_ALERTING_TELEGRAM_ENABLED", "true")

	_, err := Load("")
	assert.Error(t, err)
}

func TestSchedulerFetchInterval(t *testing.T) {
	c := SchedulerConfig{FetchIntervalSeconds: 300}
	assert.Equal(t, "5m0s", c.FetchInterval().String())

	r := RetentionConfig{IntervalSeconds: 86400}
	assert.Equal(t, "24h0m0s", r.Interval().String())
}
