package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const minimalYAML = `
default_url: https://diy.org.ua
mail:
  from: noreply@diy.org.ua
  to: team@diy.org.ua
  provider: log
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	require.Equal(t, defaultPort, cfg.Port)
	require.Equal(t, "development", cfg.Env)
	require.True(t, cfg.IsDev())
	require.Equal(t, "https://diy.org.ua/", cfg.DefaultURL)
	require.Equal(t, 24*time.Hour, cfg.Mailing.Interval)
	require.Equal(t, defaultDigestLimit, cfg.Mailing.DefaultLimit)
	require.Equal(t, "uk", cfg.Locales.Default)
	require.Contains(t, cfg.Locales.Supported, "uk")
	require.Equal(t, defaultSenderName, cfg.Mail.SenderName)
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	require.True(t, strings.HasPrefix(cfg.DSN, "root@tcp(127.0.0.1:3306)/diy?"), cfg.DSN)
	require.Contains(t, cfg.DSN, "parseTime=true")
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(minimalYAML + "unknown_key: 1\n"))
	require.Error(t, err)
}

func TestParseRequiresMailAddresses(t *testing.T) {
	_, err := Parse([]byte("default_url: https://diy.org.ua\nmail:\n  provider: log\n"))
	require.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
}

func TestParseRequiresDefaultURL(t *testing.T) {
	_, err := Parse([]byte("mail:\n  from: a@b.c\n  to: d@e.f\n  provider: log\n"))
	require.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)

	_, err = Parse([]byte("default_url: not-a-url\nmail:\n  from: a@b.c\n  to: d@e.f\n  provider: log\n"))
	require.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
}

func TestParseSMTPNeedsHost(t *testing.T) {
	_, err := Parse([]byte("default_url: https://diy.org.ua\nmail:\n  from: a@b.c\n  to: d@e.f\n"))
	require.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("DIY_EMAIL_FROM", "override@diy.org.ua")
	t.Setenv("DIY_DSN", "user:pass@tcp(db:3306)/diy?parseTime=true")
	t.Setenv("DIY_ENV", "prod")

	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)
	require.Equal(t, "override@diy.org.ua", cfg.Mail.From)
	require.Equal(t, "user:pass@tcp(db:3306)/diy?parseTime=true", cfg.DSN)
	require.Equal(t, "production", cfg.Env)
	require.False(t, cfg.IsDev())
}

func TestParseDurations(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + "mailing:\n  interval: 6h\n  lock_ttl: 90s\n  default_limit: 3\n"))
	require.NoError(t, err)
	require.Equal(t, 6*time.Hour, cfg.Mailing.Interval)
	require.Equal(t, 90*time.Second, cfg.Mailing.LockTTL)
	require.Equal(t, 3, cfg.Mailing.DefaultLimit)
}

func TestRedisURLValue(t *testing.T) {
	require.Equal(t, "rediss://:secret@cache:6380/2",
		RedisConfig{Host: "cache", Port: 6380, DB: 2, Password: "secret", TLS: true}.URLValue())
	require.Equal(t, "redis://cache:6379/1", RedisConfig{URL: "cache:6379/1"}.URLValue())
}

func TestParseRedisDisabled(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + "redis:\n  disabled: true\n"))
	require.NoError(t, err)
	require.Empty(t, cfg.RedisURL)
}
