package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks every configuration problem detected at startup.
var ErrInvalidConfig = errors.New("invalid config")

// Load reads the YAML file at configPath, applies DIY_* environment overrides
// and validates the result.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML on top of the defaults.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env == "development" }

// Validate checks the settings every component relies on.
func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d, expected 1-65535", ErrInvalidConfig, c.Port)
	}
	if c.Database.DSN == "" && (c.Database.Port < 1 || c.Database.Port > 65535) {
		return fmt.Errorf("%w: database.port %d, expected 1-65535", ErrInvalidConfig, c.Database.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("%w: redis.db %d, expected >= 0", ErrInvalidConfig, c.Redis.DB)
	}
	if c.DefaultURL == "" {
		return fmt.Errorf("%w: default_url is not set", ErrInvalidConfig)
	}
	u, err := url.Parse(c.DefaultURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: default_url %q is not an absolute url", ErrInvalidConfig, c.DefaultURL)
	}
	if c.Mail.From == "" || c.Mail.To == "" {
		return fmt.Errorf("%w: mail.from and mail.to are required", ErrInvalidConfig)
	}
	switch c.Mail.Provider {
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("%w: mail.smtp.host is required for the smtp provider", ErrInvalidConfig)
		}
	case "resend":
		if c.Mail.Resend.APIKey == "" {
			return fmt.Errorf("%w: mail.resend.api_key is required for the resend provider", ErrInvalidConfig)
		}
	case "log":
	default:
		return fmt.Errorf("%w: unknown mail.provider %q", ErrInvalidConfig, c.Mail.Provider)
	}
	if c.Mailing.Interval < 0 {
		return fmt.Errorf("%w: mailing.interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Host:    defaultDBHost,
			Port:    defaultDBPort,
			User:    defaultDBUser,
			Name:    defaultDBName,
			Charset: defaultDBCharset,
		},
		Redis: RedisConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Mail: MailConfig{
			SenderName: defaultSenderName,
			Provider:   defaultMailer,
			SMTP: SMTPConfig{
				Port:    defaultSMTPPort,
				Timeout: 10 * time.Second,
			},
		},
		Mailing: MailingConfig{
			Interval:     24 * time.Hour,
			DefaultLimit: defaultDigestLimit,
			LockTTL:      10 * time.Minute,
		},
		Locales: LocalesConfig{
			Default:   defaultLocale,
			Supported: []string{defaultLocale},
		},
	}
}

func applyEnv(cfg *AppConfig) error {
	var ov envOverrides
	if err := envconfig.Process(EnvPrefix, &ov); err != nil {
		return fmt.Errorf("%w: env: %v", ErrInvalidConfig, err)
	}
	setString(&cfg.Env, ov.Env)
	if ov.Port != 0 {
		cfg.Port = ov.Port
	}
	setString(&cfg.DefaultURL, ov.DefaultURL)
	setString(&cfg.Database.DSN, ov.DSN)
	setString(&cfg.Redis.URL, ov.RedisURL)
	setString(&cfg.JWTSecret, ov.JWTSecret)
	setString(&cfg.Mail.From, ov.EmailFrom)
	setString(&cfg.Mail.To, ov.EmailTo)
	setString(&cfg.Mail.SMTP.Host, ov.SMTPHost)
	setString(&cfg.Mail.SMTP.User, ov.SMTPUser)
	setString(&cfg.Mail.SMTP.Pass, ov.SMTPPassword)
	setString(&cfg.Mail.Resend.APIKey, ov.ResendAPIKey)
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
