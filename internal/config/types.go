package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
// It is built once in main and handed to every component that needs it.
type AppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"` // "development" | "production"
	DefaultURL     string             `yaml:"default_url"`
	Database       DatabaseConfig     `yaml:"database"`
	Redis          RedisConfig        `yaml:"redis"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	JWTSecret      string             `yaml:"jwt_secret"`
	Mail           MailConfig         `yaml:"mail"`
	Mailing        MailingConfig      `yaml:"mailing"`
	Locales        LocalesConfig      `yaml:"locales"`
	Paths          RuntimePathsConfig `yaml:"paths"`

	// Resolved connection strings, never read from YAML directly.
	DSN      string `yaml:"-"`
	RedisURL string `yaml:"-"`
}

type DatabaseConfig struct {
	DSN      string            `yaml:"dsn"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Name     string            `yaml:"name"`
	Charset  string            `yaml:"charset"`
	Params   map[string]string `yaml:"params"`
}

type RedisConfig struct {
	// Disabled turns off the digest lock and request throttling.
	Disabled bool   `yaml:"disabled"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

// MailConfig describes the outgoing mail settings. From and To are mandatory.
type MailConfig struct {
	From       string       `yaml:"from"`
	To         string       `yaml:"to"`
	SenderName string       `yaml:"sender_name"`
	Provider   string       `yaml:"provider"` // smtp | resend | log
	SMTP       SMTPConfig   `yaml:"smtp"`
	Resend     ResendConfig `yaml:"resend"`
}

type SMTPConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	User    string        `yaml:"user"`
	Pass    string        `yaml:"pass"`
	SSL     bool          `yaml:"ssl"`
	Timeout time.Duration `yaml:"timeout"`
}

type ResendConfig struct {
	APIKey string `yaml:"api_key"`
}

// MailingConfig controls the digest job.
type MailingConfig struct {
	Interval     time.Duration `yaml:"interval"` // 0 disables the in-process job
	DefaultLimit int           `yaml:"default_limit"`
	LockTTL      time.Duration `yaml:"lock_ttl"`
}

type LocalesConfig struct {
	Default   string   `yaml:"default"`
	Supported []string `yaml:"supported"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

// envOverrides are read from DIY_* environment variables after the YAML file.
type envOverrides struct {
	Env          string `envconfig:"ENV"`
	Port         int    `envconfig:"PORT"`
	DefaultURL   string `envconfig:"DEFAULT_URL"`
	DSN          string `envconfig:"DSN"`
	RedisURL     string `envconfig:"REDIS_URL"`
	JWTSecret    string `envconfig:"JWT_SECRET"`
	EmailFrom    string `envconfig:"EMAIL_FROM"`
	EmailTo      string `envconfig:"EMAIL_TO"`
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
}
