package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	// EnvPrefix is the prefix of environment overrides, e.g. DIY_SMTP_PASSWORD.
	EnvPrefix = "diy"

	defaultPort        = 8000
	defaultEnv         = "development"
	defaultDBHost      = "127.0.0.1"
	defaultDBPort      = 3306
	defaultDBUser      = "root"
	defaultDBName      = "diy"
	defaultDBCharset   = "utf8mb4"
	defaultRedisHost   = "localhost"
	defaultRedisPort   = 6379
	defaultRedisDB     = 0
	defaultSenderName  = "ДІЙ!"
	defaultMailer      = "smtp"
	defaultSMTPPort    = 587
	defaultLocale      = "uk"
	defaultDigestLimit = 6
)
