package config

import (
	"slices"
	"strings"
)

func normalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.DefaultURL = strings.TrimSpace(cfg.DefaultURL)
	if cfg.DefaultURL != "" && !strings.HasSuffix(cfg.DefaultURL, "/") {
		cfg.DefaultURL += "/"
	}
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)

	cfg.Mail.From = strings.TrimSpace(cfg.Mail.From)
	cfg.Mail.To = strings.TrimSpace(cfg.Mail.To)
	cfg.Mail.SenderName = strings.TrimSpace(cfg.Mail.SenderName)
	cfg.Mail.Provider = strings.ToLower(strings.TrimSpace(cfg.Mail.Provider))
	if cfg.Mail.SMTP.Port == 0 {
		cfg.Mail.SMTP.Port = defaultSMTPPort
	}

	if cfg.Mailing.DefaultLimit <= 0 {
		cfg.Mailing.DefaultLimit = defaultDigestLimit
	}

	cfg.Locales.Default = strings.ToLower(strings.TrimSpace(cfg.Locales.Default))
	if cfg.Locales.Default == "" {
		cfg.Locales.Default = defaultLocale
	}
	if !slices.Contains(cfg.Locales.Supported, cfg.Locales.Default) {
		cfg.Locales.Supported = append([]string{cfg.Locales.Default}, cfg.Locales.Supported...)
	}

	cfg.Paths.Logs = ResolveRuntimePath(cfg.Paths.Logs, "logs")
	cfg.DSN = cfg.Database.DSNValue()
	if !cfg.Redis.Disabled {
		cfg.RedisURL = cfg.Redis.URLValue()
	}
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development":
		return "development"
	case "prod", "production":
		return "production"
	default:
		return strings.ToLower(strings.TrimSpace(env))
	}
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" && !slices.Contains(out, origin) {
			out = append(out, origin)
		}
	}
	return out
}
