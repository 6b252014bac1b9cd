package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the web application.
type Config struct {
	AppName        string
	AppEnv         string
	AppPort        string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	NATSURL        string
	NATSSubject    string
	UploadDir      string
	MaxUploadMB    int
	UsersFile      string
	SessionTTL     time.Duration
	SessionCookie  string
	LoginRateLimit int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// MaxUploadBytes converts the upload limit to bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// IsProduction reports whether the application runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ENGTRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Engineering Activities")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.url", "sqlite://engtrack.db")
	v.SetDefault("nats.subject", "engtrack.activities")
	v.SetDefault("uploads.dir", "static/uploads")
	v.SetDefault("uploads.max_mb", 16)
	v.SetDefault("users.file", "usuarios.json")
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("session.cookie", "engtrack_session")
	v.SetDefault("login.rate_limit", 10)

	ttlString := v.GetString("session.ttl")
	if ttlString == "" {
		ttlString = "12h"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		LogLevel:       strings.ToLower(v.GetString("log.level")),
		DatabaseURL:    v.GetString("database.url"),
		RedisURL:       v.GetString("redis.url"),
		NATSURL:        v.GetString("nats.url"),
		NATSSubject:    v.GetString("nats.subject"),
		UploadDir:      v.GetString("uploads.dir"),
		MaxUploadMB:    v.GetInt("uploads.max_mb"),
		UsersFile:      v.GetString("users.file"),
		SessionTTL:     ttl,
		SessionCookie:  v.GetString("session.cookie"),
		LoginRateLimit: v.GetInt("login.rate_limit"),
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 16
	}

	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}

	return cfg, nil
}
