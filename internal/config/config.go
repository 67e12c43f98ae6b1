package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the ledger service.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	HTTPPort string `envconfig:"PORT" default:"3000"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"pos_ledger"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"pos_ledger.db"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me-in-production"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`

	LowStockThreshold float64 `envconfig:"LOW_STOCK_THRESHOLD" default:"2"`
	LoginRateLimit    int     `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, relying on process environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.IsProduction() && (cfg.JWTSecret == "" || cfg.JWTSecret == "change-me-in-production") {
		return nil, errors.New("JWT_SECRET must be provided in production")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return &cfg, nil
}

// PostgresDSN returns DATABASE_URL or a DSN assembled from the DB_* parts.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.PostgresDSN()
}
