package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.InDelta(t, 2.0, cfg.LowStockThreshold, 0.0001)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x"}
	assert.Equal(t, "postgres://x", cfg.PostgresDSN())

	cfg = &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432"}
	assert.Contains(t, cfg.PostgresDSN(), "host=db user=u password=p dbname=n port=5432")
}

func TestDSNFollowsDriver(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", SQLitePath: "/tmp/ledger.db", DatabaseURL: "postgres://x"}
	assert.Equal(t, "/tmp/ledger.db", cfg.DSN())

	cfg.DBDriver = "postgres"
	assert.Equal(t, "postgres://x", cfg.DSN())
}
