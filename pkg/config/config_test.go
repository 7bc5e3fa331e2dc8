package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Cairn-Labs/listing-steward/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("PROFILES_DIR", "")

	cfg := config.Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.DatabaseDrv)
	assert.Equal(t, "steward.db", cfg.DatabaseURL)
	assert.Equal(t, "profiles", cfg.ProfilesDir)
}

func TestLoad_PostgresInferredFromURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://steward@localhost:5432/steward?sslmode=disable")
	t.Setenv("DATABASE_DRIVER", "")

	cfg := config.Load()

	assert.Equal(t, "postgres", cfg.DatabaseDrv)
	assert.Contains(t, cfg.DatabaseURL, "localhost")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ENGINE_URL", "http://engine:8081")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("STEWARD_APPROVER", "0xc0unc11")
	t.Setenv("STEWARD_RESPONDER", "0x9uard1an")

	cfg := config.Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "http://engine:8081", cfg.EngineURL)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "0xc0unc11", cfg.Approver)
	assert.Equal(t, "0x9uard1an", cfg.Responder)
}
