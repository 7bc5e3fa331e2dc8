// Package config loads steward configuration from the environment and
// from YAML network profiles.
package config

import "os"

// Config holds server configuration.
type Config struct {
	Port          string
	LogLevel      string
	DatabaseURL   string
	DatabaseDrv   string
	EngineURL     string
	RedisAddr     string
	RedisPassword string
	Approver      string
	Responder     string
	MasterSecret  string
	ProfilesDir   string
	ArchiveBucket string
	OTLPEndpoint  string
}

// Load loads configuration from environment variables.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	dbURL := os.Getenv("DATABASE_URL")
	dbDrv := os.Getenv("DATABASE_DRIVER")
	if dbDrv == "" {
		if dbURL != "" {
			dbDrv = "postgres"
		} else {
			// Local development runs on an embedded sqlite file.
			dbDrv = "sqlite"
			dbURL = "steward.db"
		}
	}

	profilesDir := os.Getenv("PROFILES_DIR")
	if profilesDir == "" {
		profilesDir = "profiles"
	}

	return &Config{
		Port:          port,
		LogLevel:      logLevel,
		DatabaseURL:   dbURL,
		DatabaseDrv:   dbDrv,
		EngineURL:     os.Getenv("ENGINE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		Approver:      os.Getenv("STEWARD_APPROVER"),
		Responder:     os.Getenv("STEWARD_RESPONDER"),
		MasterSecret:  os.Getenv("STEWARD_MASTER_SECRET"),
		ProfilesDir:   profilesDir,
		ArchiveBucket: os.Getenv("ARCHIVE_BUCKET"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}
