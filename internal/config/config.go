// Package config handles loading and validating runtime configuration for the
// freestyle-cup registration server. Configuration values (like the database
// URL and API port) are read from environment variables rather than being
// hardcoded, so the same binary can run in dev, staging, and production by
// just swapping the environment.
package config

import (
	"os"
	"time"

	// godotenv reads a .env file and loads its key=value pairs into the process
	// environment. Convenient in development; in production, real env vars are
	// set by the deployment platform and no .env file exists.
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port        string // TCP port the HTTP server listens on (e.g., "8080")
	DatabaseURL string // PostgreSQL connection string
	JWTSecret   string // HMAC secret for signing and verifying session tokens
	Env         string // "development", "staging", or "production"

	// Registration window. Clubs can create accounts and register starters
	// and judges only between these instants; music upload closes separately
	// (usually later, shortly before the event).
	RegistrationStart time.Time
	RegistrationEnd   time.Time
	MusicUploadEnd    time.Time
}

// Load reads configuration from environment variables and returns a populated
// Config. A missing .env file is fine — real env vars are used then.
func Load() *Config {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}

	return &Config{
		Port:              port,
		DatabaseURL:       os.Getenv("DATABASE_URL"), // Required — server fails to start without it
		JWTSecret:         os.Getenv("JWT_SECRET"),   // Required for login and auth middleware
		Env:               env,
		RegistrationStart: envTime("REGISTRATION_START"),
		RegistrationEnd:   envTime("REGISTRATION_END"),
		MusicUploadEnd:    envTime("MUSIC_UPLOAD_END"),
	}
}

// envTime parses an RFC 3339 timestamp from the environment. An unset or
// malformed value yields the zero time, which the capability checks treat as
// "window not configured".
func envTime(key string) time.Time {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
