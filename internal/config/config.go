package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration. It is loaded once at
// startup and treated as read-only afterwards.
type Config struct {
	ServerPort   int
	DatabasePath string
	CORSOrigin   string

	// Token signing settings. The secret is never logged.
	JWTSecret    string
	JWTAlgorithm string
	JWTTTL       time.Duration
}

// Load loads configuration from environment variables or sets defaults.
// JWT_SECRET has no default; the process refuses to start without one.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "4h"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:   port,
		DatabasePath: getEnv("DATABASE_PATH", "./taskdeck.db"),
		CORSOrigin:   getEnv("CORS_ORIGIN", "http://localhost:3000"),
		JWTSecret:    secret,
		JWTAlgorithm: getEnv("JWT_ALGORITHM", "HS256"),
		JWTTTL:       ttl,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
