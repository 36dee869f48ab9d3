package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Issuer   string   // Issuer claim for tokens (default: trustcore)
	Audience []string // Audience claim for tokens (default: trustcore-api)

	Algorithm      string // JWT signing algorithm (ES256, EdDSA) (default: EdDSA)
	SigningKeyFile string // Optional: path to a PKCS#8 PEM signing key; ephemeral key when unset

	DatabaseFile string // Path to SQLite database file (default: ./trustcore.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)

	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	SweepInterval       time.Duration // Revocation registry sweep interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:              getEnvOrDefault("TRUSTCORE_ISSUER", "trustcore"),
		Algorithm:           getEnvOrDefault("TRUSTCORE_ALGORITHM", "EdDSA"),
		SigningKeyFile:      os.Getenv("TRUSTCORE_SIGNING_KEY_FILE"),
		DatabaseFile:        getEnvOrDefault("TRUSTCORE_DATABASE_FILE", "trustcore.db"),
		PepperFile:          getEnvOrDefault("TRUSTCORE_PEPPER_FILE", "pepper"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		SweepInterval:       getEnvDurationOrDefault("SWEEP_INTERVAL", 1*time.Hour),
	}

	cfg.Audience = splitList(getEnvOrDefault("TRUSTCORE_AUDIENCE", "trustcore-api"))

	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
