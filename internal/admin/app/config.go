package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile        string        // Optional: path to SQLite database file (default: ./castellan.db)
	PepperFile          string        // Optional: path to file containing pepper for credential hashing (default: ./pepper)
	BootstrapClientID   string        // Optional: client id seeded when the store has no clients
	BootstrapSecret     string        // Optional: secret for the bootstrap client; ignored when BootstrapClientID is empty
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile:        getEnvOrDefault("CASTELLAN_DATABASE_FILE", "castellan.db"),
		PepperFile:          getEnvOrDefault("CASTELLAN_PEPPER_FILE", "pepper"),
		BootstrapClientID:   os.Getenv("CASTELLAN_BOOTSTRAP_CLIENT_ID"),
		BootstrapSecret:     os.Getenv("CASTELLAN_BOOTSTRAP_SECRET"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
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
