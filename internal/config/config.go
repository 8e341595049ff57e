// Package config reads service configuration from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file when one is present. Deployments set real
// environment variables; the file is a local development convenience.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns the value of key, or defaultVal when unset or empty.
func GetEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns key parsed as an int, or defaultVal when unset or
// unparseable.
func GetIntEnv(key string, defaultVal int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}

// GetDurationEnv returns key parsed as a duration ("90s", "1h"), or
// defaultVal when unset or unparseable.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	val, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}

// IsProduction reports whether the service runs with ENV=production.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}
