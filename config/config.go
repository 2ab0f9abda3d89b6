// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the service. It is built once by Load and
// passed by value.
type Config struct {
	HTTPAddr         string
	DBPath           string
	DBDebug          bool
	SweepInterval    time.Duration
	SweepFirstRun    time.Duration
	SweepConcurrency int
	DeliveryTimeout  time.Duration
	ListCardLimit    int
	AuditCapacity    int
	ShutdownTimeout  time.Duration
}

// Load reads a .env file when present, then the environment. Invalid values
// fall back to defaults with a warning.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	return Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":3000"),
		DBPath:           getEnv("DB_PATH", "tasks.db"),
		DBDebug:          getEnvBool("DB_DEBUG", false),
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", 15*time.Minute),
		SweepFirstRun:    getEnvDuration("SWEEP_FIRST_RUN", 5*time.Second),
		SweepConcurrency: getEnvInt("SWEEP_CONCURRENCY", 4),
		DeliveryTimeout:  getEnvDuration("DELIVERY_TIMEOUT", 10*time.Second),
		ListCardLimit:    getEnvInt("LIST_CARD_LIMIT", 20),
		AuditCapacity:    getEnvInt("AUDIT_CAPACITY", 500),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.HTTPAddr == "":
		return fmt.Errorf("HTTP_ADDR must not be empty")
	case c.DBPath == "":
		return fmt.Errorf("DB_PATH must not be empty")
	case c.SweepInterval <= 0:
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	case c.SweepFirstRun < 0:
		return fmt.Errorf("SWEEP_FIRST_RUN must not be negative, got %s", c.SweepFirstRun)
	case c.SweepConcurrency < 1:
		return fmt.Errorf("SWEEP_CONCURRENCY must be at least 1, got %d", c.SweepConcurrency)
	case c.DeliveryTimeout <= 0:
		return fmt.Errorf("DELIVERY_TIMEOUT must be positive, got %s", c.DeliveryTimeout)
	case c.ListCardLimit < 1:
		return fmt.Errorf("LIST_CARD_LIMIT must be at least 1, got %d", c.ListCardLimit)
	case c.AuditCapacity < 1:
		return fmt.Errorf("AUDIT_CAPACITY must be at least 1, got %d", c.AuditCapacity)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// getEnv returns environment variable or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
