// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/callcharge-production/internal/logging"
)

// Config holds application configuration.
type Config struct {
	DBHost string
	DBPort int
	DBUser string
	DBPass string
	DBName string

	HTTPPort int

	// Workers bounds the number of goroutines rating a batch.
	Workers int

	// ReferenceFile optionally overrides the built-in reference tables.
	ReferenceFile string

	// TimezoneOffsetHours is applied to zone-less warehouse timestamps.
	TimezoneOffsetHours int

	Logging logging.Config
}

// Load reads an optional .env file and then the CALLCHARGE_* environment.
func Load() Config {
	_ = godotenv.Load()

	log := logging.DefaultConfig()
	log.Level = getenv("CALLCHARGE_LOG_LEVEL", log.Level)
	log.Format = getenv("CALLCHARGE_LOG_FORMAT", log.Format)
	log.Output = getenv("CALLCHARGE_LOG_OUTPUT", log.Output)

	return Config{
		DBHost:              getenv("CALLCHARGE_DB_HOST", "localhost"),
		DBPort:              getenvInt("CALLCHARGE_DB_PORT", 3306),
		DBUser:              getenv("CALLCHARGE_DB_USER", "root"),
		DBPass:              getenv("CALLCHARGE_DB_PASS", ""),
		DBName:              getenv("CALLCHARGE_DB_NAME", "call_charges"),
		HTTPPort:            getenvInt("CALLCHARGE_HTTP_PORT", 8001),
		Workers:             getenvInt("CALLCHARGE_WORKERS", 4),
		ReferenceFile:       getenv("CALLCHARGE_REFERENCE_FILE", ""),
		TimezoneOffsetHours: getenvInt("CALLCHARGE_TIMEZONE_OFFSET", 7),
		Logging:             log,
	}
}

// DSN returns the MySQL data source name.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
