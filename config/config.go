package config

import (
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds engine-wide settings read from the environment.
type Config struct {
	// DebugEnabled turns on SQL debug logging in the sql adapter.
	DebugEnabled bool
	// IDField is the record field used to identify records for updates and
	// cascading deletes.
	IDField string
}

// LoadConfig loads configuration from environment variables.
// A .env file is automatically loaded via the autoload import.
func LoadConfig() *Config {
	return &Config{
		DebugEnabled: getBoolEnvWithDefault("DEBUG", false),
		IDField:      getEnvWithDefault("STITCH_ID_FIELD", "id"),
	}
}

// getEnvWithDefault gets an environment variable with a default fallback
func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnvWithDefault gets a boolean environment variable with a default fallback
func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
