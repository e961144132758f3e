// Package config loads client settings from environment variables. It backs
// the tamctl command; library users usually pass credentials directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds intranet connection settings.
type Config struct {
	// Credentials
	Username string
	Password string

	// School identifier, the path segment below the intranet root
	School string

	// Intranet root. The default is the production host.
	BaseURL string

	// Per-request timeout
	RequestTimeout time.Duration

	// Enable request/response logging at debug level
	Debug bool
}

// Load reads configuration from TAM_* environment variables and validates it.
func Load() (Config, error) {
	cfg := Config{
		Username:       getEnv("TAM_USERNAME", ""),
		Password:       getEnv("TAM_PASSWORD", ""),
		School:         getEnv("TAM_SCHOOL", ""),
		BaseURL:        getEnv("TAM_BASE_URL", "https://intranet.tam.ch/"),
		RequestTimeout: getEnvDuration("TAM_REQUEST_TIMEOUT", 20*time.Second),
		Debug:          getEnvBool("TAM_DEBUG", false),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the required settings are present. Error messages
// name the variables, never their values.
func (c Config) Validate() error {
	var errs []string
	if c.Username == "" {
		errs = append(errs, "TAM_USERNAME is required")
	}
	if c.Password == "" {
		errs = append(errs, "TAM_PASSWORD is required")
	}
	if c.School == "" {
		errs = append(errs, "TAM_SCHOOL is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
