// Package config contains everything related to configuration
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppName names the per-user config directory.
const AppName = "gemini-token-dashboard"

// Config holds the application configuration.
type Config struct {
	APIBaseURL      string
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
	LogFile         string
	LogLevel        string
	MetricsAddr     string
	NotifyRecords   bool

	// EnvFile is the .env file the values were read from, empty if none.
	EnvFile string
}

// Overrides carries command-line values that win over env and .env files.
type Overrides struct {
	EnvFile     string
	APIBaseURL  string
	LogFile     string
	LogLevel    string
	MetricsAddr string
}

// Default values
const (
	defaultAPIBaseURL      = "http://localhost:5000"
	defaultRefreshInterval = 30 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultLogLevel        = "info"
)

// source resolves keys from the process environment first, then from the
// loaded .env file. The process environment is never modified.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return s.file[key]
}

// Load reads configuration from .env files and environment variables.
func Load(o Overrides) (*Config, error) {
	envFile, err := findEnvFile(o.EnvFile)
	if err != nil {
		return nil, err
	}

	src := source{file: map[string]string{}}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		src.file = values
	}

	cfg := &Config{
		APIBaseURL:      getEnvString(src, "API_BASE_URL", defaultAPIBaseURL),
		RefreshInterval: getEnvDuration(src, "REFRESH_INTERVAL", defaultRefreshInterval),
		RequestTimeout:  getEnvDuration(src, "REQUEST_TIMEOUT", defaultRequestTimeout),
		LogFile:         getEnvString(src, "LOG_FILE", getDefaultLogPath()),
		LogLevel:        getEnvString(src, "LOG_LEVEL", defaultLogLevel),
		MetricsAddr:     getEnvString(src, "METRICS_ADDR", ""),
		NotifyRecords:   getEnvBool(src, "NOTIFY_RECORDS", true),
		EnvFile:         envFile,
	}

	applyOverrides(cfg, o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyOverrides(cfg *Config, o Overrides) {
	if o.APIBaseURL != "" {
		cfg.APIBaseURL = o.APIBaseURL
	}
	if o.LogFile != "" {
		cfg.LogFile = o.LogFile
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.MetricsAddr != "" {
		cfg.MetricsAddr = o.MetricsAddr
	}
}

// Validate checks the values that would otherwise fail at request time.
func (c *Config) Validate() error {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")

	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid API_BASE_URL %q: %w", c.APIBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL %q: expected http(s)://host[:port]", c.APIBaseURL)
	}

	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}

	return nil
}

// findEnvFile returns the explicit path if given, otherwise the first .env
// found in the search locations, or "" when there is none.
func findEnvFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("env file %s: %w", explicit, err)
		}
		return filepath.Abs(explicit)
	}

	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", AppName, ".env"))
	}

	// Parent directory (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(cwd), ".env"))
	}

	return paths
}

// getDefaultLogPath returns the default path for the rotating log file.
func getDefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gtd.log"
	}
	return filepath.Join(home, ".config", AppName, "gtd.log")
}

// getEnvString retrieves a string value or returns the default.
func getEnvString(src source, key, defaultValue string) string {
	if value := src.get(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration value or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(src source, key string, defaultValue time.Duration) time.Duration {
	if value := src.get(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean value or returns the default.
func getEnvBool(src source, key string, defaultValue bool) bool {
	if value := src.get(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
