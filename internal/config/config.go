// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Data    DataConfig
	Catalog CatalogConfig
	Sync    SyncConfig
	Library domain.Settings
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// DataConfig holds local storage configuration.
type DataConfig struct {
	// Dir is the directory holding the Badger database.
	Dir string
}

// CatalogConfig holds catalog ingestion configuration.
type CatalogConfig struct {
	// Source is the collection CSV export: a local file path or an HTTP(S) URL.
	Source string
	// WatchSource enables change-triggered re-ingestion for local file sources.
	WatchSource bool
}

// SyncConfig holds the remote sheet-store endpoint configuration.
type SyncConfig struct {
	// Endpoint is the sheet web-app URL; empty disables remote sync.
	Endpoint string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataDir := flag.String("data-dir", "", "Directory for the local database")
	catalogSource := flag.String("catalog-source", "", "Collection CSV export (file path or URL)")
	watchSource := flag.String("watch-source", "", "Re-ingest when a local catalog file changes (default: true)")
	syncEndpoint := flag.String("sync-endpoint", "", "Remote sheet store URL (empty disables sync)")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	loanDays := flag.String("loan-days", "", "Loan period in days (default: 14)")
	guestBorrow := flag.String("guest-borrow", "", "Allow guests to borrow (default: false)")
	defaultCopies := flag.String("default-copies", "", "Default copy count for manual imports (default: 1)")
	defaultYear := flag.String("default-year", "", "Year assigned to ingested books (default: 2024)")
	refreshInterval := flag.String("refresh-interval", "", "Automatic re-ingestion period (default: 5m, 0 disables)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	defaults := domain.DefaultSettings()

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Data: DataConfig{
			Dir: getConfigValue(*dataDir, "DATA_DIR", ""),
		},
		Catalog: CatalogConfig{
			Source:      getConfigValue(*catalogSource, "CATALOG_SOURCE", ""),
			WatchSource: getBoolConfigValue(*watchSource, "CATALOG_WATCH_SOURCE", true),
		},
		Sync: SyncConfig{
			Endpoint: getConfigValue(*syncEndpoint, "SYNC_ENDPOINT", ""),
		},
		Library: domain.Settings{
			LoanDays:      getIntConfigValue(*loanDays, "LOAN_DAYS", defaults.LoanDays),
			GuestBorrow:   getBoolConfigValue(*guestBorrow, "GUEST_BORROW", defaults.GuestBorrow),
			DefaultCopies: getIntConfigValue(*defaultCopies, "DEFAULT_COPIES", defaults.DefaultCopies),
			DefaultYear:   getIntConfigValue(*defaultYear, "DEFAULT_YEAR", defaults.DefaultYear),
		},
	}

	// Parse the refresh interval as a duration, stored in milliseconds.
	refreshStr := getConfigValue(*refreshInterval, "REFRESH_INTERVAL", "")
	if refreshStr == "" {
		cfg.Library.RefreshIntervalMs = defaults.RefreshIntervalMs
	} else {
		d, err := time.ParseDuration(refreshStr)
		if err != nil {
			return nil, fmt.Errorf("invalid refresh interval %q: %w", refreshStr, err)
		}
		cfg.Library.RefreshIntervalMs = int(d.Milliseconds())
	}

	// Parse server timeouts.
	var err error
	if cfg.Server.ReadTimeout, err = parseTimeout(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseTimeout(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseTimeout(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandDataDir(); err != nil {
		return nil, fmt.Errorf("invalid data dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.Dir == "" {
		return errors.New("data dir cannot be empty after expansion")
	}

	if c.Library.LoanDays < 1 {
		return fmt.Errorf("loan days must be at least 1, got %d", c.Library.LoanDays)
	}
	if c.Library.DefaultCopies < 1 {
		return fmt.Errorf("default copies must be at least 1, got %d", c.Library.DefaultCopies)
	}

	// Catalog source can be empty - ingestion can be triggered manually with
	// an explicit source once the server is running.

	return nil
}

// expandDataDir expands ~ and makes the path absolute.
// Defaults to ~/Shelfkeeper/data.
func (c *Config) expandDataDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Shelfkeeper", "data")

	expanded, err := expandPath(c.Data.Dir, defaultPath)
	if err != nil {
		return err
	}
	c.Data.Dir = expanded
	return nil
}

// parseTimeout resolves a timeout from flag/env/default and parses it.
func parseTimeout(flagValue, envKey, defaultValue string) (time.Duration, error) {
	str := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(strings.ReplaceAll(envKey, "_", " ")), str, err)
	}
	return d, nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
