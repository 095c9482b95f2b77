package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"os"
)

// Config holds all configuration for the governance core service.
type Config struct {
	// Server Configuration
	ListenAddr  string
	MetricsAddr string

	// Database Configuration (URL-based)
	DatabaseURL         string
	DatabaseMaxConns    int
	DatabaseMinConns    int
	DatabaseMaxIdleTime int // seconds
	DatabaseMaxLifetime int // seconds
	DatabaseRequired    bool

	// Database Configuration (individual fields; database.NewClient
	// connects with DatabaseURL and does not read these)
	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Ledger Configuration
	LedgerBlockSize uint64
	LedgerBackend   string // "memory" | "cometbft"
	LedgerDataDir   string

	// Policy Engine Configuration
	PolicyBundlePath string

	// Reflexive Core Configuration
	ReflexiveQueueSize    int
	ReflexivePollInterval time.Duration

	// Contract Engine Configuration
	Ed25519KeyPath string
	DataDir        string

	// External Anchor Configuration
	AnchorEnabled  bool
	AnchorAdapter  string // "stub" | "hyperledger" | "omniseal"
	AnchorInterval time.Duration

	// Service Configuration
	LogLevel string
}

// Load reads configuration from environment variables, applying safe
// local-development defaults. Call Validate (production) or
// ValidateForDevelopment (local) after Load.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", "0.0.0.0:8080"),
		MetricsAddr: getEnv("METRICS_ADDR", "0.0.0.0:9090"),

		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 25),
		DatabaseMinConns:    getEnvInt("DATABASE_MIN_CONNS", 5),
		DatabaseMaxIdleTime: getEnvInt("DATABASE_MAX_IDLE_TIME", 300),
		DatabaseMaxLifetime: getEnvInt("DATABASE_MAX_LIFETIME", 3600),
		DatabaseRequired:    getEnvBool("DATABASE_REQUIRED", false),

		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnvInt("DB_PORT", 5432),
		DBUser:            getEnv("DB_USER", "govcore"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "govcore"),
		DBSSLMode:         getEnv("DB_SSL_MODE", "require"),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),

		LedgerBlockSize: uint64(getEnvInt("LEDGER_BLOCK_SIZE", 100)),
		LedgerBackend:   getEnv("LEDGER_BACKEND", "memory"),
		LedgerDataDir:   getEnv("LEDGER_DATA_DIR", "./data/ledger"),

		PolicyBundlePath: getEnv("POLICY_BUNDLE_PATH", ""),

		ReflexiveQueueSize:    getEnvInt("REFLEXIVE_QUEUE_SIZE", 1024),
		ReflexivePollInterval: getEnvDuration("REFLEXIVE_POLL_INTERVAL", time.Second),

		Ed25519KeyPath: getEnv("ED25519_KEY_PATH", "./data/contract_signing_key"),
		DataDir:        getEnv("DATA_DIR", "./data"),

		AnchorEnabled:  getEnvBool("ANCHOR_ENABLED", false),
		AnchorAdapter:  getEnv("ANCHOR_ADAPTER", "stub"),
		AnchorInterval: getEnvDuration("ANCHOR_INTERVAL", 30*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate enforces the required fields for a production deployment.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required but not set")
	} else if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		errs = append(errs, "DATABASE_URL must not use sslmode=disable in production")
	}

	if c.LedgerBackend != "memory" && c.LedgerBackend != "cometbft" {
		errs = append(errs, fmt.Sprintf("LEDGER_BACKEND must be 'memory' or 'cometbft', got %q", c.LedgerBackend))
	}

	if c.AnchorEnabled && c.AnchorAdapter != "stub" && c.AnchorAdapter != "hyperledger" && c.AnchorAdapter != "omniseal" {
		errs = append(errs, fmt.Sprintf("ANCHOR_ADAPTER must be 'stub', 'hyperledger' or 'omniseal', got %q", c.AnchorAdapter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateForDevelopment performs relaxed validation suitable for local
// development. Do not use this in production.
func (c *Config) ValidateForDevelopment() error {
	if c.LedgerBackend != "memory" && c.LedgerBackend != "cometbft" {
		return fmt.Errorf("development configuration validation failed:\n  - LEDGER_BACKEND must be 'memory' or 'cometbft'")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
