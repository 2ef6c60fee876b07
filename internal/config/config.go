package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `json:"server"`
	Database    DatabaseConfig    `json:"database"`
	Oracle      OracleConfig      `json:"oracle"`
	Credits     CreditsConfig     `json:"credits"`
	Marketplace MarketplaceConfig `json:"marketplace"`
	Stellar     StellarConfig     `json:"stellar"`
	Security    SecurityConfig    `json:"security"`
	Logging     LoggingConfig     `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents the optional archive database. An empty host
// disables archival.
type DatabaseConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	User           string `json:"user"`
	Password       string `json:"password"`
	DBName         string `json:"db_name"`
	SSLMode        string `json:"ssl_mode"`
	MaxConnections int    `json:"max_connections"`
	MaxIdleConns   int    `json:"max_idle_conns"`
}

// OracleConfig tunes the simulated evidence source.
type OracleConfig struct {
	Seed            int64   `json:"seed"`              // 0 selects a time-based seed
	LatencyMs       int     `json:"latency_ms"`        // simulated remote-call delay
	SiteToleranceKm float64 `json:"site_tolerance_km"` // reference-site match distance
	BaselineIndex   float64 `json:"baseline_index"`
}

// CreditsConfig tunes the verification workflow.
type CreditsConfig struct {
	PerHectare          float64 `json:"per_hectare"`          // at 100% survival
	ConfidenceThreshold float64 `json:"confidence_threshold"` // qualifying assessment floor
	OracleTimeoutSec    int     `json:"oracle_timeout_sec"`
}

// MarketplaceConfig bounds the issuer-settable unit price.
type MarketplaceConfig struct {
	MinUnitPrice int64 `json:"min_unit_price"`
	MaxUnitPrice int64 `json:"max_unit_price"`
}

// StellarConfig configures the optional ledger anchoring collaborator. An
// empty issuer secret disables anchoring.
type StellarConfig struct {
	HorizonURL      string `json:"horizon_url"`
	IssuerSecretKey string `json:"issuer_secret_key"`
	Network         string `json:"network"` // "testnet" or "public"
}

// SecurityConfig
type SecurityConfig struct {
	JWTSecret   string        `json:"jwt_secret"`
	TokenExpiry time.Duration `json:"token_expiry"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Port:           5432,
			DBName:         "bluetrust_registry",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
		},
		Oracle: OracleConfig{
			SiteToleranceKm: 500,
			BaselineIndex:   75,
		},
		Credits: CreditsConfig{
			PerHectare:          10,
			ConfidenceThreshold: 0.5,
			OracleTimeoutSec:    30,
		},
		Marketplace: MarketplaceConfig{
			MinUnitPrice: 1000,
			MaxUnitPrice: 10000,
		},
		Stellar: StellarConfig{
			Network: "testnet",
		},
		Security: SecurityConfig{
			TokenExpiry: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if seed := os.Getenv("ORACLE_SEED"); seed != "" {
		if s, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Oracle.Seed = s
		}
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if key := os.Getenv("STELLAR_ISSUER_SECRET"); key != "" {
		config.Stellar.IssuerSecretKey = key
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
