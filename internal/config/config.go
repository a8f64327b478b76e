package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
	EnvServerPort   = "SERVER_PORT"
)

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database.dsn` in config file or DB_CONNECTION)")

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 7 * 24 * time.Hour

// defaultServerPort is used when neither config nor env set a port.
const defaultServerPort = 8240

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// AppConfig holds the resolved application configuration.
type AppConfig struct {
	// Port is the HTTP listen port.
	Port int
	// DatabaseDSN is the store connection string (postgres DSN or sqlite path).
	DatabaseDSN string
	// JWT carries the identity token settings.
	JWT JWTConfig
}

// fileConfig maps the YAML layout of the config file. The expiry is kept as
// a string because yaml.v3 does not decode duration notation on its own.
type fileConfig struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	JWT struct {
		Secret string `yaml:"secret"`
		Expiry string `yaml:"expiry"`
	} `yaml:"jwt"`
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the YAML config file and applies environment overrides.
//
// Environment variables win over file values so deployments can keep secrets
// out of the config file. A missing file is not an error as long as the env
// provides a database DSN.
func Load(path string) (AppConfig, error) {
	var cfg fileConfig
	data, errRead := os.ReadFile(ResolveConfigPath(path))
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return AppConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	}

	result := AppConfig{
		Port:        cfg.Server.Port,
		DatabaseDSN: strings.TrimSpace(cfg.Database.DSN),
		JWT:         JWTConfig{Secret: strings.TrimSpace(cfg.JWT.Secret)},
	}
	if expiryRaw := strings.TrimSpace(cfg.JWT.Expiry); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.JWT.Expiry = expiry
		}
	}

	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		result.DatabaseDSN = dsn
	}
	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.JWT.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.JWT.Expiry = expiry
		}
	}
	if portRaw := strings.TrimSpace(os.Getenv(EnvServerPort)); portRaw != "" {
		var port int
		if _, errScan := fmt.Sscanf(portRaw, "%d", &port); errScan == nil && port > 0 && port <= 65535 {
			result.Port = port
		}
	}

	if result.Port <= 0 || result.Port > 65535 {
		result.Port = defaultServerPort
	}
	if result.JWT.Expiry <= 0 {
		result.JWT.Expiry = defaultJWTExpiry
	}
	if result.DatabaseDSN == "" {
		return AppConfig{}, ErrMissingDatabaseDSN
	}
	return result, nil
}
