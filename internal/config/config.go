// Package config provides configuration management for the case service
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the case service
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Cases    CasesConfig
	Animate  AnimateConfig
	Hologram HologramConfig
	Skins    SkinsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StorageConfig selects and configures the key store backend
type StorageConfig struct {
	Driver        string // "file" or "postgres"
	DSN           string
	KeysFile      string
	FlushEverySec int
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret     string
	TokenExpiry   time.Duration
	AdminPassHash string
}

// CasesConfig holds case definition loading configuration
type CasesConfig struct {
	Dir           string
	WatchInterval time.Duration
	Cooldown      time.Duration
}

// AnimateConfig holds animation scheduling configuration
type AnimateConfig struct {
	TickInterval time.Duration
}

// HologramConfig holds hologram refresh configuration
type HologramConfig struct {
	Schedule string
}

// SkinsConfig holds the skin texture resolver configuration
type SkinsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Load loads configuration from environment with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("CASE_PORT", "8080"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Driver:        getEnv("CASE_STORAGE_DRIVER", "file"),
			DSN:           getEnv("CASE_DB_DSN", "host=localhost dbname=lootcase sslmode=disable"),
			KeysFile:      getEnv("CASE_KEYS_FILE", "data/keys.yml"),
			FlushEverySec: getEnvInt("CASE_KEYS_FLUSH_SECONDS", 30),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("CASE_JWT_SECRET", "lootcase-dev-secret-change-in-production"),
			TokenExpiry:   24 * time.Hour,
			AdminPassHash: getEnv("CASE_ADMIN_PASS_HASH", ""),
		},
		Cases: CasesConfig{
			Dir:           getEnv("CASE_DIR", "cases"),
			WatchInterval: getEnvDuration("CASE_WATCH_INTERVAL", 2*time.Second),
			Cooldown:      getEnvDuration("CASE_OPEN_COOLDOWN", 0),
		},
		Animate: AnimateConfig{
			TickInterval: getEnvDuration("CASE_TICK_INTERVAL", 100*time.Millisecond),
		},
		Hologram: HologramConfig{
			Schedule: getEnv("CASE_HOLOGRAM_SCHEDULE", "@every 30s"),
		},
		Skins: SkinsConfig{
			BaseURL: getEnv("CASE_SKINS_URL", "https://mc-heads.net"),
			APIKey:  getEnv("CASE_SKINS_API_KEY", ""),
			Timeout: getEnvDuration("CASE_SKINS_TIMEOUT", 5*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
