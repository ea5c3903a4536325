// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

// Config is the server configuration
type Config struct {
	Port int `env:"PORT" envDefault:"3000"`

	// SessionStore is memory or redis
	SessionStore string `env:"SESSION_STORE" envDefault:"memory"`
	// UserStore is memory, redis or mongo
	UserStore string `env:"USER_STORE" envDefault:"memory"`

	RedisURL      string `env:"REDIS_URL"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"chessDB"`

	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"10m"`

	EnginePath        string        `env:"ENGINE_PATH" envDefault:"./engine/nebula"`
	EngineWorkers     int           `env:"ENGINE_WORKERS" envDefault:"2"`
	EngineMaxAttempts int           `env:"ENGINE_MAX_ATTEMPTS" envDefault:"4"`
	EngineTimeout     time.Duration `env:"ENGINE_TIMEOUT" envDefault:"30s"`

	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"http://localhost:5173"`
	CookieSecure  bool   `env:"COOKIE_SECURE" envDefault:"false"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

// Load reads dotEnvPath if it exists and then parses the environment
func Load(dotEnvPath string) (Config, error) {
	if err := LoadDotEnv(dotEnvPath); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", dotEnvPath, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Validate checks store selections and their connection settings
func (c Config) Validate() error {
	switch c.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL required when SESSION_STORE=%s", c.SessionStore)
		}
	default:
		return fmt.Errorf("invalid SESSION_STORE %q: must be memory or redis", c.SessionStore)
	}

	switch c.UserStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL required when USER_STORE=%s", c.UserStore)
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI required when USER_STORE=%s", c.UserStore)
		}
	default:
		return fmt.Errorf("invalid USER_STORE %q: must be memory, redis or mongo", c.UserStore)
	}

	if c.EngineWorkers <= 0 {
		return fmt.Errorf("ENGINE_WORKERS must be positive, got %d", c.EngineWorkers)
	}
	if c.EngineMaxAttempts <= 0 {
		return fmt.Errorf("ENGINE_MAX_ATTEMPTS must be positive, got %d", c.EngineMaxAttempts)
	}
	return nil
}
