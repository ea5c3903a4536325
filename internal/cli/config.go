package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Output    string
	Verbose   bool
	// Timeout bounds each HTTP request; engine searches can take a while
	Timeout time.Duration
}

// DefaultConfig returns a Config with default values, taking env overrides
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("CHESSCTL_SERVER", "http://localhost:3000"),
		Output:    getEnvOrDefault("CHESSCTL_OUTPUT", "text"),
		Timeout:   getDurationOrDefault("CHESSCTL_TIMEOUT", 60*time.Second),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDurationOrDefault ignores values that do not parse
func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultVal
}
