package api

import (
	"fmt"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
)

// Config holds server configuration.
type Config struct {
	Port              int
	AllowedOrigins    []string // CORS and WebSocket origins (empty = allow all)
	APIKey            string   // Required in X-API-Key when set
	RateLimitRequests int      // Requests per minute per client IP (0 = disabled)
	RateLimitBurst    int      // Burst size
	MaxMessageSize    int64    // WebSocket message limit in bytes
	MessagesPerSecond int      // WebSocket messages per second per connection
	Version           string
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Port:              8080,
		RateLimitBurst:    10,
		MaxMessageSize:    4096,
		MessagesPerSecond: 10,
		Version:           "dev",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.APIKey != "" && len(c.APIKey) < 16 {
		return verrors.NewValidation("api_key", fmt.Sprintf("must be at least 16 characters (got %d)", len(c.APIKey)))
	}
	if c.Port < 0 || c.Port > 65535 {
		return verrors.NewValidation("port", fmt.Sprintf("invalid port %d", c.Port))
	}
	return nil
}
