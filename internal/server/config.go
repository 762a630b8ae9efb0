package server

import (
	"github.com/raysh454/devconsole/internal/console"
	"github.com/raysh454/devconsole/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string `yaml:"listen_addr"`

	// AllowedOrigin is sent as Access-Control-Allow-Origin and checked on
	// WebSocket upgrades. "*" allows any origin.
	AllowedOrigin string `yaml:"allowed_origin"`

	// RateLimit is the per-IP request budget per minute on /api. 0 disables it.
	RateLimit int `yaml:"rate_limit"`

	Console console.Config `yaml:"console"`

	Logger logging.Logger `yaml:"-"`
}

// DefaultConfig returns the development defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    ":8080",
		AllowedOrigin: "*",
		RateLimit:     600,
		Console:       console.DefaultConfig(),
	}
}
