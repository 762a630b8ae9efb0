package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raysh454/devconsole/internal/apiclient"
	"github.com/raysh454/devconsole/internal/server"
)

// Environment variables consulted by Load. The AI-service URL wins over the
// generic API URL.
const (
	EnvAIAPIURL   = "DEVCONSOLE_AI_API_URL"
	EnvAPIURL     = "DEVCONSOLE_API_URL"
	EnvListenAddr = "DEVCONSOLE_LISTEN_ADDR"
	EnvAPIToken   = "DEVCONSOLE_API_TOKEN"
	EnvLogLevel   = "DEVCONSOLE_LOG_LEVEL"
)

// ClientConfig is the YAML-facing part of the API client configuration.
type ClientConfig struct {
	BaseURL       string `yaml:"base_url"`
	Token         string `yaml:"token"`
	SessionCookie string `yaml:"session_cookie"`
	CacheCapacity uint64 `yaml:"cache_capacity"`
	MaxLimiters   int    `yaml:"max_limiters"`
}

// Config contains the runtime configuration shared by the CLI commands.
type Config struct {
	Server server.Config `yaml:"server"`
	Client ClientConfig  `yaml:"client"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	limited := apiclient.DefaultLimitedConfig()
	return &Config{
		Server: server.DefaultConfig(),
		Client: ClientConfig{
			CacheCapacity: limited.CacheCapacity,
			MaxLimiters:   limited.MaxLimiters,
		},
		LogLevel: "info",
	}
}

// LookupEnv matches os.LookupEnv so tests can pass a map-backed lookup.
type LookupEnv func(key string) (string, bool)

// MapEnv adapts a map to LookupEnv.
func MapEnv(m map[string]string) LookupEnv {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Load builds a Config from the defaults, an optional YAML file and the
// environment, in that order of increasing precedence. A missing file is
// only an error when path was given explicitly.
func Load(path string, env LookupEnv) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if env == nil {
		env = os.LookupEnv
	}
	cfg.applyEnv(env)
	return cfg, nil
}

// LoadDefaultPath is like Load but treats a missing file as "no file".
func LoadDefaultPath(path string, env LookupEnv) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Load("", env)
	}
	return Load(path, env)
}

func (c *Config) applyEnv(env LookupEnv) {
	if u := ResolveBaseURL(env, c.Client.BaseURL); u != "" {
		c.Client.BaseURL = u
	}
	if v, ok := nonEmpty(env, EnvListenAddr); ok {
		c.Server.ListenAddr = v
	}
	if v, ok := nonEmpty(env, EnvAPIToken); ok {
		c.Client.Token = v
	}
	if v, ok := nonEmpty(env, EnvLogLevel); ok {
		c.LogLevel = v
	}
}

// ResolveBaseURL picks the base URL by preference: the AI-service variable,
// then the generic API variable, then fallback (which may be empty).
func ResolveBaseURL(env LookupEnv, fallback string) string {
	if v, ok := nonEmpty(env, EnvAIAPIURL); ok {
		return v
	}
	if v, ok := nonEmpty(env, EnvAPIURL); ok {
		return v
	}
	return fallback
}

func nonEmpty(env LookupEnv, key string) (string, bool) {
	v, ok := env(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// APIClientConfig converts the YAML-facing settings into an apiclient.Config.
func (c *Config) APIClientConfig() apiclient.Config {
	cfg := apiclient.DefaultConfig()
	cfg.BaseURL = c.Client.BaseURL
	cfg.Token = c.Client.Token
	if c.Client.SessionCookie != "" {
		name, value, ok := strings.Cut(c.Client.SessionCookie, "=")
		if ok {
			cfg.Cookies = []*http.Cookie{{Name: name, Value: value, Path: "/"}}
		}
	}
	return cfg
}

// LimitedConfig returns the cache and limiter sizing.
func (c *Config) LimitedConfig() apiclient.LimitedConfig {
	return apiclient.LimitedConfig{
		CacheCapacity: c.Client.CacheCapacity,
		MaxLimiters:   c.Client.MaxLimiters,
	}
}
