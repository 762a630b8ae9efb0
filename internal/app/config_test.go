package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raysh454/devconsole/internal/app"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devconsole.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := app.Load("", app.MapEnv(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("unexpected listen addr %q", cfg.Server.ListenAddr)
	}
	if cfg.Client.BaseURL != "" {
		t.Errorf("expected empty base URL, got %q", cfg.Client.BaseURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unexpected log level %q", cfg.LogLevel)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeFile(t, `
log_level: debug
server:
  listen_addr: ":9090"
  allowed_origin: "https://console.example.com"
  rate_limit: 10
  console:
    max_limit: 100
    stream_interval: 250ms
client:
  base_url: "http://file.local"
  session_cookie: "sid=abc"
`)
	cfg, err := app.Load(path, app.MapEnv(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" || cfg.Server.RateLimit != 10 {
		t.Errorf("server section not applied: %+v", cfg.Server)
	}
	if cfg.Server.Console.MaxLimit != 100 || cfg.Server.Console.StreamInterval != 250*time.Millisecond {
		t.Errorf("console section not applied: %+v", cfg.Server.Console)
	}
	if cfg.Server.Console.DefaultLimit != 50 {
		t.Errorf("expected default limit to survive partial section, got %d", cfg.Server.Console.DefaultLimit)
	}
	if cfg.Client.BaseURL != "http://file.local" {
		t.Errorf("unexpected base URL %q", cfg.Client.BaseURL)
	}

	cc := cfg.APIClientConfig()
	if len(cc.Cookies) != 1 || cc.Cookies[0].Name != "sid" || cc.Cookies[0].Value != "abc" {
		t.Errorf("session cookie not converted: %+v", cc.Cookies)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()
	if _, err := app.Load(filepath.Join(t.TempDir(), "nope.yaml"), app.MapEnv(nil)); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadDefaultPath_MissingFileIsFine(t *testing.T) {
	t.Parallel()
	cfg, err := app.LoadDefaultPath(filepath.Join(t.TempDir(), "nope.yaml"), app.MapEnv(nil))
	if err != nil {
		t.Fatalf("LoadDefaultPath: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("expected defaults, got %q", cfg.Server.ListenAddr)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "server: [unclosed")
	if _, err := app.Load(path, app.MapEnv(nil)); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolveBaseURL_Precedence(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		env      map[string]string
		fallback string
		want     string
	}{
		{"ai url wins", map[string]string{app.EnvAIAPIURL: "http://ai", app.EnvAPIURL: "http://api"}, "http://file", "http://ai"},
		{"generic url next", map[string]string{app.EnvAPIURL: "http://api"}, "http://file", "http://api"},
		{"blank ai url skipped", map[string]string{app.EnvAIAPIURL: "  ", app.EnvAPIURL: "http://api"}, "", "http://api"},
		{"fallback", nil, "http://file", "http://file"},
		{"empty", nil, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := app.ResolveBaseURL(app.MapEnv(tc.env), tc.fallback); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Parallel()
	path := writeFile(t, `
client:
  base_url: "http://file.local"
  token: "file-token"
`)
	env := app.MapEnv(map[string]string{
		app.EnvAPIURL:     "http://env.local",
		app.EnvAPIToken:   "env-token",
		app.EnvListenAddr: "127.0.0.1:7000",
		app.EnvLogLevel:   "warn",
	})
	cfg, err := app.Load(path, env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.BaseURL != "http://env.local" {
		t.Errorf("unexpected base URL %q", cfg.Client.BaseURL)
	}
	if cfg.Client.Token != "env-token" {
		t.Errorf("unexpected token %q", cfg.Client.Token)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:7000" {
		t.Errorf("unexpected listen addr %q", cfg.Server.ListenAddr)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("unexpected log level %q", cfg.LogLevel)
	}
}
