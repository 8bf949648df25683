package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:7337" {
		t.Errorf("ListenAddr = %s, want 127.0.0.1:7337", cfg.ListenAddr)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.BaseDelay() != time.Second {
		t.Errorf("BaseDelay() = %v, want 1s", cfg.BaseDelay())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `{
		"apiBaseUrl": "https://api.example.com",
		"storePath": "/var/lib/syncagent/queue.db",
		"maxAttempts": 5
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIBaseURL != "https://api.example.com" {
		t.Errorf("APIBaseURL = %s, want https://api.example.com", cfg.APIBaseURL)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.MaxAttempts)
	}
	// Omitted fields keep defaults
	if cfg.BaseDelayMs != 1000 {
		t.Errorf("BaseDelayMs = %d, want default 1000", cfg.BaseDelayMs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrConfigFileNotFound) {
		t.Errorf("Load() error = %v, want ErrConfigFileNotFound", err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfigFile(t, `{not json`)

	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfigFormat) {
		t.Errorf("Load() error = %v, want ErrInvalidConfigFormat", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SYNCAGENT_API_BASE_URL", "https://env.example.com")
	t.Setenv("SYNCAGENT_MAX_ATTEMPTS", "7")
	t.Setenv("SYNCAGENT_DEBUG", "1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIBaseURL != "https://env.example.com" {
		t.Errorf("APIBaseURL = %s, want env override", cfg.APIBaseURL)
	}
	if cfg.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7", cfg.MaxAttempts)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) { c.APIBaseURL = "https://api.example.com" }, nil},
		{"missing api url", func(c *Config) {}, ErrMissingAPIBaseURL},
		{"missing store path", func(c *Config) {
			c.APIBaseURL = "https://api.example.com"
			c.StorePath = ""
		}, ErrMissingStorePath},
		{"zero attempts", func(c *Config) {
			c.APIBaseURL = "https://api.example.com"
			c.MaxAttempts = 0
		}, ErrInvalidMaxAttempts},
		{"negative delay", func(c *Config) {
			c.APIBaseURL = "https://api.example.com"
			c.BaseDelayMs = -1
		}, ErrInvalidBaseDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveProbeURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIBaseURL = "https://api.example.com"

	if got := cfg.EffectiveProbeURL(); got != "https://api.example.com/healthz" {
		t.Errorf("EffectiveProbeURL() = %s, want api healthz default", got)
	}

	cfg.ProbeURL = "https://probe.example.com/ping"
	if got := cfg.EffectiveProbeURL(); got != "https://probe.example.com/ping" {
		t.Errorf("EffectiveProbeURL() = %s, want explicit probe url", got)
	}
}
