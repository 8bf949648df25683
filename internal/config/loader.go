package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Load loads configuration from a file path and applies environment
// variable overrides. Validation is deferred so CLI flag overrides can be
// applied first; call Validate() in the caller.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		fileConfig, err := loadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = fileConfig
	}

	applyEnvironmentOverrides(cfg)
	return cfg, nil
}

// LoadFromEnvironment builds a configuration from defaults plus environment
// variables only.
func LoadFromEnvironment() (*Config, error) {
	cfg := DefaultConfig()
	applyEnvironmentOverrides(cfg)
	return cfg, nil
}

// loadFromFile loads configuration from a JSON file, layered on defaults so
// omitted fields keep their default values.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfigFormat, err)
	}

	return cfg, nil
}

// applyEnvironmentOverrides applies configuration from environment variables
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("SYNCAGENT_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("SYNCAGENT_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("SYNCAGENT_KEYRING_ACCOUNT"); v != "" {
		cfg.KeyringAccount = v
	}
	if v := os.Getenv("SYNCAGENT_PROBE_URL"); v != "" {
		cfg.ProbeURL = v
	}
	if v := os.Getenv("SYNCAGENT_PROBE_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ProbeIntervalMs = n
		}
	}
	if v := os.Getenv("SYNCAGENT_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("SYNCAGENT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SYNCAGENT_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("SYNCAGENT_BASE_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.BaseDelayMs = n
		}
	}
	if v := os.Getenv("SYNCAGENT_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	if v := os.Getenv("SYNCAGENT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
