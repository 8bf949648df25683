package config

import "time"

// Config holds all configuration for the sync agent.
type Config struct {
	// APIBaseURL is the remote mutation API every queued write replays
	// against.
	APIBaseURL string `json:"apiBaseUrl"`

	// APIToken is the bearer token attached to dispatches. Prefer the OS
	// keyring (KeyringAccount); this field is the fallback for hosts
	// without one.
	APIToken string `json:"apiToken,omitempty"`

	// KeyringAccount, when set, names the OS-keychain account to read the
	// bearer token from.
	KeyringAccount string `json:"keyringAccount,omitempty"`

	// ProbeURL is polled to derive connectivity. Empty means
	// APIBaseURL + "/healthz".
	ProbeURL string `json:"probeUrl,omitempty"`

	// ProbeIntervalMs is the connectivity poll interval in milliseconds.
	ProbeIntervalMs int `json:"probeIntervalMs,omitempty"`

	// StorePath is the SQLite file holding the durable mutation queue.
	StorePath string `json:"storePath"`

	// ListenAddr is the loopback address of the local agent API the UI
	// layer talks to.
	ListenAddr string `json:"listenAddr"`

	// MaxAttempts is the per-record attempt ceiling during one run.
	MaxAttempts int `json:"maxAttempts"`

	// BaseDelayMs is the backoff before the second attempt, doubled per
	// further attempt.
	BaseDelayMs int `json:"baseDelayMs"`

	Debug    bool   `json:"debug"`
	LogLevel string `json:"logLevel"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StorePath:       "syncagent.db",
		ListenAddr:      "127.0.0.1:7337",
		ProbeIntervalMs: 5000,
		MaxAttempts:     3,
		BaseDelayMs:     1000,
		Debug:           false,
		LogLevel:        "info",
	}
}

// Validate checks if the configuration is valid.
// Called after CLI flag overrides have been applied, not during Load.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}
	if c.StorePath == "" {
		return ErrMissingStorePath
	}
	if c.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.BaseDelayMs < 0 {
		return ErrInvalidBaseDelay
	}
	return nil
}

// EffectiveProbeURL returns the configured probe target, defaulting to the
// API's health endpoint.
func (c *Config) EffectiveProbeURL() string {
	if c.ProbeURL != "" {
		return c.ProbeURL
	}
	return c.APIBaseURL + "/healthz"
}

// ProbeInterval returns the poll interval as a duration.
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalMs) * time.Millisecond
}

// BaseDelay returns the retry base delay as a duration.
func (c *Config) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}
