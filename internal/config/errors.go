package config

import "errors"

var (
	// ErrMissingAPIBaseURL indicates that the API base URL is not configured
	ErrMissingAPIBaseURL = errors.New("apiBaseUrl is required in configuration")

	// ErrMissingStorePath indicates that no durable store path is configured
	ErrMissingStorePath = errors.New("storePath is required in configuration")

	// ErrInvalidMaxAttempts indicates a non-positive retry ceiling
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be at least 1")

	// ErrInvalidBaseDelay indicates a negative backoff base delay
	ErrInvalidBaseDelay = errors.New("baseDelayMs must not be negative")

	// ErrConfigFileNotFound indicates that the config file was not found
	ErrConfigFileNotFound = errors.New("configuration file not found")

	// ErrInvalidConfigFormat indicates that the config file has invalid JSON
	ErrInvalidConfigFormat = errors.New("invalid configuration file format")
)
