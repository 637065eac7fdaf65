// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBaseURL is the base URL of the external player/drill-result store.
	StoreBaseURL string `koanf:"store_base_url"`

	// StoreTimeoutMS bounds individual store requests.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// StoreRateLimitRPS and StoreRateBurst throttle outbound store calls.
	StoreRateLimitRPS float64 `koanf:"store_rate_limit_rps"`
	StoreRateBurst    int     `koanf:"store_rate_burst"`

	// RosterRetryInitialMS and RosterRetryAttempts shape the capped
	// exponential backoff used for the cold-start roster fetch.
	RosterRetryInitialMS int `koanf:"roster_retry_initial_ms"`
	RosterRetryAttempts  int `koanf:"roster_retry_attempts"`

	// RedisAddr points at the session persistence store.
	RedisAddr string `koanf:"redis_addr"`

	// RedisDB selects the redis database index.
	RedisDB int `koanf:"redis_db"`

	// PersistNamespace prefixes every session persistence key.
	PersistNamespace string `koanf:"persist_namespace"`

	// RowQueueSize bounds the in-memory row queue feeding validation workers.
	RowQueueSize int `koanf:"row_queue_size"`

	// WorkerCount sets the number of validation workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxUploadRows caps the number of rows accepted in one upload batch.
	MaxUploadRows int `koanf:"max_upload_rows"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		StoreBaseURL:         "http://localhost:9081",
		StoreTimeoutMS:       5_000,
		StoreRateLimitRPS:    20,
		StoreRateBurst:       10,
		RosterRetryInitialMS: 250,
		RosterRetryAttempts:  3,
		RedisAddr:            "localhost:6379",
		RedisDB:              0,
		PersistNamespace:     "combine",
		RowQueueSize:         10_000,
		WorkerCount:          runtime.NumCPU() * 2,
		MaxUploadRows:        2_000,
	}
	return c
}
