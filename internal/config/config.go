// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Store backend names accepted by Config.Store.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogDir mirrors log output into a timestamped file when non-empty.
	LogDir string `koanf:"log_dir"`

	// OpsAddr configures the operational HTTP listener (/healthz, /metrics).
	OpsAddr string `koanf:"ops_addr"`

	// MongoURI is the connection string for the document store.
	MongoURI string `koanf:"mongo_uri"`

	// Database names the Mongo database holding the scouting collections.
	Database string `koanf:"database"`

	// Store selects the backend: "mongo" or "memory".
	Store string `koanf:"store"`

	// RetryAttempts bounds retries of transient store failures.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryDelayMS is the fixed delay between retry attempts.
	RetryDelayMS int `koanf:"retry_delay_ms"`

	// SubmitPerMinute caps record submissions per observer.
	SubmitPerMinute int `koanf:"submit_per_minute"`

	// SubmitBurst allows short submission bursts above the sustained rate.
	SubmitBurst int `koanf:"submit_burst"`

	// MinMatches filters leaderboard entries below this match count.
	MinMatches int `koanf:"min_matches"`

	// IdempotencyCacheSize bounds the seen submission-token cache.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size"`

	// FTCScoutBaseURL points at the competition-data API.
	FTCScoutBaseURL string `koanf:"ftcscout_base_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogDir:               "",
		OpsAddr:              ":9090",
		MongoURI:             "mongodb://localhost:27017",
		Database:             "castle",
		Store:                StoreMongo,
		RetryAttempts:        3,
		RetryDelayMS:         2000,
		SubmitPerMinute:      15,
		SubmitBurst:          5,
		MinMatches:           1,
		IdempotencyCacheSize: 10_000,
		FTCScoutBaseURL:      "https://api.ftcscout.org",
	}
}
