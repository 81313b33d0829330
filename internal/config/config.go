// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package config

import (
	"time"
)

// Config is the root configuration for the Playgrid server.
// Values are layered: built-in defaults, then an optional YAML file,
// then environment variables (highest priority).
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	KV       KVConfig       `koanf:"kv"`
	NATS     NATSConfig     `koanf:"nats"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Economy  EconomyConfig  `koanf:"economy"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development" or "production"
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// KVConfig holds BadgerDB key-value store settings. The KV store backs
// the live-state layer: heartbeats, per-type counters, recent-event ring
// and dashboard query caches.
type KVConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// NATSConfig holds NATS JetStream and Watermill router settings for the
// durable telemetry pipeline.
type NATSConfig struct {
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	StreamName     string        `koanf:"stream_name"`
	RetentionDays  int           `koanf:"stream_retention_days"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	SubscribersCount int         `koanf:"subscribers_count"`

	// Watermill Router middleware settings.
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// IngestConfig holds the signed-request gate settings for game-server
// telemetry intake.
type IngestConfig struct {
	// APIKeys is the allow-list of game-server API keys permitted to
	// submit telemetry.
	APIKeys []string `koanf:"api_keys"`
	// Secret is the shared HMAC secret used to verify request signatures.
	Secret string `koanf:"secret"`
	// ReplayWindow bounds the accepted clock skew between the client
	// timestamp and server time.
	ReplayWindow time.Duration `koanf:"replay_window"`
	// RecentEventsCap caps the live recent-events ring in the KV store.
	RecentEventsCap int `koanf:"recent_events_cap"`
	// CounterTTL is the expiry applied to per-type intake counters.
	CounterTTL time.Duration `koanf:"counter_ttl"`
	// HeartbeatTTL is the liveness window for game-server heartbeats.
	HeartbeatTTL time.Duration `koanf:"heartbeat_ttl"`
}

// EconomyConfig holds the economic snapshot scheduler settings.
type EconomyConfig struct {
	// RefreshInterval is the periodic snapshot cadence.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	// MinSnapshotInterval guards against duplicate snapshots when a
	// lazy on-read refresh races the scheduler.
	MinSnapshotInterval time.Duration `koanf:"min_snapshot_interval"`
}

// APIConfig holds pagination defaults for dashboard queries.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds dashboard authentication and rate limiting settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings for zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
// Production mode enforces stricter security validation.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
