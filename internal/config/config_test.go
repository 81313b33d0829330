// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a config that passes validation, used as the base
// for mutation tests.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Ingest.APIKeys = []string{"server-key-1"}
	cfg.Ingest.Secret = "test-ingest-secret"
	cfg.Security.JWTSecret = "test-jwt-secret"
	cfg.Security.AdminPassword = "hunter2"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidate_MissingIngestCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "no api keys",
			mutate: func(c *Config) { c.Ingest.APIKeys = nil },
			want:   "INGEST_API_KEYS",
		},
		{
			name:   "no secret",
			mutate: func(c *Config) { c.Ingest.Secret = "" },
			want:   "INGEST_SECRET",
		},
		{
			name:   "zero replay window",
			mutate: func(c *Config) { c.Ingest.ReplayWindow = 0 },
			want:   "INGEST_REPLAY_WINDOW",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestValidate_ProductionSecretLength(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Environment = "production"
	cfg.Ingest.Secret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected short secret to fail in production")
	}

	cfg.Ingest.Secret = strings.Repeat("a", 32)
	cfg.Security.JWTSecret = strings.Repeat("b", 32)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected 32-char secrets to pass in production, got %v", err)
	}
}

func TestValidate_NATSURL(t *testing.T) {
	cfg := validConfig()
	cfg.NATS.URL = "http://localhost:4222"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected non-nats URL scheme to fail validation")
	}
}

func TestValidate_EconomyIntervals(t *testing.T) {
	cfg := validConfig()
	cfg.Economy.MinSnapshotInterval = 2 * time.Hour
	cfg.Economy.RefreshInterval = time.Hour
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected min snapshot interval > refresh interval to fail")
	}
}

func TestValidate_LogLevels(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			t.Errorf("level %q rejected: %v", level, err)
		}
	}

	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown log level to fail validation")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"INGEST_SECRET", "ingest.secret"},
		{"INGEST_API_KEYS", "ingest.api_keys"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"NATS_URL", "nats.url"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""}, // unrelated env vars are dropped
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestDefaultConfig_IngestWindow(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Ingest.ReplayWindow != 30*time.Second {
		t.Errorf("default replay window = %s, want 30s", cfg.Ingest.ReplayWindow)
	}
	if cfg.Ingest.RecentEventsCap != 1000 {
		t.Errorf("default recent events cap = %d, want 1000", cfg.Ingest.RecentEventsCap)
	}
	if cfg.Ingest.HeartbeatTTL != 60*time.Second {
		t.Errorf("default heartbeat TTL = %s, want 60s", cfg.Ingest.HeartbeatTTL)
	}
}
