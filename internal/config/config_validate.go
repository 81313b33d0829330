// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateEconomy(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case "development", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be 'development' or 'production', got %q", c.Server.Environment)
	}
}

func (c *Config) validateIngest() error {
	if len(c.Ingest.APIKeys) == 0 {
		return fmt.Errorf("INGEST_API_KEYS is required: at least one game-server API key must be configured")
	}
	if c.Ingest.Secret == "" {
		return fmt.Errorf("INGEST_SECRET is required for request signature verification")
	}
	if c.IsProduction() && len(c.Ingest.Secret) < 32 {
		return fmt.Errorf("INGEST_SECRET must be at least 32 characters in production, got %d", len(c.Ingest.Secret))
	}
	if c.Ingest.ReplayWindow <= 0 {
		return fmt.Errorf("INGEST_REPLAY_WINDOW must be positive, got %s", c.Ingest.ReplayWindow)
	}
	if c.Ingest.RecentEventsCap < 1 {
		return fmt.Errorf("INGEST_RECENT_EVENTS_CAP must be at least 1, got %d", c.Ingest.RecentEventsCap)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required")
	}
	if !strings.HasPrefix(c.NATS.URL, "nats://") && !strings.HasPrefix(c.NATS.URL, "tls://") {
		return fmt.Errorf("NATS_URL must start with nats:// or tls://, got %q", c.NATS.URL)
	}
	if c.NATS.StreamName == "" {
		return fmt.Errorf("NATS_STREAM_NAME must not be empty")
	}
	if c.NATS.RouterRetryCount < 0 {
		return fmt.Errorf("NATS_ROUTER_RETRY_COUNT must not be negative, got %d", c.NATS.RouterRetryCount)
	}
	if c.NATS.SubscribersCount < 1 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be at least 1, got %d", c.NATS.SubscribersCount)
	}
	return nil
}

func (c *Config) validateEconomy() error {
	if c.Economy.RefreshInterval <= 0 {
		return fmt.Errorf("ECONOMY_REFRESH_INTERVAL must be positive, got %s", c.Economy.RefreshInterval)
	}
	if c.Economy.MinSnapshotInterval <= 0 {
		return fmt.Errorf("ECONOMY_MIN_SNAPSHOT_INTERVAL must be positive, got %s", c.Economy.MinSnapshotInterval)
	}
	if c.Economy.MinSnapshotInterval > c.Economy.RefreshInterval {
		return fmt.Errorf("ECONOMY_MIN_SNAPSHOT_INTERVAL (%s) must not exceed ECONOMY_REFRESH_INTERVAL (%s)",
			c.Economy.MinSnapshotInterval, c.Economy.RefreshInterval)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required for dashboard authentication")
	}
	if c.IsProduction() && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production, got %d", len(c.Security.JWTSecret))
	}
	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME must not be empty")
	}
	if c.Security.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required for dashboard authentication")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.Security.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.Logging.Format)
	}
}
