// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

// Package pipeline implements the durable telemetry queue and the event
// processor on Watermill over NATS JetStream. Intake publishes one job
// per event; the processor consumes them with retry, poison-queue and
// idempotency guarantees and derives relational state per job.
package pipeline

import (
	"time"

	"github.com/playgrid/playgrid/internal/config"
)

// TopicWildcard matches every telemetry subject published by intake
// (one subject per event type, "telemetry.<event_type>").
const TopicWildcard = "telemetry.>"

// PublisherConfig holds connection settings for the intake-side publisher.
type PublisherConfig struct {
	URL             string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// SubscriberConfig holds connection and consumer settings for the
// processor-side subscriber.
type SubscriberConfig struct {
	URL              string
	StreamName       string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	MaxReconnects    int
	ReconnectWait    time.Duration
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
}

// StreamConfig holds the JetStream stream shape.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	DuplicateWindow time.Duration
}

// RouterConfig holds the Watermill router middleware settings.
type RouterConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
	PoisonQueueTopic     string
}

// ServerConfig holds the embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// PublisherConfigFrom derives publisher settings from the app config.
func PublisherConfigFrom(cfg config.NATSConfig) PublisherConfig {
	return PublisherConfig{
		URL:             cfg.URL,
		MaxReconnects:   -1, // retry forever
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024,
	}
}

// SubscriberConfigFrom derives subscriber settings from the app config.
func SubscriberConfigFrom(cfg config.NATSConfig) SubscriberConfig {
	return SubscriberConfig{
		URL:              cfg.URL,
		StreamName:       cfg.StreamName,
		DurableName:      cfg.DurableName,
		QueueGroup:       cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		AckWaitTimeout:   30 * time.Second,
		// MaxDeliver guards the stream side; the router Retry middleware
		// handles in-process backoff before a nack ever reaches NATS.
		MaxDeliver:    5,
		MaxAckPending: 1024,
		CloseTimeout:  cfg.RouterCloseTimeout,
	}
}

// StreamConfigFrom derives the stream shape from the app config.
func StreamConfigFrom(cfg config.NATSConfig) StreamConfig {
	return StreamConfig{
		Name:            cfg.StreamName,
		Subjects:        []string{TopicWildcard},
		MaxAge:          time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		MaxBytes:        cfg.MaxStore,
		DuplicateWindow: 2 * time.Minute,
	}
}

// RouterConfigFrom derives router middleware settings from the app config.
func RouterConfigFrom(cfg config.NATSConfig) RouterConfig {
	return RouterConfig{
		CloseTimeout:         cfg.RouterCloseTimeout,
		RetryMaxRetries:      cfg.RouterRetryCount,
		RetryInitialInterval: cfg.RouterRetryInitialInterval,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
		PoisonQueueTopic:     cfg.RouterPoisonQueueTopic,
	}
}

// ServerConfigFrom derives embedded-server settings from the app config.
func ServerConfigFrom(cfg config.NATSConfig) ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          cfg.StoreDir,
		JetStreamMaxMem:   cfg.MaxMemory,
		JetStreamMaxStore: cfg.MaxStore,
	}
}
