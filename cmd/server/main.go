// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

// Package main is the entry point for the Playgrid server.
//
// Playgrid ingests telemetry from multiplayer game servers, queues it
// durably, and derives analytics: player activity, social graphs, an
// economic ledger, and dashboard aggregates.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config file and
//     environment variables (Koanf v2)
//  2. Database: DuckDB for events, players, relationships, ledger and
//     economic metrics
//  3. KV store: BadgerDB for the live-state ring buffers, counters and
//     heartbeat
//  4. NATS JetStream: durable telemetry queue (embedded or external),
//     consumed through a Watermill router with retry and poison-queue
//     middleware
//  5. WebSocket hub: real-time event fan-out to dashboard clients
//  6. Economy aggregator: periodic circulation snapshots
//  7. HTTP server: signed-request intake plus the JWT-protected
//     dashboard API
//
// Everything long-running is supervised by a suture tree; a crashing
// component restarts with backoff without taking down its siblings.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in
// defaults. The intake gate requires at least one API key; the
// dashboard requires JWT_SECRET, ADMIN_USERNAME and ADMIN_PASSWORD.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the queue router finishes outstanding messages,
// and storage is closed last.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/playgrid/playgrid/internal/api"
	"github.com/playgrid/playgrid/internal/auth"
	"github.com/playgrid/playgrid/internal/config"
	"github.com/playgrid/playgrid/internal/dashboard"
	"github.com/playgrid/playgrid/internal/database"
	"github.com/playgrid/playgrid/internal/economy"
	"github.com/playgrid/playgrid/internal/gate"
	"github.com/playgrid/playgrid/internal/ingest"
	"github.com/playgrid/playgrid/internal/kv"
	"github.com/playgrid/playgrid/internal/logging"
	"github.com/playgrid/playgrid/internal/pipeline"
	"github.com/playgrid/playgrid/internal/supervisor"
	ws "github.com/playgrid/playgrid/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("kv_path", cfg.KV.Path).
		Bool("embedded_nats", cfg.NATS.EmbeddedServer).
		Msg("Starting Playgrid")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	store, err := kv.Open(cfg.KV)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open KV store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing KV store")
		}
	}()

	// Embedded broker for single-binary deployments. External brokers
	// are reached through cfg.NATS.URL unchanged.
	if cfg.NATS.EmbeddedServer {
		embedded, err := pipeline.NewEmbeddedServer(pipeline.ServerConfigFrom(cfg.NATS))
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.NATS.RouterCloseTimeout)
			defer shutdownCancel()
			if err := embedded.Shutdown(shutdownCtx); err != nil {
				logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
			}
		}()
		cfg.NATS.URL = embedded.ClientURL()
		logging.Info().Str("url", cfg.NATS.URL).Msg("Embedded NATS server started")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Provision the telemetry stream before any publisher or subscriber
	// touches it. A short-lived connection is enough.
	if err := ensureStream(ctx, cfg.NATS); err != nil {
		logging.Fatal().Err(err).Msg("Failed to provision telemetry stream")
	}

	wmLogger := logging.NewWatermillAdapter()

	publisher, err := pipeline.NewPublisher(pipeline.PublisherConfigFrom(cfg.NATS), wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create telemetry publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing publisher")
		}
	}()
	publisher.SetCircuitBreaker(pipeline.NewPublisherBreaker())

	subscriber, err := pipeline.NewSubscriber(pipeline.SubscriberConfigFrom(cfg.NATS), wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create telemetry subscriber")
	}
	defer func() {
		if err := subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing subscriber")
		}
	}()

	hub := ws.NewHub()

	processor := pipeline.NewProcessor(db, hub)
	router, err := pipeline.NewRouter(pipeline.RouterConfigFrom(cfg.NATS), publisher.MessagePublisher(), wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create queue router")
	}
	router.AddConsumerHandler("telemetry-processor", pipeline.TopicWildcard, subscriber.Messages(), processor.Handle)

	aggregator := economy.NewAggregator(db, cfg.Economy)
	scheduler := economy.NewScheduler(aggregator, cfg.Economy.RefreshInterval, hub)

	ingestSvc := ingest.NewService(publisher, store, cfg.Ingest)
	dashboardSvc := dashboard.NewService(db, aggregator)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	credentials := auth.NewCredentials(&cfg.Security)

	handler := api.NewHandler(cfg, db, ingestSvc, dashboardSvc, hub, jwtManager, credentials)
	routes := handler.Routes(gate.NewVerifier(cfg.Ingest))
	server := api.NewServer(&cfg.Server, routes)

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.AddDataService(supervisor.NewKVJanitor(store, cfg.KV.GCInterval))
	tree.AddPipelineService(hub)
	tree.AddPipelineService(router)
	tree.AddPipelineService(scheduler)
	tree.AddAPIService(server)

	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting supervisor tree")

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// ensureStream creates or updates the JetStream telemetry stream over a
// dedicated short-lived connection.
func ensureStream(ctx context.Context, cfg config.NATSConfig) error {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return err
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return err
	}

	initializer, err := pipeline.NewStreamInitializer(js, pipeline.StreamConfigFrom(cfg))
	if err != nil {
		return err
	}
	_, err = initializer.EnsureStream(ctx)
	return err
}
