// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package pipeline

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/playgrid/playgrid/internal/metrics"
)

// Router wraps the Watermill router with the telemetry middleware chain:
// panic recovery, exponential-backoff retry, and poison-queue routing
// for messages that exhaust their retries.
type Router struct {
	router *message.Router
	config RouterConfig
	logger watermill.LoggerAdapter
}

// NewRouter builds the router with its middleware. poisonPublisher
// receives messages whose retries are exhausted; the poison topic is a
// log-only DLQ.
func NewRouter(cfg RouterConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router: wmRouter,
		config: cfg,
		logger: logger,
	}

	// Middleware order is outer to inner: recover panics first, then
	// retry transient failures, then route permanent failures to the
	// poison topic.
	wmRouter.AddMiddleware(middleware.Recoverer)

	retryMiddleware := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retryMiddleware.Middleware)

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, cfg.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(func(h message.HandlerFunc) message.HandlerFunc {
			inner := poisonQueue(h)
			return func(msg *message.Message) ([]*message.Message, error) {
				msgs, err := inner(msg)
				if err == nil && msg.Metadata.Get(middleware.ReasonForPoisonedKey) != "" {
					metrics.EventsPoisoned.Inc()
				}
				return msgs, err
			}
		})
	}

	return r, nil
}

// AddConsumerHandler registers a handler that consumes without
// publishing output messages.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) {
	r.router.AddConsumerHandler(name, subscribeTopic, subscriber, handler)
}

// Run starts the router and blocks until context cancellation.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Serve implements suture.Service.
func (r *Router) Serve(ctx context.Context) error {
	return r.router.Run(ctx)
}

func (r *Router) String() string { return "pipeline-router" }

// Running returns a channel that closes once the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close gracefully stops the router.
func (r *Router) Close() error {
	return r.router.Close()
}
