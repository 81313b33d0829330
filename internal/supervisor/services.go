// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/playgrid/playgrid/internal/kv"
	"github.com/playgrid/playgrid/internal/logging"
)

// KVJanitor periodically reclaims BadgerDB value-log space. Badger only
// compacts on demand, so without this the value log grows unbounded.
type KVJanitor struct {
	store    *kv.Store
	interval time.Duration
	logger   zerolog.Logger
}

// NewKVJanitor builds the garbage-collection service. A non-positive
// interval falls back to ten minutes.
func NewKVJanitor(store *kv.Store, interval time.Duration) *KVJanitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &KVJanitor{
		store:    store,
		interval: interval,
		logger:   logging.With().Str("component", "kv-janitor").Logger(),
	}
}

// Serve implements suture.Service.
func (j *KVJanitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info().Dur("interval", j.interval).Msg("KV garbage collection started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := j.store.RunGC(); err != nil {
				j.logger.Warn().Err(err).Msg("KV garbage collection pass failed")
			}
		}
	}
}

func (j *KVJanitor) String() string { return "kv-janitor" }
