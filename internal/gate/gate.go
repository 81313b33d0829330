// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

// Package gate implements the signed-request gate that authenticates
// game servers submitting telemetry. Every intake request carries an
// API key, a millisecond timestamp and an HMAC-SHA256 signature over
// "apiKey:timestamp". The gate rejects unknown keys, stale timestamps
// and forged signatures before a request reaches the intake handlers.
package gate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/playgrid/playgrid/internal/config"
)

// Verification failures. The middleware maps each to a distinct API
// error code so game-server operators can tell configuration mistakes
// apart from clock drift.
var (
	ErrMissingCredentials = errors.New("gate: missing credentials")
	ErrRequestExpired     = errors.New("gate: request timestamp outside replay window")
	ErrInvalidAPIKey      = errors.New("gate: unknown api key")
	ErrInvalidSignature   = errors.New("gate: signature mismatch")
)

// Verifier checks intake request credentials against the configured
// API-key allow-list and shared secret.
type Verifier struct {
	apiKeys      map[string]struct{}
	secret       []byte
	replayWindow time.Duration
	now          func() time.Time
}

// NewVerifier builds a Verifier from the ingest configuration.
func NewVerifier(cfg config.IngestConfig) *Verifier {
	keys := make(map[string]struct{}, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		keys[k] = struct{}{}
	}
	return &Verifier{
		apiKeys:      keys,
		secret:       []byte(cfg.Secret),
		replayWindow: cfg.ReplayWindow,
		now:          time.Now,
	}
}

// Verify validates one request's credentials. The timestamp is the
// client's clock in milliseconds since the Unix epoch; it must fall
// within the replay window of server time in either direction.
func (v *Verifier) Verify(apiKey, timestamp, signature string) error {
	if apiKey == "" || timestamp == "" || signature == "" {
		return ErrMissingCredentials
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrRequestExpired
	}

	drift := v.now().UnixMilli() - ts
	if drift < 0 {
		drift = -drift
	}
	if time.Duration(drift)*time.Millisecond > v.replayWindow {
		return ErrRequestExpired
	}

	if _, ok := v.apiKeys[apiKey]; !ok {
		return ErrInvalidAPIKey
	}

	if !hmac.Equal([]byte(Sign(v.secret, apiKey, timestamp)), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

// Sign computes the hex-encoded HMAC-SHA256 signature a client must
// present for the given api key and timestamp.
func Sign(secret []byte, apiKey, timestamp string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(apiKey + ":" + timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}
