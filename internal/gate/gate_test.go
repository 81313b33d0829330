// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package gate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/playgrid/playgrid/internal/config"
	"github.com/playgrid/playgrid/internal/models"
)

const (
	testKey    = "server-key-1"
	testSecret = "shared-test-secret"
)

// fixedNow pins the verifier clock for deterministic replay-window tests.
var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestVerifier() *Verifier {
	v := NewVerifier(config.IngestConfig{
		APIKeys:      []string{testKey, "server-key-2"},
		Secret:       testSecret,
		ReplayWindow: 30 * time.Second,
	})
	v.now = func() time.Time { return fixedNow }
	return v
}

func signedAt(ts time.Time) (timestamp, signature string) {
	timestamp = strconv.FormatInt(ts.UnixMilli(), 10)
	signature = Sign([]byte(testSecret), testKey, timestamp)
	return timestamp, signature
}

func TestVerify_Valid(t *testing.T) {
	v := newTestVerifier()
	ts, sig := signedAt(fixedNow)

	if err := v.Verify(testKey, ts, sig); err != nil {
		t.Fatalf("Verify = %v, want nil", err)
	}
}

func TestVerify_WindowBoundaries(t *testing.T) {
	v := newTestVerifier()

	tests := []struct {
		name string
		at   time.Time
		ok   bool
	}{
		{"exactly 30s old", fixedNow.Add(-30 * time.Second), true},
		{"exactly 30s ahead", fixedNow.Add(30 * time.Second), true},
		{"31s old", fixedNow.Add(-31 * time.Second), false},
		{"31s ahead", fixedNow.Add(31 * time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, sig := signedAt(tt.at)
			err := v.Verify(testKey, ts, sig)
			if tt.ok && err != nil {
				t.Errorf("Verify = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrRequestExpired) {
				t.Errorf("Verify = %v, want ErrRequestExpired", err)
			}
		})
	}
}

func TestVerify_Failures(t *testing.T) {
	v := newTestVerifier()
	ts, sig := signedAt(fixedNow)

	tests := []struct {
		name      string
		key       string
		timestamp string
		signature string
		want      error
	}{
		{"missing key", "", ts, sig, ErrMissingCredentials},
		{"missing timestamp", testKey, "", sig, ErrMissingCredentials},
		{"missing signature", testKey, ts, "", ErrMissingCredentials},
		{"garbage timestamp", testKey, "not-a-number", sig, ErrRequestExpired},
		{"unknown key", "rogue-key", ts, Sign([]byte(testSecret), "rogue-key", ts), ErrInvalidAPIKey},
		{"forged signature", testKey, ts, Sign([]byte("wrong-secret"), testKey, ts), ErrInvalidSignature},
		{"signature for other key", "server-key-2", ts, sig, ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.Verify(tt.key, tt.timestamp, tt.signature); !errors.Is(err, tt.want) {
				t.Errorf("Verify = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerify_ExpiryCheckedBeforeKey(t *testing.T) {
	// A stale request with an unknown key must report expiry, not leak
	// whether the key exists.
	v := newTestVerifier()
	stale := strconv.FormatInt(fixedNow.Add(-time.Hour).UnixMilli(), 10)

	err := v.Verify("rogue-key", stale, "whatever")
	if !errors.Is(err, ErrRequestExpired) {
		t.Errorf("Verify = %v, want ErrRequestExpired", err)
	}
}

func TestMiddleware_RejectsAndPasses(t *testing.T) {
	v := newTestVerifier()

	var reached bool
	handler := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusAccepted)
	}))

	// Unsigned request is rejected with a structured 401.
	req := httptest.NewRequest(http.MethodPost, "/api/mta/event", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if reached {
		t.Fatal("handler reached despite missing credentials")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "error" || resp.Error == nil {
		t.Fatalf("response = %+v, want error envelope", resp)
	}
	if resp.Error.Code != "MISSING_CREDENTIALS" {
		t.Errorf("error code = %q, want MISSING_CREDENTIALS", resp.Error.Code)
	}

	// Properly signed request passes through.
	ts, sig := signedAt(fixedNow)
	req = httptest.NewRequest(http.MethodPost, "/api/mta/event", nil)
	req.Header.Set(HeaderAPIKey, testKey)
	req.Header.Set(HeaderTimestamp, ts)
	req.Header.Set(HeaderSignature, sig)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Fatal("handler not reached for signed request")
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}
