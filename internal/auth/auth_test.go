// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/playgrid/playgrid/internal/config"
)

func testManager(t *testing.T, timeout time.Duration) *JWTManager {
	t.Helper()
	manager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "test-secret-at-least-32-characters-long",
		SessionTimeout: timeout,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error: %v", err)
	}
	return manager
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager := testManager(t, time.Hour)

	token, err := manager.GenerateToken("admin", AdminRole)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if claims.Username != "admin" || claims.Role != AdminRole {
		t.Errorf("claims = %q/%q, want admin/admin", claims.Username, claims.Role)
	}
}

func TestValidateTokenFailures(t *testing.T) {
	manager := testManager(t, time.Hour)

	if _, err := manager.ValidateToken("not.a.token"); err == nil {
		t.Error("malformed token accepted")
	}

	expired := testManager(t, -time.Minute)
	token, err := expired.GenerateToken("admin", AdminRole)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expired token accepted")
	}

	other, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "another-secret-also-32-characters-yes",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error: %v", err)
	}
	foreign, err := other.GenerateToken("admin", AdminRole)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if _, err := manager.ValidateToken(foreign); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("empty secret accepted")
	}
}

func TestCredentialsBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	creds := NewCredentials(&config.SecurityConfig{
		AdminUsername: "admin",
		AdminPassword: string(hash),
	})

	if err := creds.Verify("admin", "hunter2"); err != nil {
		t.Errorf("Verify() error: %v", err)
	}
	if err := creds.Verify("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: %v, want ErrInvalidCredentials", err)
	}
	if err := creds.Verify("root", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong username: %v, want ErrInvalidCredentials", err)
	}
}

func TestCredentialsPlaintextFallback(t *testing.T) {
	creds := NewCredentials(&config.SecurityConfig{
		AdminUsername: "admin",
		AdminPassword: "devpass",
	})
	if err := creds.Verify("admin", "devpass"); err != nil {
		t.Errorf("Verify() error: %v", err)
	}
	if err := creds.Verify("admin", "other"); err == nil {
		t.Error("wrong plaintext password accepted")
	}
}

func TestCredentialsUnconfigured(t *testing.T) {
	creds := NewCredentials(&config.SecurityConfig{})
	if err := creds.Verify("", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unconfigured verify: %v, want ErrInvalidCredentials", err)
	}
}

func TestMiddleware(t *testing.T) {
	manager := testManager(t, time.Hour)
	var gotClaims *Claims
	handler := Middleware(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No token.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", rec.Code)
	}

	// Header token.
	token, err := manager.GenerateToken("admin", AdminRole)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status %d, want 200", rec.Code)
	}
	if gotClaims == nil || gotClaims.Username != "admin" {
		t.Errorf("claims not propagated: %+v", gotClaims)
	}

	// Query-parameter token (WebSocket handshake path).
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("query token: status %d, want 200", rec.Code)
	}

	// Garbage token.
	req = httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", rec.Code)
	}
}
