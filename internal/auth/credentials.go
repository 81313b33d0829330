// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/playgrid/playgrid/internal/config"
)

// ErrInvalidCredentials is returned for any mismatch. One error for every
// failure mode: the login response must not reveal which part was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminRole is the role written into tokens issued to the configured admin.
const AdminRole = "admin"

// Credentials verifies the configured admin login. The stored password is a
// bcrypt hash; a non-hash value is compared in constant time so dev setups
// can use plaintext.
type Credentials struct {
	username string
	password string
}

// NewCredentials creates the verifier from the security config.
func NewCredentials(cfg *config.SecurityConfig) *Credentials {
	return &Credentials{
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
	}
}

// Verify checks a login attempt. Returns ErrInvalidCredentials on any
// mismatch.
func (c *Credentials) Verify(username, password string) error {
	if c.username == "" || c.password == "" {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(c.username), []byte(username)) == 1

	var passOK bool
	if strings.HasPrefix(c.password, "$2") {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(c.password), []byte(password)) == 1
	}

	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
