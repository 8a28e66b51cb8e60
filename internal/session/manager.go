// Copyright 2026 The AgentDeck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package session holds the authenticated identity and token pair for
// the lifetime of the process. Mutations are atomic per operation: no
// reader can ever observe an identity without the authenticated flag or
// the other way around.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentdeck/deckctl/internal/observability/logger"
	"github.com/agentdeck/deckctl/internal/tokenstore"
)

// Domain errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNilIdentity      = errors.New("identity must not be nil")
)

// Manager is the single owner of session state. One instance per
// process; concurrent operations (bootstrap, a user command, the
// console proxy) go through its mutex.
type Manager struct {
	mu            sync.Mutex
	store         tokenstore.Store
	identity      *Identity
	accessToken   string
	refreshToken  string
	authenticated bool
}

// NewManager creates a session manager backed by the given token store
func NewManager(store tokenstore.Store) *Manager {
	return &Manager{store: store}
}

// SetCredentials marks the session authenticated, replaces the identity
// wholesale, and updates whichever token fields are provided. A nil
// pointer leaves that token untouched; a pointer to the empty string
// clears it. Provided tokens are written through the durable store;
// a failed durable write is logged and the session keeps operating in
// memory.
func (m *Manager) SetCredentials(identity *Identity, accessToken, refreshToken *string) error {
	if identity == nil {
		return ErrNilIdentity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.identity = identity.clone()
	m.authenticated = true
	m.applyToken(&m.accessToken, tokenstore.KeyAccessToken, accessToken)
	m.applyToken(&m.refreshToken, tokenstore.KeyRefreshToken, refreshToken)
	return nil
}

// UpdateTokens rotates the token pair without touching the identity.
// Used by the token-refresh flow. Same nil/empty semantics as
// SetCredentials.
func (m *Manager) UpdateTokens(accessToken, refreshToken *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyToken(&m.accessToken, tokenstore.KeyAccessToken, accessToken)
	m.applyToken(&m.refreshToken, tokenstore.KeyRefreshToken, refreshToken)
}

// applyToken updates one token field and its durable copy. Callers
// hold m.mu.
func (m *Manager) applyToken(field *string, key string, value *string) {
	if value == nil {
		return
	}
	*field = *value
	var err error
	if *value == "" {
		err = m.store.Remove(key)
	} else {
		err = m.store.Put(key, *value)
	}
	if err != nil {
		slog.Warn("durable token write failed, continuing in memory", logger.Error(err))
	}
}

// Logout clears the identity, both tokens, and the durable entries.
// Idempotent: a second call leaves the same state. The durable removes
// always run so a fresh process can log out credentials it never loaded
// into memory.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.identity = nil
	m.authenticated = false
	m.accessToken = ""
	m.refreshToken = ""
	if err := m.store.Remove(tokenstore.KeyAccessToken); err != nil {
		slog.Warn("failed to remove durable access token", logger.Error(err))
	}
	if err := m.store.Remove(tokenstore.KeyRefreshToken); err != nil {
		slog.Warn("failed to remove durable refresh token", logger.Error(err))
	}
}

// AccessToken returns the current bearer token, used by every outgoing
// request.
func (m *Manager) AccessToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken, m.accessToken != ""
}

// RefreshToken returns the current refresh token
func (m *Manager) RefreshToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshToken, m.refreshToken != ""
}

// Authenticated reports whether an identity is present. True if and
// only if Identity() is non-nil.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// Identity returns a copy of the current identity, or nil when
// unauthenticated.
func (m *Manager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity.clone()
}

// TokenExpired reports whether the access token is absent or expires
// within leeway. The claim is read without verifying the signature; the
// backend remains the authority and a token that does not parse is
// treated as expiring.
func (m *Manager) TokenExpired(leeway time.Duration) bool {
	token, ok := m.AccessToken()
	if !ok {
		return true
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Until(claims.ExpiresAt.Time) <= leeway
}
