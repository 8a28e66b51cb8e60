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

package bootstrap

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/deckctl/internal/api"
	"github.com/agentdeck/deckctl/internal/apierr"
	"github.com/agentdeck/deckctl/internal/session"
	"github.com/agentdeck/deckctl/internal/tenant"
	"github.com/agentdeck/deckctl/internal/tokenstore"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) VerifyIdentity(ctx context.Context, token string) (*api.VerifyResult, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.VerifyResult), args.Error(1)
}

func (m *mockBackend) ListWorkspacesWithToken(ctx context.Context, token string) ([]tenant.Tenant, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tenant.Tenant), args.Error(1)
}

type memState map[string]string

func (m memState) Get(key string) (string, bool) { v, ok := m[key]; return v, ok }
func (m memState) Set(key, value string) error   { m[key] = value; return nil }
func (m memState) Delete(key string) error       { delete(m, key); return nil }

type world struct {
	store   *tokenstore.Memory
	session *session.Manager
	tenants *tenant.Context
	backend *mockBackend
	boot    *Bootstrapper
}

func newWorld() *world {
	store := tokenstore.NewMemory()
	sess := session.NewManager(store)
	tenants := tenant.NewContext(memState{})
	backend := new(mockBackend)
	return &world{
		store:   store,
		session: sess,
		tenants: tenants,
		backend: backend,
		boot:    New(store, sess, tenants, backend),
	}
}

// TestPurpose: Validates that an empty token store produces an unauthenticated session without any network traffic.
// Scope: Unit Test
// Expected: Run returns nil, the session stays unauthenticated, and no backend method is called.
// Test Case ID: BTS-01
func TestBootstrap_EmptyStoreSkipsNetwork(t *testing.T) {
	w := newWorld()

	require.NoError(t, w.boot.Run(context.Background()))
	assert.False(t, w.session.Authenticated())
	w.backend.AssertNotCalled(t, "VerifyIdentity", mock.Anything, mock.Anything)
	w.backend.AssertNotCalled(t, "ListWorkspacesWithToken", mock.Anything, mock.Anything)
}

// TestPurpose: Validates session restoration from stored credentials, including the workspace set and the retained refresh token.
// Scope: Unit Test
// Security: Credential reconciliation with server truth
// Expected: The verified identity and stored refresh token populate the session; the workspace list replaces the tenant set.
// Test Case ID: BTS-02
func TestBootstrap_RestoresSession(t *testing.T) {
	w := newWorld()
	require.NoError(t, w.store.Put(tokenstore.KeyAccessToken, "stored-access"))
	require.NoError(t, w.store.Put(tokenstore.KeyRefreshToken, "stored-refresh"))

	identity := &session.Identity{ID: "user-1", Email: "dev@example.com"}
	w.backend.On("VerifyIdentity", mock.Anything, "stored-access").
		Return(&api.VerifyResult{Identity: identity}, nil)
	w.backend.On("ListWorkspacesWithToken", mock.Anything, "stored-access").
		Return([]tenant.Tenant{{ID: "ws-1", Name: "Acme"}}, nil)

	require.NoError(t, w.boot.Run(context.Background()))

	assert.True(t, w.session.Authenticated())
	assert.Equal(t, "user-1", w.session.Identity().ID)

	access, _ := w.session.AccessToken()
	assert.Equal(t, "stored-access", access)
	refresh, _ := w.session.RefreshToken()
	assert.Equal(t, "stored-refresh", refresh, "held refresh token survives when verification does not rotate it")

	assert.Len(t, w.tenants.List(), 1)
	w.backend.AssertExpectations(t)
}

func TestBootstrap_RotatedRefreshTokenWins(t *testing.T) {
	w := newWorld()
	require.NoError(t, w.store.Put(tokenstore.KeyAccessToken, "stored-access"))
	require.NoError(t, w.store.Put(tokenstore.KeyRefreshToken, "stored-refresh"))

	identity := &session.Identity{ID: "user-1", Email: "dev@example.com"}
	w.backend.On("VerifyIdentity", mock.Anything, "stored-access").
		Return(&api.VerifyResult{Identity: identity, RefreshToken: "rotated-refresh"}, nil)
	w.backend.On("ListWorkspacesWithToken", mock.Anything, "stored-access").
		Return([]tenant.Tenant{}, nil)

	require.NoError(t, w.boot.Run(context.Background()))
	refresh, _ := w.session.RefreshToken()
	assert.Equal(t, "rotated-refresh", refresh)
}

// TestPurpose: Validates teardown when the backend definitively rejects the stored token.
// Scope: Unit Test
// Security: Revoked credential cleanup
// Expected: A 401 from verification clears both durable tokens, leaves the session unauthenticated, and is not reported as an error.
// Test Case ID: BTS-03
func TestBootstrap_RejectedCredentialsAreCleared(t *testing.T) {
	w := newWorld()
	require.NoError(t, w.store.Put(tokenstore.KeyAccessToken, "revoked-access"))
	require.NoError(t, w.store.Put(tokenstore.KeyRefreshToken, "revoked-refresh"))

	w.backend.On("VerifyIdentity", mock.Anything, "revoked-access").
		Return(nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthenticated, "token revoked"))
	w.backend.On("ListWorkspacesWithToken", mock.Anything, "revoked-access").
		Return(nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthenticated, "token revoked")).Maybe()

	require.NoError(t, w.boot.Run(context.Background()))

	assert.False(t, w.session.Authenticated())
	_, ok := w.store.Get(tokenstore.KeyAccessToken)
	assert.False(t, ok)
	_, ok = w.store.Get(tokenstore.KeyRefreshToken)
	assert.False(t, ok)
}

// TestPurpose: Validates that a flaky network never evicts stored credentials.
// Scope: Unit Test
// Expected: A transient verification failure is returned to the caller and the stored token pair is untouched.
// Test Case ID: BTS-04
func TestBootstrap_TransientFailureKeepsCredentials(t *testing.T) {
	w := newWorld()
	require.NoError(t, w.store.Put(tokenstore.KeyAccessToken, "stored-access"))

	unavailable := apierr.New(http.StatusServiceUnavailable, apierr.CodeServerError, "maintenance")
	w.backend.On("VerifyIdentity", mock.Anything, "stored-access").Return(nil, unavailable)
	w.backend.On("ListWorkspacesWithToken", mock.Anything, "stored-access").Return(nil, unavailable).Maybe()

	err := w.boot.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apierr.IsTransient(err))

	assert.False(t, w.session.Authenticated())
	stored, ok := w.store.Get(tokenstore.KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "stored-access", stored)
}

func TestBootstrap_FailedWorkspaceListDoesNotBlockSession(t *testing.T) {
	w := newWorld()
	require.NoError(t, w.store.Put(tokenstore.KeyAccessToken, "stored-access"))

	identity := &session.Identity{ID: "user-1", Email: "dev@example.com"}
	w.backend.On("VerifyIdentity", mock.Anything, "stored-access").
		Return(&api.VerifyResult{Identity: identity}, nil)
	w.backend.On("ListWorkspacesWithToken", mock.Anything, "stored-access").
		Return(nil, apierr.New(http.StatusServiceUnavailable, apierr.CodeServerError, ""))

	require.NoError(t, w.boot.Run(context.Background()))
	assert.True(t, w.session.Authenticated())
	assert.Empty(t, w.tenants.List())
}

// TestPurpose: Validates the run-once contract.
// Scope: Unit Test
// Expected: A second Run performs no backend calls and returns the recorded outcome.
// Test Case ID: BTS-05
func TestBootstrap_RunsExactlyOnce(t *testing.T) {
	w := newWorld()
	require.NoError(t, w.store.Put(tokenstore.KeyAccessToken, "stored-access"))

	identity := &session.Identity{ID: "user-1", Email: "dev@example.com"}
	w.backend.On("VerifyIdentity", mock.Anything, "stored-access").
		Return(&api.VerifyResult{Identity: identity}, nil).Once()
	w.backend.On("ListWorkspacesWithToken", mock.Anything, "stored-access").
		Return([]tenant.Tenant{}, nil).Once()

	require.NoError(t, w.boot.Run(context.Background()))
	require.NoError(t, w.boot.Run(context.Background()))
	w.backend.AssertExpectations(t)
}
