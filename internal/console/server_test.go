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

package console

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/deckctl/internal/api"
	"github.com/agentdeck/deckctl/internal/retry"
	"github.com/agentdeck/deckctl/internal/session"
	"github.com/agentdeck/deckctl/internal/tenant"
	"github.com/agentdeck/deckctl/internal/tokenstore"
)

type memState map[string]string

func (m memState) Get(key string) (string, bool) { v, ok := m[key]; return v, ok }
func (m memState) Set(key, value string) error   { m[key] = value; return nil }
func (m memState) Delete(key string) error       { delete(m, key); return nil }

type harness struct {
	server  *Server
	session *session.Manager
	tenants *tenant.Context
}

// newHarness wires a console server to a real client pointed at the
// given fake backend.
func newHarness(t *testing.T, backend http.Handler) *harness {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	sess := session.NewManager(tokenstore.NewMemory())
	tenants := tenant.NewContext(memState{})
	client := api.NewClient(api.Config{
		BaseURL: srv.URL,
		Retry:   retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond},
	}, sess, tenants, nil)

	return &harness{
		server:  New(Config{Addr: "127.0.0.1:0"}, client, sess, tenants),
		session: sess,
		tenants: tenants,
	}
}

func (h *harness) authenticate(t *testing.T) {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	identity := &session.Identity{ID: "user-1", Email: "dev@example.com"}
	require.NoError(t, h.session.SetCredentials(identity, &access, nil))
}

func (h *harness) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.server.router.ServeHTTP(rec, req)
	return rec
}

// TestPurpose: Validates the session view for both authentication states.
// Scope: Unit Test
// Expected: The unauthenticated view carries no identity; after login the identity and current workspace appear.
// Test Case ID: CON-01
func TestConsole_SessionView(t *testing.T) {
	h := newHarness(t, http.NewServeMux())

	rec := h.request(t, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Authenticated bool              `json:"authenticated"`
		Identity      *session.Identity `json:"identity"`
		Workspace     *tenant.Tenant    `json:"workspace"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.False(t, view.Authenticated)
	assert.Nil(t, view.Identity)

	h.authenticate(t)
	h.tenants.ReplaceAll([]tenant.Tenant{{ID: "ws-1", Name: "Acme"}})
	require.NoError(t, h.tenants.Select("ws-1"))

	rec = h.request(t, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Authenticated)
	require.NotNil(t, view.Identity)
	assert.Equal(t, "dev@example.com", view.Identity.Email)
	require.NotNil(t, view.Workspace)
	assert.Equal(t, "ws-1", view.Workspace.ID)
}

func TestConsole_Logout(t *testing.T) {
	h := newHarness(t, http.NewServeMux())
	h.authenticate(t)

	rec := h.request(t, http.MethodPost, "/api/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, h.session.Authenticated())
}

func TestConsole_SelectWorkspace(t *testing.T) {
	h := newHarness(t, http.NewServeMux())
	h.tenants.ReplaceAll([]tenant.Tenant{{ID: "ws-1", Name: "Acme"}})

	rec := h.request(t, http.MethodPost, "/api/workspaces/ws-1/select", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ws-1", h.tenants.CurrentID())

	rec = h.request(t, http.MethodPost, "/api/workspaces/ws-gone/select", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ws-1", h.tenants.CurrentID(), "failed select leaves the selection alone")
}

// TestPurpose: Validates workspace deletion through the dashboard, including the forced reselection.
// Scope: Unit Test
// Expected: Deleting the current workspace reselects the first remaining one and reports it.
// Test Case ID: CON-02
func TestConsole_DeleteCurrentWorkspaceReselects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /v1/workspaces/ws-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})

	h := newHarness(t, mux)
	h.authenticate(t)
	h.tenants.ReplaceAll([]tenant.Tenant{
		{ID: "ws-1", Name: "Acme"},
		{ID: "ws-2", Name: "Beta"},
	})
	require.NoError(t, h.tenants.Select("ws-1"))

	rec := h.request(t, http.MethodDelete, "/api/workspaces/ws-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ws-2", resp["current"])
	assert.Equal(t, "ws-2", h.tenants.CurrentID())
}

func TestConsole_AgentsWithoutWorkspaceConflict(t *testing.T) {
	h := newHarness(t, http.NewServeMux())
	h.authenticate(t)

	rec := h.request(t, http.MethodGet, "/api/agents", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConsole_UnauthenticatedBackendCallIs401(t *testing.T) {
	h := newHarness(t, http.NewServeMux())

	rec := h.request(t, http.MethodGet, "/api/workspaces", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConsole_CreateAgentValidation(t *testing.T) {
	h := newHarness(t, http.NewServeMux())
	h.authenticate(t)

	rec := h.request(t, http.MethodPost, "/api/agents", `{"model":"deck-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConsole_ServesDashboard(t *testing.T) {
	h := newHarness(t, http.NewServeMux())

	rec := h.request(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	// Client-side routes fall back to the dashboard shell
	rec = h.request(t, http.MethodGet, "/agents", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}
