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

// Package console serves the local AgentDeck dashboard. The browser
// talks to this loopback server only; every backend call it triggers
// goes through the same session, tenant-context, and retry core the
// CLI commands use.
package console

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agentdeck/deckctl/internal/api"
	"github.com/agentdeck/deckctl/internal/apierr"
	"github.com/agentdeck/deckctl/internal/observability/logger"
	"github.com/agentdeck/deckctl/internal/session"
	"github.com/agentdeck/deckctl/internal/tenant"
)

//go:embed static
var staticFiles embed.FS

// Config holds console server configuration
type Config struct {
	Addr              string
	RequestsPerSecond float64
	Burst             int
}

// Server is the local dashboard server
type Server struct {
	addr    string
	router  chi.Router
	client  *api.Client
	session *session.Manager
	tenants *tenant.Context
}

// New creates the console server and mounts its routes
func New(cfg Config, client *api.Client, sess *session.Manager, tenants *tenant.Context) *Server {
	s := &Server{
		addr:    cfg.Addr,
		client:  client,
		session: sess,
		tenants: tenants,
	}

	rl := NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeadersMiddleware)
	r.Use(LoggingMiddleware())
	r.Use(rl.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Post("/logout", s.handleLogout)
		r.Get("/workspaces", s.handleListWorkspaces)
		r.Post("/workspaces", s.handleCreateWorkspace)
		r.Post("/workspaces/{id}/select", s.handleSelectWorkspace)
		r.Delete("/workspaces/{id}", s.handleDeleteWorkspace)
		r.Get("/agents", s.handleListAgents)
		r.Post("/agents", s.handleCreateAgent)
		r.Delete("/agents/{id}", s.handleDeleteAgent)
	})

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		static = staticFiles
	}
	r.Handle("/*", SPAHandler{StaticFS: static})

	s.router = r
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("console listening", logger.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type sessionView struct {
	Authenticated bool              `json:"authenticated"`
	Identity      *session.Identity `json:"identity,omitempty"`
	Workspace     *tenant.Tenant    `json:"workspace,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	view := sessionView{
		Authenticated: s.session.Authenticated(),
		Identity:      s.session.Identity(),
	}
	if current, ok := s.tenants.Current(); ok {
		view.Workspace = &current
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Logout()
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := s.client.ListWorkspaces(r.Context())
	if err != nil {
		respondAPIError(w, err)
		return
	}
	s.tenants.ReplaceAll(workspaces)
	respondJSON(w, http.StatusOK, map[string]any{
		"workspaces": s.tenants.List(),
		"current":    s.tenants.CurrentID(),
	})
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string      `json:"name"`
		Plan tenant.Plan `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	created, err := s.client.CreateWorkspace(r.Context(), req.Name, req.Plan)
	if err != nil {
		respondAPIError(w, err)
		return
	}
	s.tenants.UpsertOne(created)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSelectWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.tenants.Select(id); err != nil {
		respondError(w, http.StatusNotFound, "workspace not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"current": id})
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.client.DeleteWorkspace(r.Context(), id); err != nil {
		respondAPIError(w, err)
		return
	}
	// Removing the current workspace forces a reselection here: first
	// remaining workspace, or none. The dashboard redirects to its
	// create-workspace flow when nothing is selected.
	if s.tenants.RemoveOne(id) {
		if remaining := s.tenants.List(); len(remaining) > 0 {
			_ = s.tenants.Select(remaining[0].ID)
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"current": s.tenants.CurrentID()})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.client.ListAgents(r.Context())
	if err != nil {
		respondAPIError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	created, err := s.client.CreateAgent(r.Context(), req.Name, req.Model)
	if err != nil {
		respondAPIError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	if err := s.client.DeleteAgent(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondAPIError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", logger.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondAPIError relays a backend failure to the browser with its
// original status where one exists.
func respondAPIError(w http.ResponseWriter, err error) {
	if errors.Is(err, tenant.ErrNoSelection) {
		respondError(w, http.StatusConflict, "no workspace selected")
		return
	}
	if errors.Is(err, session.ErrNotAuthenticated) {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if status, ok := apierr.StatusOf(err); ok {
		respondError(w, status, err.Error())
		return
	}
	respondError(w, http.StatusBadGateway, err.Error())
}
