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

// Package bootstrap reconciles durable credentials with server truth at
// startup. It runs at most once per process. The core property: a flaky
// network must never evict a valid session, and an expired or revoked
// token must never be retried indefinitely.
package bootstrap

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agentdeck/deckctl/internal/api"
	"github.com/agentdeck/deckctl/internal/apierr"
	"github.com/agentdeck/deckctl/internal/observability/logger"
	"github.com/agentdeck/deckctl/internal/session"
	"github.com/agentdeck/deckctl/internal/tenant"
	"github.com/agentdeck/deckctl/internal/tokenstore"
)

// Backend is the slice of the API client the bootstrapper needs
type Backend interface {
	VerifyIdentity(ctx context.Context, token string) (*api.VerifyResult, error)
	ListWorkspacesWithToken(ctx context.Context, token string) ([]tenant.Tenant, error)
}

// Bootstrapper runs the one-shot startup reconciliation
type Bootstrapper struct {
	once    sync.Once
	store   tokenstore.Store
	session *session.Manager
	tenants *tenant.Context
	backend Backend
	err     error
}

// New creates a bootstrapper over the given stores and backend
func New(store tokenstore.Store, sess *session.Manager, tenants *tenant.Context, backend Backend) *Bootstrapper {
	return &Bootstrapper{
		store:   store,
		session: sess,
		tenants: tenants,
		backend: backend,
	}
}

// Run executes the reconciliation exactly once; later calls return the
// recorded outcome. A nil return with an unauthenticated session is a
// normal state (no stored credentials, or credentials the backend
// definitively rejected). A non-nil return means a transient failure:
// the stored credentials are kept and the next process start retries.
func (b *Bootstrapper) Run(ctx context.Context) error {
	b.once.Do(func() {
		b.err = b.run(ctx)
	})
	return b.err
}

func (b *Bootstrapper) run(ctx context.Context) error {
	token, ok := b.store.Get(tokenstore.KeyAccessToken)
	if !ok || token == "" {
		slog.DebugContext(ctx, "no stored credentials, starting unauthenticated", logger.Component("bootstrap"))
		return nil
	}

	// Verification and the workspace list ride the same stored token in
	// parallel. Only verification decides the session's fate; a failed
	// list is refetched by the first command that needs it.
	var (
		verified   *api.VerifyResult
		workspaces []tenant.Tenant
		listErr    error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		verified, err = b.backend.VerifyIdentity(gctx, token)
		return err
	})
	g.Go(func() error {
		workspaces, listErr = b.backend.ListWorkspacesWithToken(gctx, token)
		return nil
	})
	verifyErr := g.Wait()

	// The process may be shutting down; discard rather than commit.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if verifyErr != nil {
		if apierr.IsAuthentication(verifyErr) {
			slog.InfoContext(ctx, "stored credentials rejected, clearing session",
				logger.Component("bootstrap"), logger.Error(verifyErr))
			b.clearCredentials()
			return nil
		}
		slog.WarnContext(ctx, "identity verification unavailable, keeping stored credentials",
			logger.Component("bootstrap"), logger.Error(verifyErr))
		return verifyErr
	}

	// Keep the refresh token we already hold unless the backend rotated
	// it during verification.
	refresh := verified.RefreshToken
	if refresh == "" {
		refresh, _ = b.store.Get(tokenstore.KeyRefreshToken)
	}
	var refreshPtr *string
	if refresh != "" {
		refreshPtr = &refresh
	}
	if err := b.session.SetCredentials(verified.Identity, &token, refreshPtr); err != nil {
		return err
	}

	if listErr != nil {
		slog.WarnContext(ctx, "workspace list unavailable at startup",
			logger.Component("bootstrap"), logger.Error(listErr))
	} else {
		b.tenants.ReplaceAll(workspaces)
	}

	slog.DebugContext(ctx, "session restored",
		logger.Component("bootstrap"),
		logger.UserID(verified.Identity.ID),
		logger.WorkspaceID(b.tenants.CurrentID()),
	)
	return nil
}

func (b *Bootstrapper) clearCredentials() {
	if err := b.store.Remove(tokenstore.KeyAccessToken); err != nil {
		slog.Warn("failed to remove rejected access token", logger.Error(err))
	}
	if err := b.store.Remove(tokenstore.KeyRefreshToken); err != nil {
		slog.Warn("failed to remove rejected refresh token", logger.Error(err))
	}
	b.session.Logout()
}
