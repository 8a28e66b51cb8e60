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

// Package api is the AgentDeck backend client. Every request carries
// the session's bearer token and the current workspace id, passes
// through the retry layer, and maps failures onto the apierr taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/agentdeck/deckctl/internal/apierr"
	"github.com/agentdeck/deckctl/internal/observability/logger"
	"github.com/agentdeck/deckctl/internal/observability/metrics"
	"github.com/agentdeck/deckctl/internal/retry"
	"github.com/agentdeck/deckctl/internal/session"
	"github.com/agentdeck/deckctl/internal/tenant"
)

// WorkspaceHeader carries the current workspace id on every
// authenticated request.
const WorkspaceHeader = "X-Deck-Workspace"

// tokenLeeway is how close to expiry an access token may get before the
// client refreshes proactively.
const tokenLeeway = 30 * time.Second

const maxErrorBody = 1 << 20

// Config holds client construction parameters
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	Retry             retry.Policy
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// Client issues requests against the AgentDeck REST backend
type Client struct {
	baseURL   string
	userAgent string
	httpc     *http.Client
	session   *session.Manager
	tenants   *tenant.Context
	limiter   *rate.Limiter
	policy    retry.Policy
	recorder  *metrics.Recorder
}

// NewClient creates a backend client with a tuned, traced transport
func NewClient(cfg Config, sess *session.Manager, tenants *tenant.Context, recorder *metrics.Recorder) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "deckctl"
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: userAgent,
		httpc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		session:  sess,
		tenants:  tenants,
		limiter:  rate.NewLimiter(limit, burst),
		policy:   policy,
		recorder: recorder,
	}
}

type tokenKey struct{}

// WithToken overrides the bearer token for requests made with the
// returned context. The bootstrapper uses this to verify a stored token
// before the session is populated.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// do runs one logical request through the retry layer
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	policy := c.policy
	policy.OnRetry = func(attempt int, err error) {
		slog.WarnContext(ctx, "retrying api request",
			logger.Method(method),
			logger.Path(path),
			logger.Attempt(attempt),
			logger.Error(err),
		)
		c.recorder.Retry(ctx, path)
	}

	return retry.Do(ctx, func(ctx context.Context) error {
		return c.attempt(ctx, method, path, body, out, authed)
	}, policy)
}

// attempt issues a single HTTP request
func (c *Client) attempt(ctx context.Context, method, path string, body, out any, authed bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		token := tokenFromContext(ctx)
		if token == "" {
			var ok bool
			if token, ok = c.session.AccessToken(); !ok {
				return session.ErrNotAuthenticated
			}
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if c.tenants != nil {
			if id := c.tenants.CurrentID(); id != "" {
				req.Header.Set(WorkspaceHeader, id)
			}
		}
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", apierr.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.recorder.Request(ctx, method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// authed is do with token lifecycle handling: refresh proactively when
// the access token is about to expire, and retry exactly once after a
// successful reactive refresh on a 401. The second 401 is surfaced.
func (c *Client) authed(ctx context.Context, method, path string, body, out any) error {
	if c.session.TokenExpired(tokenLeeway) {
		if _, ok := c.session.RefreshToken(); ok {
			if err := c.RefreshSession(ctx); err != nil {
				slog.DebugContext(ctx, "proactive token refresh failed", logger.Error(err))
			}
		}
	}

	err := c.do(ctx, method, path, body, out, true)
	if err == nil || !apierr.IsAuthentication(err) {
		return err
	}
	if _, ok := c.session.RefreshToken(); !ok {
		return err
	}
	if refreshErr := c.RefreshSession(ctx); refreshErr != nil {
		return err
	}
	return c.do(ctx, method, path, body, out, true)
}

// decodeError maps a non-2xx response onto the error taxonomy
func decodeError(resp *http.Response) error {
	apiErr := &apierr.Error{Status: resp.StatusCode}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(payload) > 0 {
		_ = json.Unmarshal(payload, apiErr)
	}
	if apiErr.Code == "" {
		apiErr.Code = codeForStatus(resp.StatusCode)
	}
	if apiErr.RequestID == "" {
		apiErr.RequestID = resp.Header.Get("X-Request-ID")
	}
	return apiErr
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return apierr.CodeUnauthenticated
	case http.StatusForbidden:
		return apierr.CodeForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apierr.CodeInvalidRequest
	case http.StatusNotFound:
		return apierr.CodeNotFound
	case http.StatusTooManyRequests:
		return apierr.CodeRateLimited
	default:
		return apierr.CodeServerError
	}
}
