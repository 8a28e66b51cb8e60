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

package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates that every failure class is recognized by exactly one predicate and that only the transient class is retryable.
// Scope: Unit Test
// Expected: 401 is authentication, 403 authorization, 400/422 validation, 404 not-found; 5xx, 429, and no-response failures are the only transient ones.
// Test Case ID: ERR-01
func TestAPIErr_Classification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		auth      bool
		authz     bool
		valid     bool
		notFound  bool
		transient bool
	}{
		{"unauthorized", New(http.StatusUnauthorized, CodeUnauthenticated, ""), true, false, false, false, false},
		{"forbidden", New(http.StatusForbidden, CodeForbidden, ""), false, true, false, false, false},
		{"bad request", New(http.StatusBadRequest, CodeInvalidRequest, ""), false, false, true, false, false},
		{"unprocessable", New(http.StatusUnprocessableEntity, CodeInvalidRequest, ""), false, false, true, false, false},
		{"not found", New(http.StatusNotFound, CodeNotFound, ""), false, false, false, true, false},
		{"server error", New(http.StatusInternalServerError, CodeServerError, ""), false, false, false, false, true},
		{"bad gateway", New(http.StatusBadGateway, CodeServerError, ""), false, false, false, false, true},
		{"rate limited", New(http.StatusTooManyRequests, CodeRateLimited, ""), false, false, false, false, true},
		{"no response", fmt.Errorf("%w: connection refused", ErrUnavailable), false, false, false, false, true},
		{"plain error", errors.New("boom"), false, false, false, false, false},
		{"nil", nil, false, false, false, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.auth, IsAuthentication(tc.err))
			assert.Equal(t, tc.authz, IsAuthorization(tc.err))
			assert.Equal(t, tc.valid, IsValidation(tc.err))
			assert.Equal(t, tc.notFound, IsNotFound(tc.err))
			assert.Equal(t, tc.transient, IsTransient(tc.err))
		})
	}
}

// TestPurpose: Validates that a cancelled or timed-out context is never treated as a recoverable failure.
// Scope: Unit Test
// Expected: context.Canceled and context.DeadlineExceeded are not transient even when wrapped.
// Test Case ID: ERR-02
func TestAPIErr_ContextErrorsNeverTransient(t *testing.T) {
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(fmt.Errorf("waiting for retry: %w", context.Canceled)))
}

// TestPurpose: Validates status extraction through wrapped error chains.
// Scope: Unit Test
// Expected: StatusOf sees the status through fmt.Errorf wrapping and reports ok=false for errors without a response.
// Test Case ID: ERR-03
func TestAPIErr_StatusOf(t *testing.T) {
	wrapped := fmt.Errorf("listing workspaces: %w", New(http.StatusServiceUnavailable, CodeServerError, "maintenance"))
	status, ok := StatusOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	_, ok = StatusOf(errors.New("not an api error"))
	assert.False(t, ok)
	_, ok = StatusOf(ErrUnavailable)
	assert.False(t, ok)
}

func TestAPIErr_ErrorString(t *testing.T) {
	assert.Equal(t, "agentdeck api error: not_found (no such agent)", New(404, CodeNotFound, "no such agent").Error())
	assert.Equal(t, "agentdeck api error: server_error", New(500, CodeServerError, "").Error())
}
