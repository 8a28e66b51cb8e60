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

// Package apierr defines the error taxonomy shared by the API client,
// the retry layer, and the bootstrapper. Every failure falls into one
// of five classes: authentication, authorization, validation, transient,
// or persistence. Only transient failures are ever retried.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable marks failures where no HTTP response was received at
// all (connection refused, DNS failure, timeout). The transport layer
// wraps the underlying error with it so classification stays uniform.
var ErrUnavailable = errors.New("agentdeck api unavailable")

// Error is a failure reported by the AgentDeck backend.
type Error struct {
	Status    int    `json:"-"`
	Code      string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("agentdeck api error: %s (%s)", e.Code, e.Message)
	}
	return fmt.Sprintf("agentdeck api error: %s", e.Code)
}

// Standard error codes returned by the backend
const (
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeInvalidRequest  = "invalid_request"
	CodeNotFound        = "not_found"
	CodeRateLimited     = "rate_limited"
	CodeServerError     = "server_error"
)

// New creates an Error for the given status and code
func New(status int, code, message string) *Error {
	return &Error{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// StatusOf extracts the HTTP status from an error chain. The second
// return is false when no response status is attached (network failure,
// context error, plain error).
func StatusOf(err error) (int, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	return 0, false
}

// IsAuthentication reports whether the error is a definitive credential
// failure (invalid, expired, or revoked token). Never retried.
func IsAuthentication(err error) bool {
	status, ok := StatusOf(err)
	return ok && status == http.StatusUnauthorized
}

// IsAuthorization reports whether the token was valid but lacked
// permission. Never retried.
func IsAuthorization(err error) bool {
	status, ok := StatusOf(err)
	return ok && status == http.StatusForbidden
}

// IsValidation reports whether the request itself was malformed. Never
// retried; retrying an invalid request cannot help.
func IsValidation(err error) bool {
	status, ok := StatusOf(err)
	return ok && (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity)
}

// IsNotFound reports whether the addressed resource does not exist.
func IsNotFound(err error) bool {
	status, ok := StatusOf(err)
	return ok && status == http.StatusNotFound
}

// IsTransient reports whether the failure is expected to be recoverable
// by retrying: no response at all, a 5xx, or a 429. Everything carrying
// another status is definitive. Context cancellation is never transient;
// the caller asked to stop.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	status, ok := StatusOf(err)
	if !ok {
		return false
	}
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}
