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

// Package retry wraps an arbitrary operation with bounded retry and
// backoff. It is the only place in the codebase where retry decisions
// are made; callers that bypass it accept that their call will not be
// retried.
package retry

import (
	"context"
	"time"

	"github.com/agentdeck/deckctl/internal/apierr"
)

// Backoff selects the delay growth shape between attempts
type Backoff int

const (
	// BackoffExponential grows the delay as base * 2^(attempt-1)
	BackoffExponential Backoff = iota
	// BackoffLinear grows the delay as base * attempt
	BackoffLinear
)

// Policy configures a retry sequence. Policies are value objects,
// constructed per call site and discarded after the call.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the delay unit fed into the backoff shape.
	BaseDelay time.Duration
	// Backoff selects linear or exponential growth.
	Backoff Backoff
	// RetryIf decides whether a failure is worth retrying. Defaults to
	// apierr.IsTransient.
	RetryIf func(error) bool
	// OnRetry is invoked before each retry with the number of the
	// attempt that just failed and its error. Optional.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns the process-wide default: 3 attempts,
// exponential backoff from 100ms, retrying transient failures only.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		Backoff:     BackoffExponential,
		RetryIf:     apierr.IsTransient,
	}
}

// Delay returns the wait before the retry following the given attempt
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	switch p.Backoff {
	case BackoffLinear:
		return p.BaseDelay * time.Duration(attempt)
	default:
		return p.BaseDelay << (attempt - 1)
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, or
// exhausts the policy's attempts. The last error is propagated
// unmodified so callers see the true cause. Cancelling ctx aborts the
// wait between attempts and returns ctx.Err().
func Do(ctx context.Context, op func(ctx context.Context) error, p Policy) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.RetryIf == nil {
		p.RetryIf = apierr.IsTransient
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !p.RetryIf(err) || attempt >= p.MaxAttempts {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// DoValue is Do for operations that produce a result. On failure the
// zero value is returned alongside the final error.
func DoValue[T any](ctx context.Context, op func(ctx context.Context) (T, error), p Policy) (T, error) {
	var result T
	err := Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, p)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
