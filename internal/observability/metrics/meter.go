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

package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder holds the client-side instruments: one counter per outgoing
// request, one per retry, and a latency histogram.
type Recorder struct {
	requests metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates a Recorder on the global meter provider
func New(serviceName string) (*Recorder, error) {
	meter := otel.Meter(serviceName)

	requests, err := meter.Int64Counter(
		"deckctl.api.requests",
		metric.WithDescription("Outgoing AgentDeck API requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	retries, err := meter.Int64Counter(
		"deckctl.api.retries",
		metric.WithDescription("Retried AgentDeck API requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"deckctl.api.duration",
		metric.WithDescription("AgentDeck API request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &Recorder{requests: requests, retries: retries, duration: duration}, nil
}

// Request records one completed request attempt
func (r *Recorder) Request(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", status),
	)
	r.requests.Add(ctx, 1, attrs)
	r.duration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
}

// Retry records one retry decision
func (r *Recorder) Retry(ctx context.Context, path string) {
	if r == nil {
		return
	}
	r.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("http.route", path)))
}
