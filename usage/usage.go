// Copyright 2025 The NLP Odyssey Authors
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

// Package usage counts LLM requests and tokens across agent runs.
package usage

import (
	"context"
	"sync"
)

type Usage struct {
	// Total requests made to the LLM API.
	Requests uint64 `json:"requests"`

	// Total input tokens sent, across all requests.
	InputTokens uint64 `json:"input_tokens"`

	// Total output tokens received, across all requests.
	OutputTokens uint64 `json:"output_tokens"`

	// Total tokens sent and received, across all requests.
	TotalTokens uint64 `json:"total_tokens"`
}

func (u *Usage) Add(other Usage) {
	u.Requests += other.Requests
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// Meter is a Usage shared by concurrent agent runs, such as the
// analysts of a single workflow.
type Meter struct {
	mu    sync.Mutex
	usage Usage
}

func (m *Meter) Add(u Usage) {
	m.mu.Lock()
	m.usage.Add(u)
	m.mu.Unlock()
}

// Snapshot returns the totals accumulated so far.
func (m *Meter) Snapshot() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

type meterContextKey struct{}

// NewContext returns a new Context that carries the given Meter.
func NewContext(ctx context.Context, m *Meter) context.Context {
	return context.WithValue(ctx, meterContextKey{}, m)
}

// FromContext returns the Meter stored in ctx, if any.
func FromContext(ctx context.Context) (*Meter, bool) {
	m, ok := ctx.Value(meterContextKey{}).(*Meter)
	return m, ok
}
