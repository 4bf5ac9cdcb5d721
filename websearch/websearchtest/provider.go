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

// Package websearchtest provides an in-memory search provider.
package websearchtest

import (
	"context"
	"sync"

	"github.com/nlpodyssey/intellimarket/websearch"
)

// Provider returns the same canned results for every query, truncated to
// the requested maximum, and records the queries.
type Provider struct {
	Pages    []websearch.Result
	Articles []websearch.NewsResult
	Err      error

	mu      sync.Mutex
	queries []string
}

var _ websearch.Provider = (*Provider)(nil)

func (p *Provider) record(q string) {
	p.mu.Lock()
	p.queries = append(p.queries, q)
	p.mu.Unlock()
}

func (p *Provider) Queries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.queries...)
}

func (p *Provider) Search(_ context.Context, query string, maxResults int) ([]websearch.Result, error) {
	p.record(query)
	if p.Err != nil {
		return nil, p.Err
	}
	return head(p.Pages, maxResults), nil
}

func (p *Provider) News(_ context.Context, query string, maxResults int) ([]websearch.NewsResult, error) {
	p.record(query)
	if p.Err != nil {
		return nil, p.Err
	}
	return head(p.Articles, maxResults), nil
}

func head[T any](items []T, n int) []T {
	if n <= 0 {
		n = websearch.DefaultMaxResults
	}
	return items[:min(n, len(items))]
}

// New returns a provider with a few market headlines.
func New() *Provider {
	return &Provider{
		Pages: []websearch.Result{
			{Title: "Apple Investor Relations", URL: "https://investor.apple.com", Snippet: "Quarterly results and filings."},
		},
		Articles: []websearch.NewsResult{
			{Title: "Apple unveils new chips", URL: "https://reuters.com/a", Source: "Reuters", Date: "2025-06-01", Body: "Apple said..."},
			{Title: "iPhone demand steady", URL: "https://cnbc.com/b", Source: "CNBC", Date: "2025-05-30", Body: "Analysts expect..."},
			{Title: "Services revenue record", URL: "https://wsj.com/c", Source: "WSJ", Date: "2025-05-29", Body: "Services grew..."},
			{Title: "Supply chain update", URL: "https://ft.com/d", Source: "FT", Date: "2025-05-28", Body: "Suppliers..."},
		},
	}
}
