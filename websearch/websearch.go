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

// Package websearch finds web pages and news articles for research prompts.
package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

const (
	// DefaultMaxResults applies when a search asks for zero results.
	DefaultMaxResults = 10

	snippetLimit = 300
)

// A Result is a general web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// A NewsResult is a news article.
type NewsResult struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
	Date   string `json:"date"`
	Body   string `json:"body"`
}

// A Provider runs web and news searches.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
	News(ctx context.Context, query string, maxResults int) ([]NewsResult, error)
}

// NewProvider returns the provider registered under name: "duckduckgo"
// (the default) or "tavily", which needs an API key.
func NewProvider(name, tavilyAPIKey string) (Provider, error) {
	switch name {
	case "", "duckduckgo":
		return NewDuckDuckGo(), nil
	case "tavily":
		if tavilyAPIKey == "" {
			return nil, fmt.Errorf("tavily search requires an API key")
		}
		return NewTavily(tavilyAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", name)
	}
}

func limit(maxResults int) int {
	if maxResults <= 0 {
		return DefaultMaxResults
	}
	return maxResults
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= snippetLimit {
		return s
	}
	return string(r[:snippetLimit])
}

var searchLogger atomic.Pointer[slog.Logger]

func init() {
	searchLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

func Logger() *slog.Logger {
	return searchLogger.Load()
}

// SetLogger replaces the package logger. A nil value is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		searchLogger.Store(l)
	}
}
