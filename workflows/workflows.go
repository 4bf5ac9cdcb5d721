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
// Package workflows chains the analysts into the end-to-end analyses offered
// by the application: investment analysis, stock comparison, market research
// and free-form queries.
package workflows

import (
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nlpodyssey/intellimarket/analysts"
	"github.com/nlpodyssey/intellimarket/marketdata"
)

// KnownSymbols are the tickers recognized in research topics.
var KnownSymbols = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "NFLX", "AMD", "INTC"}

// QuerySymbols are the tickers recognized in custom queries.
var QuerySymbols = append(slices.Clone(KnownSymbols), "GOOG", "CRM", "ORCL")

// Workflows runs the analyses of a team. Market is used to look up real
// prices; it may be nil, in which case placeholder prices are left alone.
type Workflows struct {
	Team   *analysts.Team
	Market marketdata.Provider
	// Now defaults to time.Now.
	Now func() time.Time
}

func New(team *analysts.Team, market marketdata.Provider) *Workflows {
	return &Workflows{Team: team, Market: market}
}

func (w *Workflows) timestamp() string {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	return now().Format(time.RFC3339)
}

var (
	topicSymbolRe     = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	dollarSymbolRe    = regexp.MustCompile(`\$([A-Z]{1,5})\b`)
	bareQuerySymbolRe = regexp.MustCompile(`\b([A-Z]{2,5})\b`)
)

// ExtractSymbols returns the known tickers mentioned in text, in order of
// first appearance.
func ExtractSymbols(text string) []string {
	return filterKnown(topicSymbolRe.FindAllString(text, -1), KnownSymbols)
}

// ExtractQuerySymbols returns the tickers of a custom query. The query is
// uppercased first, and both "$AAPL" and bare "AAPL" forms are recognized.
func ExtractQuerySymbols(query string) []string {
	upper := strings.ToUpper(query)
	var candidates []string
	for _, re := range []*regexp.Regexp{dollarSymbolRe, bareQuerySymbolRe} {
		for _, m := range re.FindAllStringSubmatch(upper, -1) {
			candidates = append(candidates, m[1])
		}
	}
	return filterKnown(candidates, QuerySymbols)
}

func filterKnown(candidates, known []string) []string {
	var out []string
	for _, c := range candidates {
		if slices.Contains(known, c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

var workflowsLogger atomic.Pointer[slog.Logger]

func init() {
	workflowsLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

func Logger() *slog.Logger {
	return workflowsLogger.Load()
}

// SetLogger replaces the package logger. A nil value is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		workflowsLogger.Store(l)
	}
}
