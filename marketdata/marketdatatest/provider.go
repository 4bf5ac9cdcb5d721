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

// Package marketdatatest provides an in-memory market data provider.
package marketdatatest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nlpodyssey/intellimarket/marketdata"
)

// Provider serves canned data. Unknown symbols give
// marketdata.ErrSymbolNotFound. It is safe for concurrent use.
type Provider struct {
	Quotes        map[string]*marketdata.StockData
	Histories     map[string]*marketdata.History
	StatementSets map[string]*marketdata.Statements
	// Err, when set, is returned by every call.
	Err error

	mu    sync.Mutex
	calls []string
}

var _ marketdata.Provider = (*Provider)(nil)

func (p *Provider) record(call string) error {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
	return p.Err
}

// Calls returns the recorded calls as "method:symbol".
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *Provider) Quote(ctx context.Context, symbol string) (*marketdata.StockData, error) {
	if err := p.record("quote:" + symbol); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q, ok := p.Quotes[symbol]; ok {
		return q, nil
	}
	return nil, fmt.Errorf("%w: %s", marketdata.ErrSymbolNotFound, symbol)
}

func (p *Provider) History(ctx context.Context, symbol, _ string) (*marketdata.History, error) {
	if err := p.record("history:" + symbol); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h, ok := p.Histories[symbol]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("%w for %s", marketdata.ErrNoData, symbol)
}

func (p *Provider) Statements(ctx context.Context, symbol string) (*marketdata.Statements, error) {
	if err := p.record("statements:" + symbol); err != nil {
		return nil, err
	}
	if s, ok := p.StatementSets[symbol]; ok {
		return s, nil
	}
	return &marketdata.Statements{Symbol: symbol}, nil
}

// Stock returns a quote with the given price and change, and plausible
// large-cap fundamentals.
func Stock(symbol, name string, price, changePct float64) *marketdata.StockData {
	volume := int64(52_000_000)
	pe := 28.5
	return &marketdata.StockData{
		Symbol:                   symbol,
		Name:                     name,
		CurrentPrice:             &price,
		PriceChangePct:           changePct,
		MarketCapFormatted:       "$2.9T",
		PERatio:                  &pe,
		Volume:                   &volume,
		Sector:                   "Technology",
		Industry:                 "Consumer Electronics",
		RevenueFormatted:         "$391.0B",
		EnterpriseValueFormatted: "$3.0T",
	}
}

// Trend returns n daily bars closing at start, start+step, ...
func Trend(symbol string, n int, start, step float64) *marketdata.History {
	h := &marketdata.History{Symbol: symbol, Period: "6mo"}
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range n {
		c := start + float64(i)*step
		h.Bars = append(h.Bars, marketdata.Bar{
			Time: day.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1_000_000,
		})
	}
	return h
}

// New returns a provider knowing AAPL, MSFT and NVDA.
func New() *Provider {
	return &Provider{
		Quotes: map[string]*marketdata.StockData{
			"AAPL": Stock("AAPL", "Apple Inc.", 190.5, 1.2),
			"MSFT": Stock("MSFT", "Microsoft Corporation", 410.25, -0.4),
			"NVDA": Stock("NVDA", "NVIDIA Corporation", 120.75, 3.1),
		},
		Histories: map[string]*marketdata.History{
			"AAPL": Trend("AAPL", 60, 150, 0.5),
			"MSFT": Trend("MSFT", 60, 420, -0.2),
			"NVDA": Trend("NVDA", 60, 90, 0.5),
		},
	}
}
