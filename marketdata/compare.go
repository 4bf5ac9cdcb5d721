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

package marketdata

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// CompanyMetrics is the per-company row of a comparison.
type CompanyMetrics struct {
	CurrentPrice    *float64 `json:"current_price"`
	MarketCap       string   `json:"market_cap"`
	PERatio         *float64 `json:"pe_ratio"`
	PriceChangePct  float64  `json:"price_change_pct"`
	Sector          string   `json:"sector"`
	Industry        string   `json:"industry"`
	Revenue         string   `json:"revenue"`
	GrossMargin     *float64 `json:"gross_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
	ROE             *float64 `json:"roe"`
}

func metricsOf(d *StockData) CompanyMetrics {
	return CompanyMetrics{
		CurrentPrice:    d.CurrentPrice,
		MarketCap:       d.MarketCapFormatted,
		PERatio:         d.PERatio,
		PriceChangePct:  d.PriceChangePct,
		Sector:          d.Sector,
		Industry:        d.Industry,
		Revenue:         d.RevenueFormatted,
		GrossMargin:     d.GrossMargin,
		OperatingMargin: d.OperatingMargin,
		ROE:             d.ROE,
	}
}

// Comparison holds side-by-side metrics of several companies.
type Comparison struct {
	// Symbols with data, in request order.
	Symbols   []string                  `json:"symbols"`
	Data      map[string]CompanyMetrics `json:"comparison_data"`
	Timestamp time.Time                 `json:"analysis_timestamp"`
}

// CompareCompanies fetches the quotes of symbols concurrently. Symbols whose
// quote fails are left out of the comparison; the failure is only logged.
func CompareCompanies(ctx context.Context, p Provider, symbols []string) (*Comparison, error) {
	Logger().Info("comparing companies", "symbols", symbols)

	results := make([]*StockData, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)
	for i, symbol := range symbols {
		g.Go(func() error {
			data, err := p.Quote(gctx, symbol)
			if err != nil {
				Logger().Warn("skipping company in comparison", "symbol", symbol, "error", err)
				return nil
			}
			results[i] = data
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	comparison := &Comparison{
		Data:      make(map[string]CompanyMetrics, len(symbols)),
		Timestamp: time.Now(),
	}
	for i, data := range results {
		if data == nil {
			continue
		}
		comparison.Symbols = append(comparison.Symbols, symbols[i])
		comparison.Data[symbols[i]] = metricsOf(data)
	}
	return comparison, nil
}

var sectorPeers = map[string][]string{
	"AAPL":  {"MSFT", "GOOGL", "META", "AMZN"},
	"TSLA":  {"GM", "F", "RIVN", "LCID"},
	"NVDA":  {"AMD", "INTC", "QCOM", "AVGO"},
	"MSFT":  {"AAPL", "GOOGL", "META", "AMZN"},
	"GOOGL": {"AAPL", "MSFT", "META", "AMZN"},
}

// SectorPeers returns the known competitors of symbol, or nil.
func SectorPeers(symbol string) []string {
	peers := sectorPeers[strings.ToUpper(strings.TrimSpace(symbol))]
	if peers == nil {
		return nil
	}
	return append([]string(nil), peers...)
}

// FetchHistories loads the history of every symbol concurrently. Symbols
// without data are skipped.
func FetchHistories(ctx context.Context, p Provider, symbols []string, period string) ([]*History, error) {
	histories := make([]*History, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)
	for i, symbol := range symbols {
		g.Go(func() error {
			hist, err := p.History(gctx, symbol, period)
			if err != nil {
				Logger().Warn("skipping history", "symbol", symbol, "error", err)
				return nil
			}
			histories[i] = hist
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := histories[:0]
	for _, h := range histories {
		if !h.Empty() {
			out = append(out, h)
		}
	}
	return out, nil
}
