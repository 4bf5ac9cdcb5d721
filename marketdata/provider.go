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

// Package marketdata fetches quotes, price history and financial statements,
// and derives the indicators and comparisons the analysts work with.
package marketdata

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

var (
	// ErrNoData reports that the provider answered but had no usable
	// price history for the symbol.
	ErrNoData = errors.New("no data available")

	// ErrSymbolNotFound reports that the provider does not know the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// DefaultPeriod is the history window used for quotes.
const DefaultPeriod = "1y"

// A Provider is a source of market data.
type Provider interface {
	// Quote returns the latest price and fundamentals of symbol.
	Quote(ctx context.Context, symbol string) (*StockData, error)
	// History returns daily bars of symbol over period ("6mo", "1y", ...).
	History(ctx context.Context, symbol, period string) (*History, error)
	// Statements returns the annual financial statements of symbol.
	Statements(ctx context.Context, symbol string) (*Statements, error)
}

// A Bar is one daily OHLCV record.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// History is a chronological series of daily bars.
type History struct {
	Symbol string `json:"symbol"`
	Period string `json:"period"`
	Bars   []Bar  `json:"bars"`
}

// Closes returns the closing prices in chronological order.
func (h *History) Closes() []float64 {
	closes := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Empty reports whether the history has no bars.
func (h *History) Empty() bool {
	return h == nil || len(h.Bars) == 0
}

var marketLogger atomic.Pointer[slog.Logger]

func init() {
	marketLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Logger is the logger used by the package.
func Logger() *slog.Logger {
	return marketLogger.Load()
}

// SetLogger replaces the package logger. A nil value is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		marketLogger.Store(l)
	}
}
