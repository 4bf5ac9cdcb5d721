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
	"fmt"
)

// StockData is the price snapshot and fundamentals of one company.
// Optional figures are nil when the provider has no value for them.
type StockData struct {
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	CurrentPrice             *float64 `json:"current_price"`
	PriceChange              float64  `json:"price_change"`
	PriceChangePct           float64  `json:"price_change_pct"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapFormatted       string   `json:"market_cap_formatted"`
	PERatio                  *float64 `json:"pe_ratio"`
	EPS                      *float64 `json:"eps"`
	DividendYield            *float64 `json:"dividend_yield"`
	FiftyTwoWeekHigh         *float64 `json:"52_week_high"`
	FiftyTwoWeekLow          *float64 `json:"52_week_low"`
	Volume                   *int64   `json:"volume"`
	AvgVolume                *int64   `json:"avg_volume"`
	Sector                   string   `json:"sector"`
	Industry                 string   `json:"industry"`
	BusinessSummary          string   `json:"business_summary"`
	Revenue                  *float64 `json:"revenue"`
	RevenueFormatted         string   `json:"revenue_formatted"`
	GrossMargin              *float64 `json:"gross_margin"`
	OperatingMargin          *float64 `json:"operating_margin"`
	ProfitMargin             *float64 `json:"profit_margin"`
	ROE                      *float64 `json:"roe"`
	DebtToEquity             *float64 `json:"debt_to_equity"`
	CurrentRatio             *float64 `json:"current_ratio"`
	BookValue                *float64 `json:"book_value"`
	EnterpriseValue          *float64 `json:"enterprise_value"`
	EnterpriseValueFormatted string   `json:"enterprise_value_formatted"`
}

// Fundamentals holds the raw company figures of a provider. Ratios
// (margins, yields, ROE) are fractions, not percentages.
type Fundamentals struct {
	Name             string
	MarketCap        *float64
	TrailingPE       *float64
	ForwardPE        *float64
	TrailingEPS      *float64
	ForwardEPS       *float64
	DividendYield    *float64
	FiftyTwoWeekHigh *float64
	FiftyTwoWeekLow  *float64
	AverageVolume    *float64
	Sector           string
	Industry         string
	BusinessSummary  string
	TotalRevenue     *float64
	GrossMargins     *float64
	OperatingMargins *float64
	ProfitMargins    *float64
	ReturnOnEquity   *float64
	DebtToEquity     *float64
	CurrentRatio     *float64
	BookValue        *float64
	EnterpriseValue  *float64
}

const businessSummaryLimit = 500

// NewStockData combines a price history with company fundamentals.
// The current price is the last close and the change is measured against
// the close before it. An empty history gives ErrNoData.
func NewStockData(symbol string, hist *History, f Fundamentals) (*StockData, error) {
	if hist.Empty() {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}
	last := hist.Bars[len(hist.Bars)-1]

	var change, changePct float64
	if n := len(hist.Bars); n > 1 {
		prev := hist.Bars[n-2].Close
		change = last.Close - prev
		if prev != 0 {
			changePct = change / prev * 100
		}
	}

	price := round2(last.Close)
	volume := last.Volume
	marketCap := firstNonZero(f.MarketCap)
	revenue := firstNonZero(f.TotalRevenue)
	ev := firstNonZero(f.EnterpriseValue)

	data := &StockData{
		Symbol:                   symbol,
		Name:                     f.Name,
		CurrentPrice:             &price,
		PriceChange:              round2(change),
		PriceChangePct:           round2(changePct),
		MarketCap:                marketCap,
		MarketCapFormatted:       formatLargeNumberPtr(marketCap),
		PERatio:                  optRound(firstNonZero(f.TrailingPE, f.ForwardPE)),
		EPS:                      optRound(firstNonZero(f.TrailingEPS, f.ForwardEPS)),
		DividendYield:            optPercent(f.DividendYield),
		FiftyTwoWeekHigh:         optRound(f.FiftyTwoWeekHigh),
		FiftyTwoWeekLow:          optRound(f.FiftyTwoWeekLow),
		Volume:                   &volume,
		Sector:                   orNA(f.Sector),
		Industry:                 orNA(f.Industry),
		BusinessSummary:          truncate(f.BusinessSummary, businessSummaryLimit),
		Revenue:                  revenue,
		RevenueFormatted:         formatLargeNumberPtr(revenue),
		GrossMargin:              optPercent(f.GrossMargins),
		OperatingMargin:          optPercent(f.OperatingMargins),
		ProfitMargin:             optPercent(f.ProfitMargins),
		ROE:                      optPercent(f.ReturnOnEquity),
		DebtToEquity:             optRound(f.DebtToEquity),
		CurrentRatio:             optRound(f.CurrentRatio),
		BookValue:                optRound(f.BookValue),
		EnterpriseValue:          ev,
		EnterpriseValueFormatted: formatLargeNumberPtr(ev),
	}
	if f.AverageVolume != nil && *f.AverageVolume != 0 {
		avg := int64(*f.AverageVolume)
		data.AvgVolume = &avg
	}
	return data, nil
}
