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
	"cmp"
	"context"
	"fmt"
)

const (
	RSIOversold   = 30
	RSIOverbought = 70
)

// TechnicalIndicators summarizes the trend of a symbol.
type TechnicalIndicators struct {
	Symbol       string        `json:"symbol"`
	CurrentPrice float64       `json:"current_price"`
	SMA20        *float64      `json:"sma_20"`
	SMA50        *float64      `json:"sma_50"`
	RSI          *float64      `json:"rsi"`
	MACD         *float64      `json:"macd"`
	MACDSignal   *float64      `json:"macd_signal"`
	Trend        TrendAnalysis `json:"trend_analysis"`
}

type TrendAnalysis struct {
	AboveSMA20   *bool  `json:"above_sma_20"`
	AboveSMA50   *bool  `json:"above_sma_50"`
	RSICondition string `json:"rsi_condition"`
}

// IndicatorSet holds the unrounded latest values of each indicator. A nil
// value means the series is too short for it.
type IndicatorSet struct {
	SMA20      *float64
	SMA50      *float64
	RSI        *float64
	MACD       *float64
	MACDSignal *float64
}

// Indicators computes the indicators at the last point of closes.
func Indicators(closes []float64) IndicatorSet {
	var set IndicatorSet
	set.SMA20 = SMA(closes, 20)
	set.SMA50 = SMA(closes, 50)
	set.RSI = RSI(closes, 14)
	if len(closes) > 0 {
		macd := MACDSeries(closes)
		signal := EWM(macd, 9)
		set.MACD = &macd[len(macd)-1]
		set.MACDSignal = &signal[len(signal)-1]
	}
	return set
}

// FetchTechnicalIndicators computes the indicators of symbol over period,
// "6mo" by default.
func FetchTechnicalIndicators(ctx context.Context, p Provider, symbol, period string) (*TechnicalIndicators, error) {
	Logger().Info("calculating technical indicators", "symbol", symbol)
	hist, err := p.History(ctx, symbol, cmp.Or(period, "6mo"))
	if err != nil {
		return nil, fmt.Errorf("failed to calculate technical indicators for %s: %w", symbol, err)
	}
	return NewTechnicalIndicators(symbol, hist.Closes())
}

// NewTechnicalIndicators derives the trend summary from closing prices.
func NewTechnicalIndicators(symbol string, closes []float64) (*TechnicalIndicators, error) {
	if len(closes) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}
	price := closes[len(closes)-1]
	set := Indicators(closes)

	return &TechnicalIndicators{
		Symbol:       symbol,
		CurrentPrice: round2(price),
		SMA20:        optRound(set.SMA20),
		SMA50:        optRound(set.SMA50),
		RSI:          optRound(set.RSI),
		MACD:         optRound(set.MACD),
		MACDSignal:   optRound(set.MACDSignal),
		Trend: TrendAnalysis{
			AboveSMA20:   above(price, set.SMA20),
			AboveSMA50:   above(price, set.SMA50),
			RSICondition: RSICondition(set.RSI),
		},
	}, nil
}

func above(price float64, avg *float64) *bool {
	if avg == nil {
		return nil
	}
	b := price > *avg
	return &b
}

// RSICondition classifies an RSI value as "oversold", "overbought" or
// "neutral". A missing value is neutral.
func RSICondition(rsi *float64) string {
	switch {
	case rsi == nil:
		return "neutral"
	case *rsi < RSIOversold:
		return "oversold"
	case *rsi > RSIOverbought:
		return "overbought"
	default:
		return "neutral"
	}
}

// SMA returns the mean of the last window values, or nil when there are
// fewer than window values.
func SMA(values []float64, window int) *float64 {
	if window <= 0 || len(values) < window {
		return nil
	}
	var sum float64
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	mean := sum / float64(window)
	return &mean
}

// RSI returns the relative strength index at the last point, using simple
// rolling means of gains and losses over period price changes.
// It needs period+1 values. A flat series has no RSI.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}
	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	gain /= float64(period)
	loss /= float64(period)

	var rsi float64
	switch {
	case gain == 0 && loss == 0:
		return nil
	case loss == 0:
		rsi = 100
	default:
		rsi = 100 - 100/(1+gain/loss)
	}
	return &rsi
}

// EWM returns the adjusted exponentially weighted moving average of values
// with smoothing factor 2/(span+1): each output is the weighted mean of all
// values so far, with weights decaying geometrically into the past.
func EWM(values []float64, span int) []float64 {
	alpha := 2 / (float64(span) + 1)
	decay := 1 - alpha
	out := make([]float64, len(values))
	var num, den float64
	for i, v := range values {
		num = v + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// MACDSeries returns EWM(12) - EWM(26) of closes.
func MACDSeries(closes []float64) []float64 {
	fast := EWM(closes, 12)
	slow := EWM(closes, 26)
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	return macd
}
