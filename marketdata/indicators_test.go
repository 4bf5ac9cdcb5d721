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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestSMA(t *testing.T) {
	assert.Nil(t, SMA([]float64{1, 2}, 3))
	got := SMA([]float64{100, 1, 2, 3}, 3)
	require.NotNil(t, got)
	assert.Equal(t, 2.0, *got)
}

func TestRSI(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		assert.Nil(t, RSI(series(14, func(i int) float64 { return float64(i) }), 14))
	})
	t.Run("only gains", func(t *testing.T) {
		got := RSI(series(15, func(i int) float64 { return float64(i) }), 14)
		require.NotNil(t, got)
		assert.Equal(t, 100.0, *got)
	})
	t.Run("flat", func(t *testing.T) {
		assert.Nil(t, RSI(series(30, func(int) float64 { return 7 }), 14))
	})
	t.Run("mixed", func(t *testing.T) {
		// +2, -1, +2, -1, ...: mean gain 1, mean loss 0.5, RS 2.
		closes := []float64{10}
		for i := range 14 {
			step := 2.0
			if i%2 == 1 {
				step = -1
			}
			closes = append(closes, closes[len(closes)-1]+step)
		}
		got := RSI(closes, 14)
		require.NotNil(t, got)
		assert.InDelta(t, 66.6667, *got, 1e-4)
	})
}

func TestEWM(t *testing.T) {
	got := EWM([]float64{1, 2, 3}, 3)
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, got[0], 1e-9)
	assert.InDelta(t, 2.5/1.5, got[1], 1e-9)
	assert.InDelta(t, 4.25/1.75, got[2], 1e-9)
}

func TestMACD_ConstantSeriesIsZero(t *testing.T) {
	set := Indicators(series(60, func(int) float64 { return 50 }))
	require.NotNil(t, set.MACD)
	require.NotNil(t, set.MACDSignal)
	assert.InDelta(t, 0, *set.MACD, 1e-9)
	assert.InDelta(t, 0, *set.MACDSignal, 1e-9)
	assert.Equal(t, 50.0, *set.SMA50)
	assert.Nil(t, set.RSI)
}

func TestRSICondition(t *testing.T) {
	assert.Equal(t, "neutral", RSICondition(nil))
	assert.Equal(t, "oversold", RSICondition(ptr(29.9)))
	assert.Equal(t, "overbought", RSICondition(ptr(70.1)))
	assert.Equal(t, "neutral", RSICondition(ptr(70)))
}

func TestNewTechnicalIndicators(t *testing.T) {
	t.Run("uptrend", func(t *testing.T) {
		ti, err := NewTechnicalIndicators("NVDA", series(60, func(i int) float64 { return 100 + float64(i) }))
		require.NoError(t, err)

		assert.Equal(t, 159.0, ti.CurrentPrice)
		assert.Equal(t, 149.5, *ti.SMA20)
		assert.Equal(t, 134.5, *ti.SMA50)
		assert.Equal(t, 100.0, *ti.RSI)
		assert.True(t, *ti.Trend.AboveSMA20)
		assert.True(t, *ti.Trend.AboveSMA50)
		assert.Equal(t, "overbought", ti.Trend.RSICondition)
		assert.Greater(t, *ti.MACD, 0.0)
	})
	t.Run("short history", func(t *testing.T) {
		ti, err := NewTechnicalIndicators("NEW", []float64{10, 11, 12})
		require.NoError(t, err)
		assert.Nil(t, ti.SMA20)
		assert.Nil(t, ti.Trend.AboveSMA20)
		assert.Equal(t, "neutral", ti.Trend.RSICondition)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := NewTechnicalIndicators("X", nil)
		assert.ErrorIs(t, err, ErrNoData)
	})
}
