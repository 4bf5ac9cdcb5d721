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

func TestFormatLargeNumber(t *testing.T) {
	testCases := []struct {
		v    float64
		want string
	}{
		{0, "N/A"},
		{3.2e12, "$3.2T"},
		{1e12, "$1.0T"},
		{500.24e9, "$500.2B"},
		{10.34e6, "$10.3M"},
		{1500, "$1.5K"},
		{999.999, "$1000.00"},
		{12.5, "$12.50"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, FormatLargeNumber(tc.v), "value %v", tc.v)
	}
}

func TestFormatInteger(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatInteger(1234567))
	assert.Equal(t, "999", FormatInteger(999))
	assert.Equal(t, "-12,000", FormatAmount(-12000.4))
}

func TestOptionalHelpers(t *testing.T) {
	v := 0.4567
	zero := 0.0

	require.NotNil(t, optPercent(&v))
	assert.Equal(t, 45.67, *optPercent(&v))
	assert.Nil(t, optPercent(nil))
	assert.Nil(t, optRound(&zero))

	assert.Same(t, &v, firstNonZero(nil, &zero, &v))
	assert.Nil(t, firstNonZero(nil, &zero))

	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "héllo", truncate("héllo world", 5))
}

func TestNewStockData(t *testing.T) {
	hist := &History{Symbol: "AAPL", Bars: []Bar{
		{Close: 100, Volume: 10},
		{Close: 102.456, Volume: 20},
	}}
	f := Fundamentals{
		Name:          "Apple Inc.",
		MarketCap:     ptr(3.1e12),
		ForwardPE:     ptr(28.123),
		TrailingEPS:   ptr(6.1),
		DividendYield: ptr(0.0044),
		AverageVolume: ptr(5e7),
		GrossMargins:  ptr(0.46),
		TotalRevenue:  ptr(3.9e11),
	}

	data, err := NewStockData("AAPL", hist, f)
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc.", data.Name)
	assert.Equal(t, 102.46, *data.CurrentPrice)
	assert.Equal(t, 2.46, data.PriceChange)
	assert.Equal(t, 2.46, data.PriceChangePct)
	assert.Equal(t, "$3.1T", data.MarketCapFormatted)
	assert.Equal(t, 28.12, *data.PERatio)
	assert.Equal(t, 6.1, *data.EPS)
	assert.Equal(t, 0.44, *data.DividendYield)
	assert.Equal(t, 46.0, *data.GrossMargin)
	assert.Equal(t, "$390.0B", data.RevenueFormatted)
	assert.Equal(t, int64(20), *data.Volume)
	assert.Equal(t, int64(5e7), *data.AvgVolume)
	assert.Equal(t, "N/A", data.Sector)
	assert.Nil(t, data.ROE)
	assert.Equal(t, "N/A", data.EnterpriseValueFormatted)
}

func TestNewStockData_SingleBar(t *testing.T) {
	data, err := NewStockData("X", &History{Bars: []Bar{{Close: 5}}}, Fundamentals{})
	require.NoError(t, err)
	assert.Zero(t, data.PriceChange)
	assert.Zero(t, data.PriceChangePct)
}

func TestNewStockData_NoHistory(t *testing.T) {
	_, err := NewStockData("X", &History{}, Fundamentals{})
	assert.ErrorIs(t, err, ErrNoData)
}

func ptr(v float64) *float64 { return &v }
