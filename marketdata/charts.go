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
	"fmt"
	"slices"
	"strings"
	"time"
)

// A Series is the percentage change of a symbol's close from its first
// close, one point per bar.
type Series struct {
	Symbol string  `json:"symbol"`
	Points []Point `json:"points"`
}

type Point struct {
	Time   time.Time `json:"time"`
	Change float64   `json:"change"`
}

// Last returns the final change of the series, or 0 when empty.
func (s Series) Last() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Change
}

// NormalizedPerformance rebases every history to its first close, so that
// series of different price levels can share one chart. Histories that are
// empty or start at zero are skipped.
func NormalizedPerformance(histories []*History) []Series {
	var out []Series
	for _, h := range histories {
		if h.Empty() || h.Bars[0].Close == 0 {
			continue
		}
		base := h.Bars[0].Close
		s := Series{Symbol: h.Symbol, Points: make([]Point, len(h.Bars))}
		for i, b := range h.Bars {
			s.Points[i] = Point{Time: b.Time, Change: round2((b.Close/base - 1) * 100)}
		}
		out = append(out, s)
	}
	return out
}

// PriceChartSummary describes the price action of a history in text: range,
// first and last close, extremes and total change. It stands in for a chart
// where only text can be consumed.
func PriceChartSummary(h *History) string {
	if h.Empty() {
		return "No data available for chart generation"
	}
	first, last := h.Bars[0], h.Bars[len(h.Bars)-1]
	high := slices.MaxFunc(h.Bars, func(a, b Bar) int { return cmp.Compare(a.High, b.High) })
	low := slices.MinFunc(h.Bars, func(a, b Bar) int { return cmp.Compare(a.Low, b.Low) })

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Stock Price (%s)\n", h.Symbol, h.Period)
	fmt.Fprintf(&sb, "- Range: %s to %s (%d sessions)\n", day(first.Time), day(last.Time), len(h.Bars))
	fmt.Fprintf(&sb, "- Open: $%.2f, Close: $%.2f\n", first.Close, last.Close)
	fmt.Fprintf(&sb, "- High: $%.2f on %s\n", high.High, day(high.Time))
	fmt.Fprintf(&sb, "- Low: $%.2f on %s\n", low.Low, day(low.Time))
	if first.Close != 0 {
		fmt.Fprintf(&sb, "- Change: %.2f%%\n", (last.Close/first.Close-1)*100)
	}
	fmt.Fprintf(&sb, "- Last volume: %s\n", FormatInteger(last.Volume))
	return sb.String()
}

// ComparisonChartSummary ranks the series by final performance.
func ComparisonChartSummary(series []Series, period string) string {
	if len(series) == 0 {
		return "No data available for chart generation"
	}
	ranked := slices.Clone(series)
	slices.SortStableFunc(ranked, func(a, b Series) int { return cmp.Compare(b.Last(), a.Last()) })

	var sb strings.Builder
	fmt.Fprintf(&sb, "Stock Price Comparison (%s), percentage change\n", period)
	for i, s := range ranked {
		fmt.Fprintf(&sb, "%d. %s: %.2f%%\n", i+1, s.Symbol, s.Last())
	}
	return sb.String()
}

func day(t time.Time) string {
	return t.Format(time.DateOnly)
}
