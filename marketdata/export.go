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
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	MetricsSheet     = "Metrics"
	PerformanceSheet = "Performance"

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var metricsHeader = []any{
	"Symbol", "Price", "Change %", "Market Cap", "P/E", "Revenue",
	"Gross Margin %", "Operating Margin %", "ROE %", "Sector", "Industry",
}

// ExportSymbols compares symbols, loads their history over period and
// writes the workbook to w. It returns the comparison, or an error wrapping
// ErrNoData when none of the symbols has a quote.
func ExportSymbols(ctx context.Context, p Provider, w io.Writer, symbols []string, period string) (*Comparison, error) {
	comparison, err := CompareCompanies(ctx, p, symbols)
	if err != nil {
		return nil, err
	}
	if len(comparison.Symbols) == 0 {
		return nil, fmt.Errorf("%w for %v", ErrNoData, symbols)
	}
	histories, err := FetchHistories(ctx, p, comparison.Symbols, period)
	if err != nil {
		return nil, err
	}
	if err := ExportComparison(w, comparison, NormalizedPerformance(histories)); err != nil {
		return nil, err
	}
	return comparison, nil
}

// ExportComparison writes an xlsx workbook with the comparison metrics on
// one sheet, and the normalized performance of series with a line chart on
// another. series may be empty, in which case only the metrics are written.
func ExportComparison(w io.Writer, comparison *Comparison, series []Series) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", MetricsSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := writeMetrics(f, comparison, bold); err != nil {
		return fmt.Errorf("failed to write metrics sheet: %w", err)
	}
	if len(series) > 0 {
		if err := writePerformance(f, series, bold); err != nil {
			return fmt.Errorf("failed to write performance sheet: %w", err)
		}
	}
	return f.Write(w)
}

func writeMetrics(f *excelize.File, comparison *Comparison, headerStyle int) error {
	if err := f.SetSheetRow(MetricsSheet, "A1", &metricsHeader); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(metricsHeader))
	if err := f.SetCellStyle(MetricsSheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}

	for i, symbol := range comparison.Symbols {
		m := comparison.Data[symbol]
		row := []any{
			symbol, optCell(m.CurrentPrice), m.PriceChangePct, m.MarketCap,
			optCell(m.PERatio), m.Revenue, optCell(m.GrossMargin),
			optCell(m.OperatingMargin), optCell(m.ROE), m.Sector, m.Industry,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(MetricsSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(MetricsSheet, "A", last, 16)
}

func writePerformance(f *excelize.File, series []Series, headerStyle int) error {
	if _, err := f.NewSheet(PerformanceSheet); err != nil {
		return err
	}

	// Rows are the union of all dates, since listings may trade on
	// different days.
	var dates []time.Time
	values := make([]map[time.Time]float64, len(series))
	for i, s := range series {
		values[i] = make(map[time.Time]float64, len(s.Points))
		for _, p := range s.Points {
			values[i][p.Time] = p.Change
			dates = append(dates, p.Time)
		}
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	dates = slices.Compact(dates)

	header := []any{"Date"}
	for _, s := range series {
		header = append(header, s.Symbol)
	}
	if err := f.SetSheetRow(PerformanceSheet, "A1", &header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(PerformanceSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for r, d := range dates {
		row := []any{day(d)}
		for i := range series {
			if v, ok := values[i][d]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(PerformanceSheet, cell, &row); err != nil {
			return err
		}
	}

	lastRow := len(dates) + 1
	chart := &excelize.Chart{
		Type:   excelize.Line,
		Title:  []excelize.RichTextRun{{Text: "Stock Price Comparison (% change)"}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	}
	for i := range series {
		col, _ := excelize.ColumnNumberToName(i + 2)
		chart.Series = append(chart.Series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", PerformanceSheet, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", PerformanceSheet, lastRow),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", PerformanceSheet, col, col, lastRow),
		})
	}
	anchor, _ := excelize.ColumnNumberToName(len(header) + 2)
	return f.AddChart(PerformanceSheet, anchor+"2", chart)
}

func optCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
