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
package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/nlpodyssey/intellimarket/analysts"
	"golang.org/x/sync/errgroup"
)

// StockComparison is the result of comparing several stocks.
type StockComparison struct {
	Symbols             []string          `json:"symbols"`
	FinancialComparison string            `json:"financial_comparison"`
	TechnicalComparison string            `json:"technical_comparison"`
	CompetitiveAnalyses map[string]string `json:"competitive_analyses"`
	ComparisonReport    string            `json:"comparison_report"`
	Timestamp           string            `json:"timestamp"`
}

// CompareStocks compares symbols on financials and charts, analyzes the
// competitive landscape of each, and summarizes everything.
func (w *Workflows) CompareStocks(ctx context.Context, symbols []string) (*StockComparison, error) {
	Logger().Info("comparing stocks", "symbols", strings.Join(symbols, ", "))
	team := w.Team
	res := &StockComparison{Symbols: symbols}

	financial, err := team.Financial.CompareStocks(ctx, symbols)
	if err != nil {
		return nil, err
	}
	if HasPlaceholder(financial) {
		Logger().Warn("price placeholder in financial comparison", "symbols", strings.Join(symbols, ", "))
	}
	res.FinancialComparison = financial

	if res.TechnicalComparison, err = team.Technical.ChartAnalysis(ctx, symbols); err != nil {
		return nil, err
	}

	competitive := make([]string, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		g.Go(func() (err error) {
			competitive[i], err = team.Competitive.AnalyzeCompetitiveLandscape(gctx, symbol)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.CompetitiveAnalyses = make(map[string]string, len(symbols))
	for i, symbol := range symbols {
		res.CompetitiveAnalyses[symbol] = competitive[i]
	}

	data := []analysts.Section{
		{Title: "Symbols", Body: strings.Join(symbols, ", ")},
		{Title: "Financial Comparison", Body: res.FinancialComparison},
		{Title: "Technical Comparison", Body: res.TechnicalComparison},
	}
	for i, symbol := range symbols {
		data = append(data, analysts.Section{
			Title: fmt.Sprintf("Competitive Analysis: %s", symbol),
			Body:  competitive[i],
		})
	}
	data = append(data,
		analysts.Section{Title: "Analysis Type", Body: "comparison"},
		analysts.Section{Title: "Timestamp", Body: w.timestamp()},
	)

	if res.ComparisonReport, err = team.Report.CreateMarketSummary(ctx, data); err != nil {
		return nil, err
	}
	res.Timestamp = w.timestamp()

	Logger().Info("comparison complete")
	return res, nil
}
