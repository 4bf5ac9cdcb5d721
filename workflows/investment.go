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
	"regexp"
	"strings"

	"github.com/nlpodyssey/intellimarket/analysts"
	"golang.org/x/sync/errgroup"
)

// PricePlaceholder is the literal the models sometimes emit in place of a
// price they failed to read from the tools.
const PricePlaceholder = "$1"

// amountRe matches dollar amounts starting with 1, so that real figures like
// "$150.25" are told apart from a bare placeholder.
var amountRe = regexp.MustCompile(`\$1[0-9.,]*`)

func isPlaceholder(amount string) bool {
	return strings.TrimRight(amount, ".,") == PricePlaceholder
}

// HasPlaceholder reports whether text contains a bare "$1" price.
func HasPlaceholder(text string) bool {
	for _, m := range amountRe.FindAllString(text, -1) {
		if isPlaceholder(m) {
			return true
		}
	}
	return false
}

// StockAnalysis is the result of a comprehensive stock analysis.
type StockAnalysis struct {
	Symbol              string `json:"symbol"`
	Timestamp           string `json:"timestamp"`
	FinancialAnalysis   string `json:"financial_analysis"`
	TechnicalAnalysis   string `json:"technical_analysis"`
	NewsAnalysis        string `json:"news_analysis"`
	CompetitiveAnalysis string `json:"competitive_analysis"`
	FinalReport         string `json:"final_report"`
}

// AnalyzeStock runs the financial, technical, news and competitive analyses
// of symbol concurrently, then has the report analyst synthesize them.
func (w *Workflows) AnalyzeStock(ctx context.Context, symbol string) (*StockAnalysis, error) {
	Logger().Info("starting comprehensive analysis", "symbol", symbol)
	team := w.Team
	res := &StockAnalysis{Symbol: symbol}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.FinancialAnalysis, err = team.Financial.AnalyzeStock(gctx, symbol)
		return err
	})
	g.Go(func() (err error) {
		res.TechnicalAnalysis, err = team.Technical.TechnicalAnalysis(gctx, symbol)
		return err
	})
	g.Go(func() (err error) {
		res.NewsAnalysis, err = team.Research.ResearchCompanyNews(gctx, symbol)
		return err
	})
	g.Go(func() (err error) {
		res.CompetitiveAnalysis, err = team.Competitive.AnalyzeCompetitiveLandscape(gctx, symbol)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis of %s failed: %w", symbol, err)
	}
	if HasPlaceholder(res.FinancialAnalysis) {
		Logger().Warn("price placeholder in financial analysis", "symbol", symbol)
	}

	Logger().Info("generating comprehensive report", "symbol", symbol)
	report, err := team.Report.GenerateInvestmentReport(ctx, symbol, []analysts.Section{
		{Title: "Financial Analysis", Body: res.FinancialAnalysis},
		{Title: "Technical Analysis", Body: res.TechnicalAnalysis},
		{Title: "News Analysis", Body: res.NewsAnalysis},
		{Title: "Competitive Analysis", Body: res.CompetitiveAnalysis},
		{Title: "Timestamp", Body: w.timestamp()},
	})
	if err != nil {
		return nil, fmt.Errorf("report for %s failed: %w", symbol, err)
	}
	if HasPlaceholder(report) {
		Logger().Warn("price placeholder in final report", "symbol", symbol)
	}
	res.FinalReport = report
	res.Timestamp = w.timestamp()

	Logger().Info("analysis complete", "symbol", symbol)
	return res, nil
}

// QuickAnalysis runs only the financial and technical analyses and returns
// the synthesized report. Placeholder prices are replaced with the real
// price when it can be fetched.
func (w *Workflows) QuickAnalysis(ctx context.Context, symbol string) (string, error) {
	Logger().Info("quick analysis", "symbol", symbol)
	team := w.Team
	price := w.currentPrice(ctx, symbol)

	financial, err := team.Financial.AnalyzeStock(ctx, symbol)
	if err != nil {
		return "", err
	}
	technical, err := team.Technical.TechnicalAnalysis(ctx, symbol)
	if err != nil {
		return "", err
	}
	financial = fillPrice(financial, price, symbol)

	report, err := team.Report.GenerateInvestmentReport(ctx, symbol, []analysts.Section{
		{Title: "Financial Analysis", Body: financial},
		{Title: "Technical Analysis", Body: technical},
		{Title: "Analysis Type", Body: "quick"},
		{Title: "Timestamp", Body: w.timestamp()},
	})
	if err != nil {
		return "", err
	}
	report = fillPrice(report, price, symbol)
	if HasPlaceholder(report) {
		Logger().Error("price placeholder left in quick report", "symbol", symbol)
	}

	Logger().Info("quick analysis complete", "symbol", symbol)
	return report, nil
}

// currentPrice returns the formatted price of symbol, or "" when unknown.
func (w *Workflows) currentPrice(ctx context.Context, symbol string) string {
	if w.Market == nil {
		return ""
	}
	data, err := w.Market.Quote(ctx, symbol)
	if err != nil {
		Logger().Warn("price lookup failed", "symbol", symbol, "error", err)
		return ""
	}
	if data.CurrentPrice == nil {
		return ""
	}
	return fmt.Sprintf("$%.2f", *data.CurrentPrice)
}

// fillPrice replaces every bare "$1" in text with price, keeping any
// trailing punctuation.
func fillPrice(text, price, symbol string) string {
	if price == "" || !HasPlaceholder(text) {
		return text
	}
	Logger().Warn("replacing price placeholder", "symbol", symbol, "price", price)
	return amountRe.ReplaceAllStringFunc(text, func(m string) string {
		if !isPlaceholder(m) {
			return m
		}
		return price + m[len(PricePlaceholder):]
	})
}
