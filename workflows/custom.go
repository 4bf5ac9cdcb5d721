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
	"strings"

	"github.com/nlpodyssey/intellimarket/analysts"
)

// ResultSeparator joins the partial answers of a custom query.
const ResultSeparator = "\n\n---\n\n"

// MaxQueryFinancialSymbols bounds the financial analyses run for one query.
const MaxQueryFinancialSymbols = 2

var (
	financialKeywords   = []string{"financial", "earnings", "revenue", "profit", "valuation", "metrics"}
	technicalKeywords   = []string{"technical", "chart", "trend", "rsi", "moving average", "support", "resistance"}
	researchKeywords    = []string{"news", "sentiment", "market", "trend", "recent", "latest"}
	competitiveKeywords = []string{"competitor", "compare", "versus", "vs", "competition"}
)

func mentionsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// ProcessQuery answers a free-form question. The analysts involved are
// chosen from the keywords of the query, and their answers are synthesized
// by the report analyst. Queries matching no keyword get a general market
// research.
func (w *Workflows) ProcessQuery(ctx context.Context, query string) (string, error) {
	Logger().Info("processing custom query", "query", clip(query, 100))
	team := w.Team
	lower := strings.ToLower(query)
	symbols := ExtractQuerySymbols(query)

	var results []string
	if mentionsAny(lower, financialKeywords) && len(symbols) > 0 {
		Logger().Info("using financial analyst")
		for _, symbol := range symbols[:min(len(symbols), MaxQueryFinancialSymbols)] {
			out, err := team.Financial.AnalyzeStock(ctx, symbol)
			if err != nil {
				return "", err
			}
			if HasPlaceholder(out) {
				Logger().Warn("price placeholder in query analysis", "symbol", symbol)
			}
			results = append(results, "Financial Analysis for "+symbol+":\n"+out)
		}
	}
	if mentionsAny(lower, technicalKeywords) && len(symbols) > 0 {
		Logger().Info("using technical analyst")
		out, err := team.Technical.TechnicalAnalysis(ctx, symbols[0])
		if err != nil {
			return "", err
		}
		results = append(results, "Technical Analysis:\n"+out)
	}
	if mentionsAny(lower, researchKeywords) {
		Logger().Info("using research analyst")
		out, err := team.Research.AnalyzeMarketSentiment(ctx, query)
		if err != nil {
			return "", err
		}
		results = append(results, "Market Research:\n"+out)
	}
	if mentionsAny(lower, competitiveKeywords) && len(symbols) > 0 {
		Logger().Info("using competitive analyst")
		out, err := team.Competitive.AnalyzeCompetitiveLandscape(ctx, symbols[0])
		if err != nil {
			return "", err
		}
		results = append(results, "Competitive Analysis:\n"+out)
	}
	if len(results) == 0 {
		Logger().Info("using general research")
		out, err := team.Research.AnalyzeMarketSentiment(ctx, query)
		if err != nil {
			return "", err
		}
		results = append(results, out)
	}

	answer, err := team.Report.CreateMarketSummary(ctx, []analysts.Section{
		{Title: "Query", Body: query},
		{Title: "Analysis Results", Body: strings.Join(results, ResultSeparator)},
		{Title: "Analysis Type", Body: "custom_query"},
		{Title: "Timestamp", Body: w.timestamp()},
	})
	if err != nil {
		return "", err
	}
	if HasPlaceholder(answer) {
		Logger().Warn("price placeholder in query answer")
	}
	Logger().Info("query processing complete")
	return answer, nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
