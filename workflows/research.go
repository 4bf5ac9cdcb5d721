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
)

// MaxResearchSymbols bounds the stocks analyzed for a research topic.
const MaxResearchSymbols = 3

// MarketResearch is the result of researching a market topic.
type MarketResearch struct {
	Topic            string            `json:"topic"`
	WebResearch      string            `json:"web_research"`
	ResearchReport   string            `json:"research_report"`
	FinancialContext map[string]string `json:"financial_context"`
	Timestamp        string            `json:"timestamp"`
}

// ResearchMarketTopic analyzes the sentiment around topic, adds a financial
// analysis of the known stocks it mentions, and writes a research report.
func (w *Workflows) ResearchMarketTopic(ctx context.Context, topic string) (*MarketResearch, error) {
	Logger().Info("researching market topic", "topic", topic)
	team := w.Team
	res := &MarketResearch{Topic: topic, FinancialContext: map[string]string{}}

	var err error
	if res.WebResearch, err = team.Research.AnalyzeMarketSentiment(ctx, topic); err != nil {
		return nil, err
	}

	symbols := ExtractSymbols(topic)
	if len(symbols) > MaxResearchSymbols {
		symbols = symbols[:MaxResearchSymbols]
	}
	if len(symbols) > 0 {
		Logger().Info("found stocks in topic", "symbols", strings.Join(symbols, ", "))
	}
	data := []analysts.Section{
		{Title: "Topic", Body: topic},
		{Title: "Web Research", Body: res.WebResearch},
	}
	for _, symbol := range symbols {
		analysis, err := team.Financial.AnalyzeStock(ctx, symbol)
		if err != nil {
			return nil, err
		}
		res.FinancialContext[symbol] = analysis
		data = append(data, analysts.Section{
			Title: fmt.Sprintf("Financial Context: %s", symbol),
			Body:  analysis,
		})
	}
	data = append(data,
		analysts.Section{Title: "Analysis Type", Body: "market_research"},
		analysts.Section{Title: "Timestamp", Body: w.timestamp()},
	)

	if res.ResearchReport, err = team.Report.CreateMarketSummary(ctx, data); err != nil {
		return nil, err
	}
	res.Timestamp = w.timestamp()

	Logger().Info("market research complete", "topic", topic)
	return res, nil
}
