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
	"strings"
	"time"
)

// A Headline is a news item quoted in a summary report.
type Headline struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

// SummaryInput collects the sections of a summary report. Nil sections are
// reported as unavailable.
type SummaryInput struct {
	ExecutiveSummary string               `json:"executive_summary"`
	Financial        *StockData           `json:"financial_data"`
	Technical        *TechnicalIndicators `json:"technical_data"`
	News             []Headline           `json:"news_data"`
	Competitive      *Comparison          `json:"competitive_data"`
	Recommendation   string               `json:"recommendation"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

const maxSummaryHeadlines = 3

// SummaryReport renders the input as a markdown investment report.
func SummaryReport(in SummaryInput) string {
	Logger().Info("generating summary report")
	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	var sb strings.Builder
	sb.WriteString("# Investment Analysis Report\n")
	fmt.Fprintf(&sb, "**Generated on:** %s\n", generated.Format(time.DateTime))
	section(&sb, "Executive Summary", cmp.Or(in.ExecutiveSummary, "Analysis completed"))
	section(&sb, "Financial Metrics", financialSection(in.Financial))
	section(&sb, "Technical Analysis", technicalSection(in.Technical))
	section(&sb, "Market News & Sentiment", newsSection(in.News))
	section(&sb, "Competitive Position", competitiveSection(in.Competitive))
	section(&sb, "Recommendation", cmp.Or(in.Recommendation, "Further analysis required"))
	return sb.String()
}

func section(sb *strings.Builder, title, body string) {
	fmt.Fprintf(sb, "\n## %s\n%s\n", title, strings.TrimRight(body, "\n"))
}

func financialSection(d *StockData) string {
	if d == nil {
		return "Financial data unavailable"
	}
	return fmt.Sprintf(
		"- **Current Price:** $%s\n- **Price Change:** %.2f%%\n- **Market Cap:** %s\n- **P/E Ratio:** %s\n- **Sector:** %s\n",
		fmtOpt(d.CurrentPrice, "%.2f"), d.PriceChangePct, orNA(d.MarketCapFormatted),
		fmtOpt(d.PERatio, "%.2f"), orNA(d.Sector))
}

func technicalSection(t *TechnicalIndicators) string {
	if t == nil {
		return "Technical data unavailable"
	}
	position := func(above *bool) string {
		if above != nil && *above {
			return "Above"
		}
		return "Below"
	}
	return fmt.Sprintf(
		"- **RSI:** %s (%s)\n- **Price vs SMA20:** %s\n- **Price vs SMA50:** %s\n",
		fmtOpt(t.RSI, "%.2f"), t.Trend.RSICondition,
		position(t.Trend.AboveSMA20), position(t.Trend.AboveSMA50))
}

func newsSection(news []Headline) string {
	var sb strings.Builder
	for _, h := range news[:min(len(news), maxSummaryHeadlines)] {
		fmt.Fprintf(&sb, "- **%s** (%s)\n", cmp.Or(h.Title, "N/A"), cmp.Or(h.Source, "Unknown"))
	}
	if sb.Len() == 0 {
		return "No recent news available"
	}
	return sb.String()
}

func competitiveSection(c *Comparison) string {
	if c == nil {
		return "Competitive data unavailable"
	}
	if len(c.Symbols) == 0 {
		return "No comparison data available"
	}
	var sb strings.Builder
	for _, symbol := range c.Symbols {
		m := c.Data[symbol]
		fmt.Fprintf(&sb, "- **%s:** $%s (%.2f%%)\n", symbol, fmtOpt(m.CurrentPrice, "%.2f"), m.PriceChangePct)
	}
	return sb.String()
}
