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

package analysts

import (
	"context"
	"fmt"
	"strings"

	"github.com/nlpodyssey/intellimarket/agents"
	"github.com/nlpodyssey/intellimarket/marketdata"
	"github.com/nlpodyssey/intellimarket/websearch"
)

type SymbolArgs struct {
	Symbol string `json:"symbol" jsonschema:"description=Stock ticker symbol such as AAPL"`
}

type HistoryArgs struct {
	Symbol string `json:"symbol" jsonschema:"description=Stock ticker symbol such as AAPL"`
	Period string `json:"period,omitempty" jsonschema:"description=History window: 1mo 3mo 6mo 1y 2y or 5y"`
}

type SymbolsArgs struct {
	Symbols []string `json:"symbols" jsonschema:"description=Stock ticker symbols to compare"`
}

type ComparisonChartArgs struct {
	Symbols []string `json:"symbols" jsonschema:"description=Stock ticker symbols to chart together"`
	Period  string   `json:"period,omitempty" jsonschema:"description=History window: 1mo 3mo 6mo 1y 2y or 5y"`
}

type SearchArgs struct {
	Query      string `json:"query" jsonschema:"description=Search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of results (default 10)"`
}

type SummaryArgs struct {
	Symbol           string `json:"symbol" jsonschema:"description=Stock ticker symbol such as AAPL"`
	ExecutiveSummary string `json:"executive_summary,omitempty" jsonschema:"description=Executive summary paragraph"`
	Recommendation   string `json:"recommendation,omitempty" jsonschema:"description=Investment recommendation"`
}

// Toolbox implements the analyst tools on top of the data providers.
// Each method is usable directly and through its FunctionTool.
type Toolbox struct {
	Market marketdata.Provider
	Search websearch.Provider
}

func normalize(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", fmt.Errorf("symbol is required")
	}
	return s, nil
}

func normalizeAll(symbols []string) ([]string, error) {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if n, err := normalize(s); err == nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	return out, nil
}

func (t Toolbox) GetStockData(ctx context.Context, args SymbolArgs) (*marketdata.StockData, error) {
	symbol, err := normalize(args.Symbol)
	if err != nil {
		return nil, err
	}
	return t.Market.Quote(ctx, symbol)
}

func (t Toolbox) GetFinancialStatements(ctx context.Context, args SymbolArgs) (string, error) {
	symbol, err := normalize(args.Symbol)
	if err != nil {
		return "", err
	}
	st, err := t.Market.Statements(ctx, symbol)
	if err != nil {
		return "", err
	}
	return st.Markdown(), nil
}

func (t Toolbox) CalculateTechnicalIndicators(ctx context.Context, args HistoryArgs) (*marketdata.TechnicalIndicators, error) {
	symbol, err := normalize(args.Symbol)
	if err != nil {
		return nil, err
	}
	return marketdata.FetchTechnicalIndicators(ctx, t.Market, symbol, args.Period)
}

func (t Toolbox) CompareCompanies(ctx context.Context, args SymbolsArgs) (*marketdata.Comparison, error) {
	symbols, err := normalizeAll(args.Symbols)
	if err != nil {
		return nil, err
	}
	return marketdata.CompareCompanies(ctx, t.Market, symbols)
}

func (t Toolbox) GetSectorPeers(_ context.Context, args SymbolArgs) ([]string, error) {
	peers := marketdata.SectorPeers(args.Symbol)
	if peers == nil {
		peers = []string{}
	}
	return peers, nil
}

func (t Toolbox) CreatePriceChart(ctx context.Context, args HistoryArgs) (string, error) {
	symbol, err := normalize(args.Symbol)
	if err != nil {
		return "", err
	}
	period := args.Period
	if period == "" {
		period = "6mo"
	}
	hist, err := t.Market.History(ctx, symbol, period)
	if err != nil {
		return "", fmt.Errorf("chart generation failed: %w", err)
	}
	return marketdata.PriceChartSummary(hist), nil
}

func (t Toolbox) CreateComparisonChart(ctx context.Context, args ComparisonChartArgs) (string, error) {
	symbols, err := normalizeAll(args.Symbols)
	if err != nil {
		return "", err
	}
	period := args.Period
	if period == "" {
		period = "6mo"
	}
	histories, err := marketdata.FetchHistories(ctx, t.Market, symbols, period)
	if err != nil {
		return "", fmt.Errorf("comparison chart generation failed: %w", err)
	}
	return marketdata.ComparisonChartSummary(marketdata.NormalizedPerformance(histories), period), nil
}

func (t Toolbox) SearchNews(ctx context.Context, args SearchArgs) ([]websearch.NewsResult, error) {
	return t.Search.News(ctx, args.Query, args.MaxResults)
}

func (t Toolbox) SearchGeneral(ctx context.Context, args SearchArgs) ([]websearch.Result, error) {
	return t.Search.Search(ctx, args.Query, args.MaxResults)
}

// GenerateSummaryReport gathers quote, indicators, news and peer metrics of
// a symbol into the markdown summary report. Sections whose data cannot be
// fetched are reported as unavailable.
func (t Toolbox) GenerateSummaryReport(ctx context.Context, args SummaryArgs) (string, error) {
	symbol, err := normalize(args.Symbol)
	if err != nil {
		return "", err
	}
	in := marketdata.SummaryInput{
		ExecutiveSummary: args.ExecutiveSummary,
		Recommendation:   args.Recommendation,
	}
	if data, err := t.Market.Quote(ctx, symbol); err == nil {
		in.Financial = data
	}
	if ti, err := marketdata.FetchTechnicalIndicators(ctx, t.Market, symbol, ""); err == nil {
		in.Technical = ti
	}
	if t.Search != nil {
		if news, err := t.Search.News(ctx, symbol, 3); err == nil {
			for _, n := range news {
				in.News = append(in.News, marketdata.Headline{Title: n.Title, Source: n.Source})
			}
		}
	}
	if peers := marketdata.SectorPeers(symbol); len(peers) > 0 {
		if cmp, err := marketdata.CompareCompanies(ctx, t.Market, append([]string{symbol}, peers...)); err == nil {
			in.Competitive = cmp
		}
	}
	return marketdata.SummaryReport(in), nil
}

// FinancialTools are the market data tools.
func (t Toolbox) FinancialTools() []agents.FunctionTool {
	return []agents.FunctionTool{
		agents.NewFunctionTool("get_stock_data",
			"Get the current price, recent change and key fundamentals of a stock.",
			t.GetStockData),
		agents.NewFunctionTool("get_financial_statements",
			"Get the annual income statement, balance sheet and cash flow statement of a company.",
			t.GetFinancialStatements),
		agents.NewFunctionTool("calculate_technical_indicators",
			"Calculate SMA20, SMA50, RSI and MACD of a stock with the trend analysis.",
			t.CalculateTechnicalIndicators),
	}
}

// ResearchTools are the web search tools.
func (t Toolbox) ResearchTools() []agents.FunctionTool {
	return []agents.FunctionTool{
		agents.NewFunctionTool("search_news",
			"Search recent news articles.",
			t.SearchNews),
		agents.NewFunctionTool("search_general",
			"Perform a general web search.",
			t.SearchGeneral),
	}
}

// CompetitiveTools are the peer comparison tools.
func (t Toolbox) CompetitiveTools() []agents.FunctionTool {
	return []agents.FunctionTool{
		agents.NewFunctionTool("compare_companies",
			"Compare price, valuation and profitability metrics of several companies.",
			t.CompareCompanies),
		agents.NewFunctionTool("get_sector_peers",
			"Get the main sector competitors of a stock.",
			t.GetSectorPeers),
	}
}

// ChartTools describe price charts as text.
func (t Toolbox) ChartTools() []agents.FunctionTool {
	return []agents.FunctionTool{
		agents.NewFunctionTool("create_price_chart",
			"Describe the price chart of a stock over a period: range, extremes and change.",
			t.CreatePriceChart),
		agents.NewFunctionTool("create_comparison_chart",
			"Rank several stocks by percentage change over a period.",
			t.CreateComparisonChart),
	}
}

// ReportTools build the summary report.
func (t Toolbox) ReportTools() []agents.FunctionTool {
	return []agents.FunctionTool{
		agents.NewFunctionTool("generate_summary_report",
			"Generate a markdown summary report of a stock from live data.",
			t.GenerateSummaryReport),
	}
}
