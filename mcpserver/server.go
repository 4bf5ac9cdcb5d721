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

// Package mcpserver exposes the market data and web search tools of the
// analysts over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nlpodyssey/intellimarket/analysts"
)

const (
	Name    = "intellimarket"
	Version = "1.0.0"
)

type symbolInput struct {
	Symbol string `json:"symbol" jsonschema:"stock ticker symbol such as AAPL"`
}

type historyInput struct {
	Symbol string `json:"symbol" jsonschema:"stock ticker symbol such as AAPL"`
	Period string `json:"period,omitempty" jsonschema:"history window: 1mo 3mo 6mo 1y 2y or 5y"`
}

type symbolsInput struct {
	Symbols []string `json:"symbols" jsonschema:"stock ticker symbols to compare"`
}

type searchInput struct {
	Query      string `json:"query" jsonschema:"search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results, 10 by default"`
}

// New returns a server with the tools of tb registered.
func New(tb analysts.Toolbox) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)

	addTool(server, "get_stock_data",
		"Get the current price, valuation and fundamentals of a stock.",
		func(ctx context.Context, in symbolInput) (any, error) {
			return tb.GetStockData(ctx, analysts.SymbolArgs{Symbol: in.Symbol})
		})
	addTool(server, "calculate_technical_indicators",
		"Calculate moving averages, RSI, MACD and Bollinger bands of a stock.",
		func(ctx context.Context, in historyInput) (any, error) {
			return tb.CalculateTechnicalIndicators(ctx, analysts.HistoryArgs{Symbol: in.Symbol, Period: in.Period})
		})
	addTool(server, "compare_companies",
		"Compare the key metrics of several companies.",
		func(ctx context.Context, in symbolsInput) (any, error) {
			return tb.CompareCompanies(ctx, analysts.SymbolsArgs{Symbols: in.Symbols})
		})
	addTool(server, "get_sector_peers",
		"List the main competitors of a company.",
		func(ctx context.Context, in symbolInput) (any, error) {
			return tb.GetSectorPeers(ctx, analysts.SymbolArgs{Symbol: in.Symbol})
		})
	addTool(server, "search_news",
		"Search recent news articles.",
		func(ctx context.Context, in searchInput) (any, error) {
			return tb.SearchNews(ctx, analysts.SearchArgs{Query: in.Query, MaxResults: in.MaxResults})
		})
	addTool(server, "search_general",
		"Search the web.",
		func(ctx context.Context, in searchInput) (any, error) {
			return tb.SearchGeneral(ctx, analysts.SearchArgs{Query: in.Query, MaxResults: in.MaxResults})
		})

	return server
}

// addTool registers call as a tool whose result is sent back as JSON text.
// Errors returned by call are reported to the client as tool errors.
func addTool[In any](server *mcp.Server, name, description string, call func(context.Context, In) (any, error)) {
	mcp.AddTool(server, &mcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			out, err := call(ctx, in)
			if err != nil {
				Logger().Warn("tool call failed", "tool", name, "error", err)
				return nil, nil, err
			}
			b, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return nil, nil, fmt.Errorf("failed to encode %s result: %w", name, err)
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
			}, nil, nil
		})
}

// Run serves tb over stdin and stdout until ctx is done or the client
// disconnects.
func Run(ctx context.Context, tb analysts.Toolbox) error {
	Logger().Info("MCP server starting on stdio", "name", Name)
	return New(tb).Run(ctx, &mcp.StdioTransport{})
}
