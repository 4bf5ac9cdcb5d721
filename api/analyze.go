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

package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	AnalysisQuick         = "quick"
	AnalysisComprehensive = "comprehensive"
)

type stockRequest struct {
	Symbol *string `json:"symbol"`
	Type   string  `json:"type"`
}

type symbolsRequest struct {
	Symbols []string `json:"symbols"`
}

type topicRequest struct {
	Topic *string `json:"topic"`
}

type queryRequest struct {
	Query *string `json:"query"`
}

// NormalizeSymbol uppercases and trims a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeSymbols normalizes each ticker and drops blanks.
func NormalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = NormalizeSymbol(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func validSymbol(symbol string) bool {
	return symbol != "" && len(symbol) <= MaxSymbolLength
}

// comparisonSymbols validates a comparison request and returns an error
// message for the client, or "" when the symbols are acceptable.
func comparisonSymbols(req symbolsRequest) ([]string, string) {
	if req.Symbols == nil {
		return nil, "Symbols list is required"
	}
	symbols := NormalizeSymbols(req.Symbols)
	switch {
	case len(symbols) < MinComparisonSymbols:
		return nil, "At least 2 symbols required for comparison"
	case len(symbols) > MaxComparisonSymbols:
		return nil, "Maximum 5 symbols allowed for comparison"
	}
	return symbols, ""
}

func (s *Server) analyzeStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Symbol == nil {
		badRequest(c, "Symbol is required")
		return
	}
	symbol := NormalizeSymbol(*req.Symbol)
	if !validSymbol(symbol) {
		badRequest(c, "Invalid symbol format")
		return
	}
	analysisType := req.Type
	if analysisType == "" {
		analysisType = AnalysisQuick
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	var (
		result any
		err    error
	)
	if analysisType == AnalysisQuick {
		result, err = s.workflows.QuickAnalysis(ctx, symbol)
	} else {
		analysisType = AnalysisComprehensive
		result, err = s.workflows.AnalyzeStock(ctx, symbol)
	}
	if err != nil {
		failed(c, "Analysis failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":        symbol,
		"analysis_type": analysisType,
		"result":        result,
		"timestamp":     s.timestamp(),
		"status":        "completed",
	})
}

func (s *Server) analyzeComparison(c *gin.Context) {
	var req symbolsRequest
	_ = c.ShouldBindJSON(&req)
	symbols, msg := comparisonSymbols(req)
	if msg != "" {
		badRequest(c, msg)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.workflows.CompareStocks(ctx, symbols)
	if err != nil {
		failed(c, "Comparison failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbols":       symbols,
		"analysis_type": "comparison",
		"result":        result,
		"timestamp":     s.timestamp(),
		"status":        "completed",
	})
}

func (s *Server) analyzeResearch(c *gin.Context) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Topic == nil {
		badRequest(c, "Research topic is required")
		return
	}
	topic := strings.TrimSpace(*req.Topic)
	if topic == "" {
		badRequest(c, "Topic cannot be empty")
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	research, err := s.workflows.ResearchMarketTopic(ctx, topic)
	if err != nil {
		failed(c, "Market research failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"topic":         topic,
		"analysis_type": "market_research",
		"result":        research.ResearchReport,
		"timestamp":     s.timestamp(),
		"status":        "completed",
	})
}

func (s *Server) analyzeQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == nil {
		badRequest(c, "Query is required")
		return
	}
	query := strings.TrimSpace(*req.Query)
	if query == "" {
		badRequest(c, "Query cannot be empty")
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.workflows.ProcessQuery(ctx, query)
	if err != nil {
		failed(c, "Custom query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":         query,
		"analysis_type": "custom_query",
		"result":        result,
		"timestamp":     s.timestamp(),
		"status":        "completed",
	})
}
