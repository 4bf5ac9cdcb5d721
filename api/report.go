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
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/nlpodyssey/intellimarket/marketdata"
	"github.com/nlpodyssey/intellimarket/report"
)

// ArchiveLocationHeader carries where a rendered report was archived.
const ArchiveLocationHeader = "X-Archive-Location"

type reportRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Server) validateSymbol(c *gin.Context) {
	symbol := NormalizeSymbol(c.Param("symbol"))
	if !validSymbol(symbol) || strings.IndexFunc(symbol, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": "Invalid format"})
		return
	}

	data, err := s.market.Quote(c.Request.Context(), symbol)
	switch {
	case marketdata.IsNotFound(err):
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": "Symbol not found"})
		return
	case err != nil:
		Logger().Warn("symbol validation failed", "symbol", symbol, "error", err)
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": "Validation failed"})
		return
	}

	name := data.Name
	if name == "" {
		name = "Unknown"
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"symbol":   symbol,
		"name":     name,
		"sector":   data.Sector,
		"industry": data.Industry,
	})
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func (s *Server) reportPDF(c *gin.Context) {
	var req reportRequest
	_ = c.ShouldBindJSON(&req)
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Body) == "" {
		badRequest(c, "Title and body are required")
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	data, err := report.RenderMarkdown(ctx, s.renderer, title, req.Body)
	if err != nil {
		Logger().Error("report rendering failed", "title", title, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Report rendering failed"})
		return
	}

	filename := report.Filename(title, s.now(), s.renderer.Extension())
	if s.archive != nil {
		location, err := s.archive.Put(ctx, filename, s.renderer.ContentType(), data)
		if err != nil {
			Logger().Warn("failed to archive report", "filename", filename, "error", err)
		} else {
			c.Header(ArchiveLocationHeader, location)
		}
	}

	attachment(c, filename)
	c.Data(http.StatusOK, s.renderer.ContentType(), data)
}

func (s *Server) exportComparison(c *gin.Context) {
	var req symbolsRequest
	_ = c.ShouldBindJSON(&req)
	symbols, msg := comparisonSymbols(req)
	if msg != "" {
		badRequest(c, msg)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	var buf bytes.Buffer
	comparison, err := marketdata.ExportSymbols(ctx, s.market, &buf, symbols, marketdata.DefaultPeriod)
	switch {
	case errors.Is(err, marketdata.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": "No data for the requested symbols"})
		return
	case err != nil:
		failed(c, "Export failed", err)
		return
	}

	attachment(c, report.Filename("Comparison "+strings.Join(comparison.Symbols, " "), s.now(), "xlsx"))
	c.Data(http.StatusOK, marketdata.XLSXContentType, buf.Bytes())
}
