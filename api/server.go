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

// Package api serves the IntelliMarket workflows over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nlpodyssey/intellimarket/archive"
	"github.com/nlpodyssey/intellimarket/jobs"
	"github.com/nlpodyssey/intellimarket/marketdata"
	"github.com/nlpodyssey/intellimarket/report"
	"github.com/nlpodyssey/intellimarket/workflows"
)

const (
	ServiceName = "IntelliMarket API"
	Version     = "1.0.0"

	// MaxSymbolLength is the longest ticker accepted by the endpoints.
	MaxSymbolLength = 5
	// MinComparisonSymbols and MaxComparisonSymbols bound a comparison.
	MinComparisonSymbols = 2
	MaxComparisonSymbols = 5

	shutdownTimeout = 10 * time.Second
)

// Workflows is what the handlers need from the analysis workflows.
type Workflows interface {
	AnalyzeStock(ctx context.Context, symbol string) (*workflows.StockAnalysis, error)
	QuickAnalysis(ctx context.Context, symbol string) (string, error)
	CompareStocks(ctx context.Context, symbols []string) (*workflows.StockComparison, error)
	ResearchMarketTopic(ctx context.Context, topic string) (*workflows.MarketResearch, error)
	ProcessQuery(ctx context.Context, query string) (string, error)
}

var _ Workflows = (*workflows.Workflows)(nil)

type Params struct {
	Workflows Workflows
	Market    marketdata.Provider
	Jobs      *jobs.Manager
	Renderer  report.Renderer
	// Optional. Rendered reports are stored here when set.
	Archive archive.Archive
	// Origins allowed by CORS. "*" allows any origin.
	CORSOrigins []string
	// Optional upper bound for synchronous analyses.
	Timeout time.Duration
	// Optional. Defaults to os.Stderr.
	AccessLog io.Writer
	// Optional. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	workflows Workflows
	market    marketdata.Provider
	jobs      *jobs.Manager
	renderer  report.Renderer
	archive   archive.Archive
	origins   []string
	timeout   time.Duration
	accessLog io.Writer
	now       func() time.Time
}

func New(params Params) *Server {
	s := &Server{
		workflows: params.Workflows,
		market:    params.Market,
		jobs:      params.Jobs,
		renderer:  params.Renderer,
		archive:   params.Archive,
		origins:   params.CORSOrigins,
		timeout:   params.Timeout,
		accessLog: params.AccessLog,
		now:       params.Now,
	}
	if s.accessLog == nil {
		s.accessLog = os.Stderr
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler returns the router serving every endpoint.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(
		gin.LoggerWithWriter(s.accessLog, "/health"),
		gin.CustomRecoveryWithWriter(s.accessLog, func(c *gin.Context, recovered any) {
			Logger().Error("handler panicked", "path", c.Request.URL.Path, "panic", recovered)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}),
		s.cors(),
	)

	router.GET("/health", s.health)

	analyze := router.Group("/api/analyze")
	analyze.POST("/stock", s.analyzeStock)
	analyze.POST("/comparison", s.analyzeComparison)
	analyze.POST("/research", s.analyzeResearch)
	analyze.POST("/query", s.analyzeQuery)
	analyze.POST("/async/stock", s.analyzeStockAsync)

	router.GET("/api/status/:task_id", s.taskStatus)
	router.GET("/api/status/:task_id/stream", s.taskStream)
	router.GET("/api/validate/symbol/:symbol", s.validateSymbol)
	router.GET("/api/system/info", s.systemInfo)
	router.POST("/api/report/pdf", s.reportPDF)
	router.POST("/api/export/comparison", s.exportComparison)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})
	return router
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		Logger().Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	Logger().Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) allowed(origin string) bool {
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && s.allowed(origin) {
			if u, err := url.Parse(origin); err == nil && u.Host != "" {
				origin = u.Scheme + "://" + u.Host
			}
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestContext bounds synchronous work by the configured timeout.
func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.timeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (s *Server) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": ServiceName})
}

func (s *Server) systemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": ServiceName,
		"version": Version,
		"status":  "operational",
		"features": []string{
			"Single stock analysis",
			"Stock comparison",
			"Market research",
			"Custom queries",
			"Async processing",
			"PDF reports",
			"Spreadsheet export",
		},
		"timestamp": s.timestamp(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func failed(c *gin.Context, msg string, err error) {
	Logger().Error(msg, "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "details": err.Error()})
}

var apiLogger atomic.Pointer[slog.Logger]

func init() {
	apiLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

func Logger() *slog.Logger {
	return apiLogger.Load()
}

// SetLogger replaces the package logger. A nil logger is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		apiLogger.Store(l)
	}
}
