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
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/nlpodyssey/intellimarket/jobs"
)

// JobKindStock is the kind of background stock analyses.
const JobKindStock = "stock_analysis"

const streamWriteTimeout = 10 * time.Second

func (s *Server) analyzeStockAsync(c *gin.Context) {
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
	analysisType := AnalysisComprehensive
	if req.Type == AnalysisQuick {
		analysisType = AnalysisQuick
	}

	spec := jobs.Spec{Kind: JobKindStock, Symbol: symbol, AnalysisType: analysisType}
	job, err := s.jobs.Start(c.Request.Context(), spec, func(ctx context.Context) (any, error) {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		if analysisType == AnalysisQuick {
			return s.workflows.QuickAnalysis(ctx, symbol)
		}
		return s.workflows.AnalyzeStock(ctx, symbol)
	})
	if err != nil {
		failed(c, "Failed to start analysis", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": job.ID,
		"status":  job.Status,
		"message": "Analysis started for " + symbol,
	})
}

func (s *Server) taskStatus(c *gin.Context) {
	job, err := s.jobs.Status(c.Request.Context(), c.Param("task_id"))
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case err != nil:
		failed(c, "Failed to get status", err)
	default:
		c.JSON(http.StatusOK, job)
	}
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowed(origin)
		},
	}
}

// taskStream sends the job as JSON on every transition and closes the
// connection after the terminal one.
func (s *Server) taskStream(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := s.jobs.Subscribe(ctx, c.Param("task_id"))
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	case err != nil:
		failed(c, "Failed to get status", err)
		return
	}
	defer sub.Close()

	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		Logger().Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Control frames are only processed while reading.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					Logger().Debug("websocket read stopped", "error", err)
				}
				return
			}
		}
	}()

	for {
		job, ok := sub.Next(ctx)
		if !ok {
			break
		}
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(job); err != nil {
			Logger().Warn("failed to write job update", "task_id", job.ID, "error", err)
			return
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteTimeout))
}
