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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/nlpodyssey/intellimarket/api"
	"github.com/nlpodyssey/intellimarket/jobs"
	"github.com/nlpodyssey/intellimarket/marketdata"
	"github.com/nlpodyssey/intellimarket/marketdata/marketdatatest"
	"github.com/nlpodyssey/intellimarket/report"
	"github.com/nlpodyssey/intellimarket/workflows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var fixedNow = time.Date(2025, 6, 2, 15, 4, 5, 0, time.UTC)

type fakeWorkflows struct {
	mu    sync.Mutex
	calls []string
	err   error
	// release, when set, blocks AnalyzeStock until it is closed.
	release chan struct{}
}

func (f *fakeWorkflows) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeWorkflows) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeWorkflows) AnalyzeStock(ctx context.Context, symbol string) (*workflows.StockAnalysis, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.record("analyze:" + symbol); err != nil {
		return nil, err
	}
	return &workflows.StockAnalysis{Symbol: symbol, FinalReport: "full report on " + symbol}, nil
}

func (f *fakeWorkflows) QuickAnalysis(_ context.Context, symbol string) (string, error) {
	if err := f.record("quick:" + symbol); err != nil {
		return "", err
	}
	return "quick report on " + symbol, nil
}

func (f *fakeWorkflows) CompareStocks(_ context.Context, symbols []string) (*workflows.StockComparison, error) {
	if err := f.record("compare:" + strings.Join(symbols, ",")); err != nil {
		return nil, err
	}
	return &workflows.StockComparison{Symbols: symbols, ComparisonReport: "comparison"}, nil
}

func (f *fakeWorkflows) ResearchMarketTopic(_ context.Context, topic string) (*workflows.MarketResearch, error) {
	if err := f.record("research:" + topic); err != nil {
		return nil, err
	}
	return &workflows.MarketResearch{Topic: topic, ResearchReport: "research on " + topic}, nil
}

func (f *fakeWorkflows) ProcessQuery(_ context.Context, query string) (string, error) {
	if err := f.record("query:" + query); err != nil {
		return "", err
	}
	return "answer to " + query, nil
}

type fakeArchive struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (a *fakeArchive) Put(_ context.Context, name, _ string, _ []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.names = append(a.names, name)
	return "mem://" + name, nil
}

type failingRenderer struct{}

func (failingRenderer) Render(context.Context, report.Document) ([]byte, error) {
	return nil, errors.New("boom")
}
func (failingRenderer) ContentType() string { return "application/pdf" }
func (failingRenderer) Extension() string   { return "pdf" }

type fixture struct {
	workflows *fakeWorkflows
	market    *marketdatatest.Provider
	jobs      *jobs.Manager
	archive   *fakeArchive
	handler   http.Handler
}

func newFixture(t *testing.T, edit func(*api.Params)) *fixture {
	t.Helper()
	f := &fixture{
		workflows: &fakeWorkflows{},
		market:    marketdatatest.New(),
		jobs:      jobs.NewManager(jobs.ManagerParams{}),
		archive:   &fakeArchive{},
	}
	t.Cleanup(f.jobs.Close)

	params := api.Params{
		Workflows:   f.workflows,
		Market:      f.market,
		Jobs:        f.jobs,
		Renderer:    report.NewPDFRenderer(),
		Archive:     f.archive,
		CORSOrigins: []string{"http://localhost:3000"},
		AccessLog:   io.Discard,
		Now:         func() time.Time { return fixedNow },
	}
	if edit != nil {
		edit(&params)
	}
	f.handler = api.New(params).Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"IntelliMarket API"}`, w.Body.String())
}

func TestAnalyzeStock(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/analyze/stock", `{"symbol":" aapl "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"symbol": "AAPL",
		"analysis_type": "quick",
		"result": "quick report on AAPL",
		"timestamp": "2025-06-02T15:04:05Z",
		"status": "completed"
	}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/analyze/stock", `{"symbol":"MSFT","type":"comprehensive"}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "comprehensive", out["analysis_type"])
	assert.Equal(t, "full report on MSFT", out["result"].(map[string]any)["final_report"])

	assert.Equal(t, []string{"quick:AAPL", "analyze:MSFT"}, f.workflows.Calls())
}

func TestAnalyzeStock_BadRequests(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want string
	}{
		{"no body", "", "Symbol is required"},
		{"no symbol", `{"type":"quick"}`, "Symbol is required"},
		{"invalid json", `{"symbol":`, "Symbol is required"},
		{"blank symbol", `{"symbol":"  "}`, "Invalid symbol format"},
		{"too long", `{"symbol":"ABCDEF"}`, "Invalid symbol format"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			w := f.do(t, http.MethodPost, "/api/analyze/stock", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, decode(t, w)["error"])
			assert.Empty(t, f.workflows.Calls())
		})
	}
}

func TestAnalyze_WorkflowFailures(t *testing.T) {
	testCases := []struct {
		path string
		body string
		want string
	}{
		{"/api/analyze/stock", `{"symbol":"AAPL"}`, "Analysis failed"},
		{"/api/analyze/comparison", `{"symbols":["AAPL","MSFT"]}`, "Comparison failed"},
		{"/api/analyze/research", `{"topic":"AI chips"}`, "Market research failed"},
		{"/api/analyze/query", `{"query":"how is AAPL?"}`, "Custom query failed"},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			f := newFixture(t, nil)
			f.workflows.err = errors.New("model unavailable")

			w := f.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, map[string]any{"error": tc.want, "details": "model unavailable"}, decode(t, w))
		})
	}
}

func TestAnalyzeComparison(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/analyze/comparison", `{"symbols":["aapl"," ","msft"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, []any{"AAPL", "MSFT"}, out["symbols"])
	assert.Equal(t, "comparison", out["analysis_type"])
	assert.Equal(t, []string{"compare:AAPL,MSFT"}, f.workflows.Calls())
}

func TestAnalyzeComparison_BadRequests(t *testing.T) {
	testCases := map[string]struct {
		body string
		want string
	}{
		"missing":   {`{}`, "Symbols list is required"},
		"too few":   {`{"symbols":["AAPL",""]}`, "At least 2 symbols required for comparison"},
		"too many":  {`{"symbols":["A","B","C","D","E","F"]}`, "Maximum 5 symbols allowed for comparison"},
		"no body":   {"", "Symbols list is required"},
		"not array": {`{"symbols":"AAPL"}`, "Symbols list is required"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil)
			w := f.do(t, http.MethodPost, "/api/analyze/comparison", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, decode(t, w)["error"])
		})
	}
}

func TestAnalyzeResearch(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/analyze/research", `{"topic":"  AI chips "}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "AI chips", out["topic"])
	assert.Equal(t, "market_research", out["analysis_type"])
	assert.Equal(t, "research on AI chips", out["result"])

	w = f.do(t, http.MethodPost, "/api/analyze/research", `{}`)
	assert.Equal(t, "Research topic is required", decode(t, w)["error"])
	w = f.do(t, http.MethodPost, "/api/analyze/research", `{"topic":" "}`)
	assert.Equal(t, "Topic cannot be empty", decode(t, w)["error"])
}

func TestAnalyzeQuery(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/analyze/query", `{"query":"compare AAPL vs MSFT"}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "custom_query", out["analysis_type"])
	assert.Equal(t, "answer to compare AAPL vs MSFT", out["result"])

	w = f.do(t, http.MethodPost, "/api/analyze/query", `{}`)
	assert.Equal(t, "Query is required", decode(t, w)["error"])
	w = f.do(t, http.MethodPost, "/api/analyze/query", `{"query":""}`)
	assert.Equal(t, "Query cannot be empty", decode(t, w)["error"])
}

func TestAsyncAnalysis(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/analyze/async/stock", `{"symbol":"nvda"}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "started", out["status"])
	assert.Equal(t, "Analysis started for NVDA", out["message"])
	taskID := out["task_id"].(string)
	require.NotEmpty(t, taskID)

	job, err := f.jobs.Wait(t.Context(), taskID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)

	w = f.do(t, http.MethodGet, "/api/status/"+taskID, "")
	require.Equal(t, http.StatusOK, w.Code)
	out = decode(t, w)
	assert.Equal(t, "completed", out["status"])
	assert.EqualValues(t, 100, out["progress"])
	assert.Equal(t, "comprehensive", out["analysis_type"])
	assert.Equal(t, "full report on NVDA", out["result"].(map[string]any)["final_report"])
}

func TestAsyncAnalysis_Failure(t *testing.T) {
	f := newFixture(t, nil)
	f.workflows.err = errors.New("quota exceeded")

	w := f.do(t, http.MethodPost, "/api/analyze/async/stock", `{"symbol":"AAPL","type":"quick"}`)
	require.Equal(t, http.StatusOK, w.Code)
	taskID := decode(t, w)["task_id"].(string)

	_, err := f.jobs.Wait(t.Context(), taskID)
	require.NoError(t, err)

	out := decode(t, f.do(t, http.MethodGet, "/api/status/"+taskID, ""))
	assert.Equal(t, "failed", out["status"])
	assert.Equal(t, "quota exceeded", out["error"])
	assert.Equal(t, []string{"quick:AAPL"}, f.workflows.Calls())
}

func TestAsyncAnalysis_ManagerClosed(t *testing.T) {
	f := newFixture(t, nil)
	f.jobs.Close()

	w := f.do(t, http.MethodPost, "/api/analyze/async/stock", `{"symbol":"AAPL"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to start analysis", decode(t, w)["error"])
}

func TestTaskStatus_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/api/status/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Task not found"}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/status/nope/stream", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskStream(t *testing.T) {
	f := newFixture(t, nil)
	f.workflows.release = make(chan struct{})

	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	w := f.do(t, http.MethodPost, "/api/analyze/async/stock", `{"symbol":"AAPL"}`)
	require.Equal(t, http.StatusOK, w.Code)
	taskID := decode(t, w)["task_id"].(string)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/status/" + taskID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first jobs.Job
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, taskID, first.ID)
	assert.False(t, first.Status.Terminal())

	close(f.workflows.release)

	var last jobs.Job
	for !last.Status.Terminal() {
		require.NoError(t, conn.ReadJSON(&last))
	}
	assert.Equal(t, jobs.StatusCompleted, last.Status)
	assert.JSONEq(t, `{"symbol":"AAPL","timestamp":"","financial_analysis":"","technical_analysis":"",
		"news_analysis":"","competitive_analysis":"","final_report":"full report on AAPL"}`, string(last.Result))

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
}

func TestTaskStream_FinishedJob(t *testing.T) {
	f := newFixture(t, nil)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	job, err := f.jobs.Start(t.Context(), jobs.Spec{Kind: api.JobKindStock}, func(context.Context) (any, error) {
		return "done", nil
	})
	require.NoError(t, err)
	_, err = f.jobs.Wait(t.Context(), job.ID)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/status/" + job.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var got jobs.Job
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, jobs.StatusCompleted, got.Status)
	assert.JSONEq(t, `"done"`, string(got.Result))

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
}

func TestValidateSymbol(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/validate/symbol/aapl", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"valid": true,
		"symbol": "AAPL",
		"name": "Apple Inc.",
		"sector": "Technology",
		"industry": "Consumer Electronics"
	}`, w.Body.String())

	testCases := map[string]string{
		"BRK.B":  "Invalid format",
		"ABCDEF": "Invalid format",
		"A1":     "Invalid format",
		"ZZZZ":   "Symbol not found",
	}
	for symbol, reason := range testCases {
		t.Run(symbol, func(t *testing.T) {
			out := decode(t, f.do(t, http.MethodGet, "/api/validate/symbol/"+symbol, ""))
			assert.Equal(t, map[string]any{"valid": false, "reason": reason}, out)
		})
	}
}

func TestValidateSymbol_ProviderFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.market.Err = errors.New("rate limited")

	out := decode(t, f.do(t, http.MethodGet, "/api/validate/symbol/AAPL", ""))
	assert.Equal(t, map[string]any{"valid": false, "reason": "Validation failed"}, out)
}

func TestSystemInfo(t *testing.T) {
	f := newFixture(t, nil)
	out := decode(t, f.do(t, http.MethodGet, "/api/system/info", ""))
	assert.Equal(t, "IntelliMarket API", out["service"])
	assert.Equal(t, "1.0.0", out["version"])
	assert.Equal(t, "operational", out["status"])
	assert.Contains(t, out["features"], "Async processing")
	assert.Equal(t, "2025-06-02T15:04:05Z", out["timestamp"])
}

func TestReportPDF(t *testing.T) {
	f := newFixture(t, nil)

	body := `{"title":"AAPL Report","body":"## Summary\n- **Buy** at $190.50\n| A | B |\n|---|---|\n| 1 | 2 |"}`
	w := f.do(t, http.MethodPost, "/api/report/pdf", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="AAPL_Report_20250602_150405.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "mem://AAPL_Report_20250602_150405.pdf", w.Header().Get(api.ArchiveLocationHeader))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	assert.Equal(t, []string{"AAPL_Report_20250602_150405.pdf"}, f.archive.names)
}

func TestReportPDF_ArchiveFailureStillServes(t *testing.T) {
	f := newFixture(t, nil)
	f.archive.err = errors.New("bucket unavailable")

	w := f.do(t, http.MethodPost, "/api/report/pdf", `{"title":"T","body":"text"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(api.ArchiveLocationHeader))
}

func TestReportPDF_Errors(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodPost, "/api/report/pdf", `{"title":"","body":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title and body are required", decode(t, w)["error"])

	f = newFixture(t, func(p *api.Params) { p.Renderer = failingRenderer{} })
	w = f.do(t, http.MethodPost, "/api/report/pdf", `{"title":"T","body":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{"error": "Report rendering failed"}, decode(t, w))
	assert.Empty(t, f.archive.names)
}

func TestExportComparison(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/export/comparison", `{"symbols":["AAPL","MSFT","ZZZZ"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, marketdata.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Comparison_AAPL_MSFT_20250602_150405.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = f.do(t, http.MethodPost, "/api/export/comparison", `{"symbols":["ZZZZ","YYYY"]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/export/comparison", `{"symbols":["AAPL"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoRoute(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Endpoint not found"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze/stock", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type panickingWorkflows struct{ fakeWorkflows }

func (*panickingWorkflows) QuickAnalysis(context.Context, string) (string, error) {
	panic("unexpected")
}

func TestRecovery(t *testing.T) {
	f := newFixture(t, func(p *api.Params) { p.Workflows = &panickingWorkflows{} })
	w := f.do(t, http.MethodPost, "/api/analyze/stock", `{"symbol":"AAPL"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	s := api.New(api.Params{Workflows: &fakeWorkflows{}, AccessLog: io.Discard})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
