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

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nlpodyssey/intellimarket/agents"
	"github.com/nlpodyssey/intellimarket/analysts"
	"github.com/nlpodyssey/intellimarket/api"
	"github.com/nlpodyssey/intellimarket/archive"
	"github.com/nlpodyssey/intellimarket/config"
	"github.com/nlpodyssey/intellimarket/jobs"
	"github.com/nlpodyssey/intellimarket/logging"
	"github.com/nlpodyssey/intellimarket/marketdata"
	"github.com/nlpodyssey/intellimarket/mcpserver"
	"github.com/nlpodyssey/intellimarket/report"
	"github.com/nlpodyssey/intellimarket/tracing/traceloop"
	"github.com/nlpodyssey/intellimarket/websearch"
	"github.com/nlpodyssey/intellimarket/workflows"
	"github.com/openai/openai-go/v3"
)

// jobPurgeInterval is how often the server sweeps expired jobs.
const jobPurgeInterval = 5 * time.Minute

// app holds the configuration and the lazily built dependencies shared by
// the commands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	envFile string
	raw     bool

	// Optional overrides of the external services.
	model  agents.Model
	market marketdata.Provider
	search websearch.Provider
	now    func() time.Time

	cfg     *config.Config
	logging *logging.Logging
	closers []func() error
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, now: time.Now}
}

func (a *app) execute(ctx context.Context, args []string) error {
	defer a.close()
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root.ExecuteContext(ctx)
}

// setup loads and validates the configuration and installs the logger.
// Offline commands do not need a model API key.
func (a *app) setup(offline bool) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if offline {
		err = cfg.ValidateOffline()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return err
	}
	a.cfg = cfg

	l, err := logging.New(cfg.Log, a.stderr)
	if err != nil {
		return err
	}
	a.logging = l
	a.onClose(l.Close)
	l.Install(
		agents.SetLogger,
		analysts.SetLogger,
		api.SetLogger,
		jobs.SetLogger,
		marketdata.SetLogger,
		mcpserver.SetLogger,
		report.SetLogger,
		websearch.SetLogger,
		workflows.SetLogger,
	)

	gin.DefaultWriter = l.Writer
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	slog.Debug("configuration loaded", "model", cfg.Model, "backend", cfg.ModelBackend)
	return nil
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("cleanup failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *app) marketProvider() marketdata.Provider {
	if a.market == nil {
		a.market = marketdata.NewYahooClient()
	}
	return a.market
}

func (a *app) searchProvider() (websearch.Provider, error) {
	if a.search == nil {
		p, err := websearch.NewProvider(a.cfg.Search.Provider, a.cfg.Search.TavilyAPIKey)
		if err != nil {
			return nil, err
		}
		a.search = p
	}
	return a.search, nil
}

func (a *app) toolbox() (analysts.Toolbox, error) {
	search, err := a.searchProvider()
	if err != nil {
		return analysts.Toolbox{}, err
	}
	return analysts.Toolbox{Market: a.marketProvider(), Search: search}, nil
}

func (a *app) newModel(ctx context.Context) (agents.Model, error) {
	if a.model != nil {
		return a.model, nil
	}
	switch a.cfg.ModelBackend {
	case "openai":
		client := agents.NewOpenaiClient(a.cfg.OpenAIBaseURL, a.cfg.GoogleAPIKey)
		return agents.NewOpenAIChatCompletionsModel(openai.ChatModel(a.cfg.Model), client), nil
	default:
		return agents.NewGeminiModel(ctx, a.cfg.GoogleAPIKey, a.cfg.Model)
	}
}

// newRunner returns the runner shared by the analysts, exporting traces
// when Traceloop is configured.
func (a *app) newRunner(ctx context.Context) (agents.Runner, error) {
	runner := agents.Runner{Config: agents.RunConfig{
		MaxTurns:     a.cfg.MaxTurns,
		MaxRetries:   a.cfg.MaxRetries,
		WorkflowName: "IntelliMarket",
	}}
	if a.cfg.Traceloop.APIKey == "" {
		return runner, nil
	}
	processor, err := traceloop.NewProcessor(ctx, traceloop.ProcessorParams{
		APIKey:  a.cfg.Traceloop.APIKey,
		BaseURL: a.cfg.Traceloop.BaseURL,
		Vendor:  a.cfg.ModelBackend,
		Model:   a.cfg.Model,
	})
	if err != nil {
		return agents.Runner{}, err
	}
	a.onClose(func() error {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		processor.Shutdown(shutdownCtx)
		return nil
	})
	runner.Config.Hooks = processor
	return runner, nil
}

func (a *app) newWorkflows(ctx context.Context) (*workflows.Workflows, error) {
	model, err := a.newModel(ctx)
	if err != nil {
		return nil, err
	}
	runner, err := a.newRunner(ctx)
	if err != nil {
		return nil, err
	}
	tools, err := a.toolbox()
	if err != nil {
		return nil, err
	}
	team, err := analysts.Factory{Model: model, Runner: runner, Tools: tools}.CreateAll()
	if err != nil {
		return nil, err
	}
	w := workflows.New(team, tools.Market)
	w.Now = a.now
	return w, nil
}

func (a *app) newJobStore(ctx context.Context) (jobs.Store, error) {
	switch a.cfg.Jobs.Store {
	case "sqlite":
		store, err := jobs.NewSQLiteStore(ctx, jobs.SQLiteStoreParams{DBDataSourceName: a.cfg.Jobs.DSN})
		if err != nil {
			return nil, err
		}
		a.onClose(store.Close)
		return store, nil
	case "postgres":
		store, err := jobs.NewPgStore(ctx, jobs.PgStoreParams{ConnectionString: a.cfg.Jobs.DSN})
		if err != nil {
			return nil, err
		}
		a.onClose(func() error { return store.Close(context.Background()) })
		return store, nil
	default:
		return jobs.NewMemoryStore(), nil
	}
}

func (a *app) newRenderer() (report.Renderer, error) {
	r, err := report.NewRenderer(a.cfg.PDFBackend)
	if err != nil {
		return nil, err
	}
	if b, ok := r.(*report.BrowserRenderer); ok {
		a.onClose(b.Close)
	}
	return r, nil
}

func (a *app) newArchive() (archive.Archive, error) {
	arc, err := archive.New(a.cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("failed to set up report archive: %w", err)
	}
	return arc, nil
}

// renderTo renders markdown to a report file. An empty path derives the
// file name from the title.
func (a *app) renderTo(ctx context.Context, path, title, markdown string) (string, error) {
	r, err := a.newRenderer()
	if err != nil {
		return "", err
	}
	data, err := report.RenderMarkdown(ctx, r, title, markdown)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = report.Filename(title, a.now(), r.Extension())
	}
	if err := writeFile(path, data); err != nil {
		return "", err
	}

	arc, err := a.newArchive()
	if err != nil {
		return "", err
	}
	if arc != nil {
		if location, err := arc.Put(ctx, report.Filename(title, a.now(), r.Extension()), r.ContentType(), data); err != nil {
			slog.Warn("failed to archive report", "error", err)
		} else {
			slog.Info("report archived", "location", location)
		}
	}
	return path, nil
}
