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

// Package analysts defines the five research personas of the application
// and the operations each of them performs.
package analysts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/nlpodyssey/intellimarket/agents"
)

// An Analyst renders prompts from its profile and submits them.
type Analyst struct {
	Profile  *Profile
	Prompter agents.Prompter
}

func (a *Analyst) ask(ctx context.Context, prompt string, data any) (string, error) {
	text, err := a.Profile.Render(prompt, data)
	if err != nil {
		return "", err
	}
	out, err := a.Prompter.Prompt(ctx, text)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.Profile.Name, err)
	}
	return out, nil
}

type FinancialAnalyst struct{ Analyst }

func (a *FinancialAnalyst) AnalyzeStock(ctx context.Context, symbol string) (string, error) {
	Logger().Info("financial analyst analyzing stock", "symbol", symbol)
	return a.ask(ctx, "analyze_stock", struct{ Symbol string }{symbol})
}

func (a *FinancialAnalyst) CompareStocks(ctx context.Context, symbols []string) (string, error) {
	Logger().Info("financial analyst comparing stocks", "symbols", strings.Join(symbols, ", "))
	return a.ask(ctx, "compare_stocks", struct{ Symbols []string }{symbols})
}

type ResearchAnalyst struct{ Analyst }

func (a *ResearchAnalyst) ResearchCompanyNews(ctx context.Context, company string) (string, error) {
	Logger().Info("research analyst researching", "company", company)
	return a.ask(ctx, "research_company_news", struct{ Company string }{company})
}

func (a *ResearchAnalyst) AnalyzeMarketSentiment(ctx context.Context, topic string) (string, error) {
	Logger().Info("research analyst analyzing sentiment", "topic", topic)
	return a.ask(ctx, "analyze_market_sentiment", struct{ Topic string }{topic})
}

type CompetitiveAnalyst struct{ Analyst }

func (a *CompetitiveAnalyst) AnalyzeCompetitiveLandscape(ctx context.Context, company string) (string, error) {
	Logger().Info("competitive analyst analyzing landscape", "company", company)
	return a.ask(ctx, "analyze_competitive_landscape", struct{ Company string }{company})
}

func (a *CompetitiveAnalyst) CompareSectorLeaders(ctx context.Context, sector string) (string, error) {
	Logger().Info("competitive analyst comparing sector leaders", "sector", sector)
	return a.ask(ctx, "compare_sector_leaders", struct{ Sector string }{sector})
}

type TechnicalAnalyst struct{ Analyst }

func (a *TechnicalAnalyst) TechnicalAnalysis(ctx context.Context, symbol string) (string, error) {
	Logger().Info("technical analyst analyzing", "symbol", symbol)
	return a.ask(ctx, "technical_analysis", struct{ Symbol string }{symbol})
}

func (a *TechnicalAnalyst) ChartAnalysis(ctx context.Context, symbols []string) (string, error) {
	Logger().Info("technical analyst creating charts", "symbols", strings.Join(symbols, ", "))
	return a.ask(ctx, "chart_analysis", struct{ Symbols []string }{symbols})
}

type ReportAnalyst struct{ Analyst }

// GenerateInvestmentReport synthesizes the analysis sections of symbol.
func (a *ReportAnalyst) GenerateInvestmentReport(ctx context.Context, symbol string, data []Section) (string, error) {
	Logger().Info("report analyst generating investment report", "symbol", symbol)
	return a.ask(ctx, "generate_investment_report", struct {
		Symbol string
		Data   []Section
	}{symbol, data})
}

// CreateMarketSummary synthesizes market-wide analysis sections.
func (a *ReportAnalyst) CreateMarketSummary(ctx context.Context, data []Section) (string, error) {
	Logger().Info("report analyst creating market summary")
	return a.ask(ctx, "create_market_summary", struct{ Data []Section }{data})
}

// Team holds one analyst per role.
type Team struct {
	Financial   *FinancialAnalyst
	Research    *ResearchAnalyst
	Competitive *CompetitiveAnalyst
	Technical   *TechnicalAnalyst
	Report      *ReportAnalyst
}

// NewTeam builds a team from catalog, asking prompterFor for the prompter
// of each role.
func NewTeam(catalog Catalog, prompterFor func(Role) (agents.Prompter, error)) (*Team, error) {
	analysts := make(map[Role]Analyst, len(Roles))
	for _, role := range Roles {
		profile, err := catalog.Profile(role)
		if err != nil {
			return nil, err
		}
		p, err := prompterFor(role)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s analyst: %w", role, err)
		}
		analysts[role] = Analyst{Profile: profile, Prompter: p}
	}
	return &Team{
		Financial:   &FinancialAnalyst{analysts[RoleFinancial]},
		Research:    &ResearchAnalyst{analysts[RoleResearch]},
		Competitive: &CompetitiveAnalyst{analysts[RoleCompetitive]},
		Technical:   &TechnicalAnalyst{analysts[RoleTechnical]},
		Report:      &ReportAnalyst{analysts[RoleReport]},
	}, nil
}

// Factory creates LLM-backed analysts sharing one model and runner.
type Factory struct {
	// Model used by every analyst. Required.
	Model agents.Model
	// Runner drives the tool loop; the zero value uses default settings.
	Runner agents.Runner
	// Tools available to the analysts.
	Tools Toolbox
	// Catalog of profiles. Defaults to DefaultCatalog.
	Catalog Catalog
}

// Agent returns the agent of role, configured with its persona and tools.
func (f Factory) Agent(role Role) (*agents.Agent, error) {
	catalog, err := f.catalog()
	if err != nil {
		return nil, err
	}
	profile, err := catalog.Profile(role)
	if err != nil {
		return nil, err
	}
	return agents.New(profile.Name).
		WithInstructions(profile.SystemPrompt()).
		WithModel(f.Model).
		WithTools(f.toolsFor(role)...), nil
}

func (f Factory) toolsFor(role Role) []agents.FunctionTool {
	t := f.Tools
	switch role {
	case RoleFinancial:
		return t.FinancialTools()
	case RoleResearch:
		return t.ResearchTools()
	case RoleCompetitive:
		return append(t.CompetitiveTools(), t.FinancialTools()...)
	case RoleTechnical:
		return append(t.FinancialTools(), t.ChartTools()...)
	case RoleReport:
		return append(t.ReportTools(), t.ChartTools()...)
	default:
		return nil
	}
}

func (f Factory) catalog() (Catalog, error) {
	if f.Catalog != nil {
		return f.Catalog, nil
	}
	return DefaultCatalog()
}

// CreateAll creates the whole team.
func (f Factory) CreateAll() (*Team, error) {
	if f.Model == nil {
		return nil, agents.NewUserError("analysts: a model is required")
	}
	catalog, err := f.catalog()
	if err != nil {
		return nil, err
	}
	Logger().Info("creating all analysts")
	return NewTeam(catalog, func(role Role) (agents.Prompter, error) {
		agent, err := f.Agent(role)
		if err != nil {
			return nil, err
		}
		return agents.AgentPrompter{Agent: agent, Runner: f.Runner}, nil
	})
}

var analystsLogger atomic.Pointer[slog.Logger]

func init() {
	analystsLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

func Logger() *slog.Logger {
	return analystsLogger.Load()
}

// SetLogger replaces the package logger. A nil value is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		analystsLogger.Store(l)
	}
}
