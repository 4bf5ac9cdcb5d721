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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/nlpodyssey/intellimarket/api"
	"github.com/nlpodyssey/intellimarket/jobs"
	"github.com/nlpodyssey/intellimarket/marketdata"
	"github.com/nlpodyssey/intellimarket/mcpserver"
	"github.com/nlpodyssey/intellimarket/report"
	"github.com/nlpodyssey/intellimarket/workflows"
	"github.com/spf13/cobra"
)

// offlineAnnotation marks commands that never call a model.
const offlineAnnotation = "offline"

var offline = map[string]string{offlineAnnotation: "true"}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "intellimarket",
		Short:         "AI-powered financial research",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Annotations[offlineAnnotation] == "true")
		},
	}
	root.PersistentFlags().StringVarP(&a.envFile, "env", "e", ".env", "environment file")
	root.PersistentFlags().BoolVar(&a.raw, "raw", false, "print reports as plain markdown")

	root.AddCommand(
		newServeCmd(a),
		newAnalyzeCmd(a),
		newCompareCmd(a),
		newResearchCmd(a),
		newQueryCmd(a),
		newRenderCmd(a),
		newExportCmd(a),
		newMCPCmd(a),
	)
	return root
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			wf, err := a.newWorkflows(ctx)
			if err != nil {
				return err
			}
			store, err := a.newJobStore(ctx)
			if err != nil {
				return err
			}
			manager := jobs.NewManager(jobs.ManagerParams{
				Store:         store,
				TTL:           a.cfg.Jobs.TTL,
				PurgeInterval: jobPurgeInterval,
			})
			defer manager.Close()

			renderer, err := a.newRenderer()
			if err != nil {
				return err
			}
			arc, err := a.newArchive()
			if err != nil {
				return err
			}

			server := api.New(api.Params{
				Workflows:   wf,
				Market:      a.marketProvider(),
				Jobs:        manager,
				Renderer:    renderer,
				Archive:     arc,
				CORSOrigins: a.cfg.CORSOrigins,
				Timeout:     a.cfg.Timeout,
				AccessLog:   a.logging.Writer,
			})
			return server.Serve(ctx, a.cfg.Addr())
		},
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		quick   bool
		pdfPath string
	)
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Analyze a stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := api.NormalizeSymbol(args[0])
			if symbol == "" || len(symbol) > api.MaxSymbolLength {
				return fmt.Errorf("invalid symbol format: %q", args[0])
			}
			ctx := cmd.Context()
			wf, err := a.newWorkflows(ctx)
			if err != nil {
				return err
			}

			var text string
			if quick {
				text, err = wf.QuickAnalysis(ctx, symbol)
			} else {
				var analysis *workflows.StockAnalysis
				analysis, err = wf.AnalyzeStock(ctx, symbol)
				if analysis != nil {
					text = analysis.FinalReport
				}
			}
			if err != nil {
				return err
			}
			if err := a.printMarkdown(text); err != nil {
				return err
			}
			if pdfPath == "" {
				return nil
			}
			path, err := a.renderTo(ctx, pdfPath, "Investment Analysis: "+symbol, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Report written to", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quick, "quick", "q", false, "run only the financial and technical analyses")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also render the report to this PDF file")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare SYMBOL SYMBOL...",
		Short: "Compare two to five stocks",
		Args:  cobra.RangeArgs(api.MinComparisonSymbols, api.MaxComparisonSymbols),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wf, err := a.newWorkflows(ctx)
			if err != nil {
				return err
			}
			comparison, err := wf.CompareStocks(ctx, api.NormalizeSymbols(args))
			if err != nil {
				return err
			}
			return a.printMarkdown(comparison.ComparisonReport)
		},
	}
}

func newResearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "research TOPIC",
		Short: "Research a market topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wf, err := a.newWorkflows(ctx)
			if err != nil {
				return err
			}
			research, err := wf.ResearchMarketTopic(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.printMarkdown(research.ResearchReport)
		},
	}
}

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query TEXT",
		Short: "Answer a free-form research question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wf, err := a.newWorkflows(ctx)
			if err != nil {
				return err
			}
			answer, err := wf.ProcessQuery(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.printMarkdown(answer)
		},
	}
}

func newRenderCmd(a *app) *cobra.Command {
	var title, output string
	cmd := &cobra.Command{
		Use:         "render FILE",
		Short:       "Render a markdown report to PDF",
		Args:        cobra.ExactArgs(1),
		Annotations: offline,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if title == "" {
				base := filepath.Base(args[0])
				title = strings.TrimSuffix(base, filepath.Ext(base))
			}
			path, err := a.renderTo(cmd.Context(), output, title, string(body))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "report title (defaults to the file name)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to a name derived from the title)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:         "export SYMBOL...",
		Short:       "Export a comparison workbook",
		Args:        cobra.RangeArgs(1, api.MaxComparisonSymbols),
		Annotations: offline,
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			comparison, err := marketdata.ExportSymbols(cmd.Context(), a.marketProvider(), &buf,
				api.NormalizeSymbols(args), marketdata.DefaultPeriod)
			if err != nil {
				return err
			}
			if output == "" {
				output = report.Filename("Comparison "+strings.Join(comparison.Symbols, " "), a.now(), "xlsx")
			}
			if err := writeFile(output, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "mcp",
		Short:       "Serve the analyst tools over MCP on stdio",
		Args:        cobra.NoArgs,
		Annotations: offline,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tools, err := a.toolbox()
			if err != nil {
				return err
			}
			return mcpserver.Run(cmd.Context(), tools)
		},
	}
}

// printMarkdown prints a report, styled for the terminal unless --raw.
func (a *app) printMarkdown(markdown string) error {
	if a.raw {
		_, err := fmt.Fprintln(a.stdout, markdown)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return err
	}
	out, err := r.Render(markdown)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.stdout, out)
	return err
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
