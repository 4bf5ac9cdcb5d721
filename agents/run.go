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

package agents

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/nlpodyssey/intellimarket/modelsettings"
	"github.com/nlpodyssey/intellimarket/usage"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxTurns     = 10
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = time.Second
)

// DefaultRunner is the default Runner instance used by package-level Run
// helpers.
var DefaultRunner = Runner{}

// Runner executes agents using the configured RunConfig.
//
// The zero value is valid.
type Runner struct {
	Config RunConfig
}

// RunConfig configures settings for the entire agent run.
type RunConfig struct {
	// The model to use for agents that don't set one.
	Model Model

	// Optional global model settings. Any present values override the
	// agent-specific model settings.
	ModelSettings modelsettings.ModelSettings

	// Optional maximum number of turns to run the agent for.
	// A turn is defined as one AI invocation (including any tool calls that might occur).
	// Default (when left zero): DefaultMaxTurns.
	MaxTurns int

	// Number of additional attempts for a failed model call.
	// Default (when left zero): DefaultMaxRetries. Negative disables retries.
	MaxRetries int

	// Delay before the first retry. It doubles on every further attempt.
	// Default (when left zero): DefaultRetryBackoff.
	RetryBackoff time.Duration

	// Optional object that receives callbacks on various lifecycle events.
	Hooks RunHooks

	// The name of the run, used for tracing.
	WorkflowName string
}

func (c RunConfig) maxTurns() int {
	return cmp.Or(c.MaxTurns, DefaultMaxTurns)
}

func (c RunConfig) maxRetries() int {
	switch {
	case c.MaxRetries < 0:
		return 0
	case c.MaxRetries == 0:
		return DefaultMaxRetries
	default:
		return c.MaxRetries
	}
}

type RunResult struct {
	// The original input.
	Input string

	// The text of the last assistant message.
	FinalOutput string

	// The messages generated during the run, excluding the input.
	NewItems []Message

	// Tokens consumed across every model call of the run.
	Usage usage.Usage

	// The number of model calls performed.
	Turns int

	// The agent that produced the output.
	LastAgent *Agent
}

// RunInfo identifies an agent run. It is stored in the context passed to
// hooks, models and tools.
type RunInfo struct {
	ID           string
	WorkflowName string
	AgentName    string
}

type runInfoContextKey struct{}

func RunInfoFromContext(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoContextKey{}).(RunInfo)
	return info, ok
}

// Run executes the agent with DefaultRunner.
func Run(ctx context.Context, agent *Agent, input string) (*RunResult, error) {
	return DefaultRunner.Run(ctx, agent, input)
}

// Run executes a workflow starting at the given agent.
//
// The agent will run in a loop until a final output is generated:
//  1. The agent is invoked with the given input.
//  2. If the answer has no tool calls, its text is the final output and the loop terminates.
//  3. Otherwise the requested tools run concurrently, their outputs are appended
//     to the history, and the loop re-runs.
//
// A MaxTurnsExceededError is returned if the model is still calling tools after
// MaxTurns calls. Tool failures are reported to the model, not to the caller.
func (r Runner) Run(ctx context.Context, agent *Agent, input string) (*RunResult, error) {
	if agent == nil {
		return nil, NewUserError("agent is nil")
	}
	model := agent.Model
	if model == nil {
		model = r.Config.Model
	}
	if model == nil {
		return nil, UserErrorf("agent %s has no model", agent.Name)
	}

	info := RunInfo{
		ID:           uuid.NewString(),
		WorkflowName: cmp.Or(r.Config.WorkflowName, agent.Name),
		AgentName:    agent.Name,
	}
	ctx = context.WithValue(ctx, runInfoContextKey{}, info)
	hooks := r.hooks(agent)
	logger := Logger().With(slog.String("agent", agent.Name), slog.String("run_id", info.ID))

	result := &RunResult{Input: input, LastAgent: agent}
	history := []Message{UserMessage(input)}

	if err := hooks.OnAgentStart(ctx, agent); err != nil {
		return nil, fmt.Errorf("agent start hook error: %w", err)
	}

	settings := agent.ModelSettings.Resolve(r.Config.ModelSettings)
	for result.Turns < r.Config.maxTurns() {
		req := ModelRequest{
			SystemInstructions: agent.Instructions,
			Input:              slices.Clone(history),
			Tools:              agent.Tools,
			ModelSettings:      settings,
		}
		if err := hooks.OnLLMStart(ctx, agent, req); err != nil {
			return nil, fmt.Errorf("LLM start hook error: %w", err)
		}

		resp, err := r.getResponse(ctx, model, req, logger)
		if err != nil {
			return nil, err
		}
		result.Turns++
		result.Usage.Add(resp.Usage)
		if m, ok := usage.FromContext(ctx); ok {
			m.Add(resp.Usage)
		}

		if err := hooks.OnLLMEnd(ctx, agent, resp); err != nil {
			return nil, fmt.Errorf("LLM end hook error: %w", err)
		}

		msg := resp.Message()
		history = append(history, msg)
		result.NewItems = append(result.NewItems, msg)

		if len(resp.ToolCalls) == 0 {
			result.FinalOutput = resp.Text
			if err := hooks.OnAgentEnd(ctx, agent, resp.Text); err != nil {
				return nil, fmt.Errorf("agent end hook error: %w", err)
			}
			logger.Debug("agent run completed", slog.Int("turns", result.Turns))
			return result, nil
		}

		outputs, err := r.runTools(ctx, agent, hooks, resp.ToolCalls, logger)
		if err != nil {
			return nil, err
		}
		history = append(history, outputs...)
		result.NewItems = append(result.NewItems, outputs...)
	}

	return nil, MaxTurnsExceededError{MaxTurns: r.Config.maxTurns()}
}

func (r Runner) hooks(agent *Agent) RunHooks {
	var hooks MultiRunHooks
	if r.Config.Hooks != nil {
		hooks = append(hooks, r.Config.Hooks)
	}
	if agent.Hooks != nil {
		hooks = append(hooks, agent.Hooks)
	}
	return hooks
}

// getResponse calls the model, retrying failed attempts with exponential backoff.
func (r Runner) getResponse(ctx context.Context, model Model, req ModelRequest, logger *slog.Logger) (*ModelResponse, error) {
	backoff := cmp.Or(r.Config.RetryBackoff, DefaultRetryBackoff)
	maxRetries := r.Config.maxRetries()

	for attempt := 0; ; attempt++ {
		resp, err := model.GetResponse(ctx, req)
		if err == nil {
			if resp == nil {
				return nil, NewModelBehaviorError("model returned no response")
			}
			return resp, nil
		}
		if !isRetryable(ctx, err) || attempt >= maxRetries {
			return nil, fmt.Errorf("model call failed after %d attempt(s): %w", attempt+1, err)
		}

		delay := backoff << attempt
		logger.Warn("model call failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var userErr UserError
	return !errors.As(err, &userErr)
}

// runTools invokes all the requested tools concurrently. The returned messages
// keep the order of calls.
func (r Runner) runTools(ctx context.Context, agent *Agent, hooks RunHooks, calls []ToolCall, logger *slog.Logger) ([]Message, error) {
	tools := make([]FunctionTool, len(calls))
	for i, call := range calls {
		tool, ok := agent.Tool(call.Name)
		if !ok {
			return nil, ModelBehaviorErrorf("tool %s not found in agent %s", call.Name, agent.Name)
		}
		tools[i] = tool
	}

	outputs := make([]Message, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		tool := tools[i]
		g.Go(func() error {
			if err := hooks.OnToolStart(gctx, agent, tool, call); err != nil {
				return fmt.Errorf("tool start hook error: %w", err)
			}

			out, err := tool.Invoke(gctx, call.Arguments)
			if err != nil {
				var userErr UserError
				if errors.As(err, &userErr) {
					return err
				}
				logger.Warn("tool call failed", slog.String("tool", call.Name), slog.String("error", err.Error()))
				out = toolErrorOutput(err)
			}

			if err := hooks.OnToolEnd(gctx, agent, tool, call, out); err != nil {
				return fmt.Errorf("tool end hook error: %w", err)
			}
			outputs[i] = ToolResultMessage(call, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
