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
	"context"
	"errors"
)

// RunHooks is implemented by an object that receives callbacks on various
// lifecycle events in an agent run.
//
// A non-nil error returned by any callback aborts the run.
type RunHooks interface {
	// OnAgentStart is called once, before the first model call.
	OnAgentStart(ctx context.Context, agent *Agent) error

	// OnAgentEnd is called when the agent produces a final output.
	OnAgentEnd(ctx context.Context, agent *Agent, output string) error

	// OnLLMStart is called just before each model call.
	OnLLMStart(ctx context.Context, agent *Agent, req ModelRequest) error

	// OnLLMEnd is called after each successful model call.
	OnLLMEnd(ctx context.Context, agent *Agent, resp *ModelResponse) error

	// OnToolStart is called concurrently with tool invocation.
	OnToolStart(ctx context.Context, agent *Agent, tool FunctionTool, call ToolCall) error

	// OnToolEnd is called after a tool is invoked. The output is the text
	// fed back to the model, including error reports.
	OnToolEnd(ctx context.Context, agent *Agent, tool FunctionTool, call ToolCall, output string) error
}

type NoOpRunHooks struct{}

func (NoOpRunHooks) OnAgentStart(context.Context, *Agent) error {
	return nil
}
func (NoOpRunHooks) OnAgentEnd(context.Context, *Agent, string) error {
	return nil
}
func (NoOpRunHooks) OnLLMStart(context.Context, *Agent, ModelRequest) error {
	return nil
}
func (NoOpRunHooks) OnLLMEnd(context.Context, *Agent, *ModelResponse) error {
	return nil
}
func (NoOpRunHooks) OnToolStart(context.Context, *Agent, FunctionTool, ToolCall) error {
	return nil
}
func (NoOpRunHooks) OnToolEnd(context.Context, *Agent, FunctionTool, ToolCall, string) error {
	return nil
}

// MultiRunHooks fans every callback out to each non-nil element, in order,
// and joins their errors.
type MultiRunHooks []RunHooks

func (m MultiRunHooks) each(fn func(RunHooks) error) error {
	var errs []error
	for _, h := range m {
		if h != nil {
			errs = append(errs, fn(h))
		}
	}
	return errors.Join(errs...)
}

func (m MultiRunHooks) OnAgentStart(ctx context.Context, agent *Agent) error {
	return m.each(func(h RunHooks) error { return h.OnAgentStart(ctx, agent) })
}

func (m MultiRunHooks) OnAgentEnd(ctx context.Context, agent *Agent, output string) error {
	return m.each(func(h RunHooks) error { return h.OnAgentEnd(ctx, agent, output) })
}

func (m MultiRunHooks) OnLLMStart(ctx context.Context, agent *Agent, req ModelRequest) error {
	return m.each(func(h RunHooks) error { return h.OnLLMStart(ctx, agent, req) })
}

func (m MultiRunHooks) OnLLMEnd(ctx context.Context, agent *Agent, resp *ModelResponse) error {
	return m.each(func(h RunHooks) error { return h.OnLLMEnd(ctx, agent, resp) })
}

func (m MultiRunHooks) OnToolStart(ctx context.Context, agent *Agent, tool FunctionTool, call ToolCall) error {
	return m.each(func(h RunHooks) error { return h.OnToolStart(ctx, agent, tool, call) })
}

func (m MultiRunHooks) OnToolEnd(ctx context.Context, agent *Agent, tool FunctionTool, call ToolCall, output string) error {
	return m.each(func(h RunHooks) error { return h.OnToolEnd(ctx, agent, tool, call, output) })
}
