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

// Package traceloop exports agent runs to Traceloop: one workflow per run,
// one task per model or tool call.
package traceloop

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nlpodyssey/intellimarket/agents"
	sdk "github.com/traceloop/go-openllmetry/traceloop-sdk"
)

const DefaultBaseURL = "api.traceloop.com"

// Processor implements agents.RunHooks to send traces to Traceloop.
// It is safe for concurrent runs.
type Processor struct {
	client *sdk.Traceloop
	vendor string
	model  string

	mu        sync.Mutex
	workflows map[string]*sdk.Workflow
	tasks     map[string]*sdk.Task
	llmSpans  map[string]*sdk.LLMSpan
}

var _ agents.RunHooks = (*Processor)(nil)

// ProcessorParams configuration for the Traceloop processor
type ProcessorParams struct {
	// Traceloop API key. Required.
	APIKey string
	// Traceloop Base URL. Defaults to DefaultBaseURL.
	BaseURL string
	// LLM vendor reported with prompts, e.g. "gemini".
	Vendor string
	// Model name reported with prompts and completions.
	Model string
}

func NewProcessor(ctx context.Context, params ProcessorParams) (*Processor, error) {
	if params.APIKey == "" {
		return nil, fmt.Errorf("traceloop: API key is required")
	}
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client, err := sdk.NewClient(ctx, sdk.Config{
		BaseURL: baseURL,
		APIKey:  params.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Traceloop client: %w", err)
	}

	return &Processor{
		client:    client,
		vendor:    params.Vendor,
		model:     params.Model,
		workflows: make(map[string]*sdk.Workflow),
		tasks:     make(map[string]*sdk.Task),
		llmSpans:  make(map[string]*sdk.LLMSpan),
	}, nil
}

// Shutdown flushes pending spans.
func (p *Processor) Shutdown(ctx context.Context) {
	p.client.Shutdown(ctx)
}

func runID(ctx context.Context) (string, string) {
	info, ok := agents.RunInfoFromContext(ctx)
	if !ok {
		return "", ""
	}
	return info.ID, info.WorkflowName
}

func (p *Processor) workflow(ctx context.Context) (*sdk.Workflow, string) {
	id, _ := runID(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workflows[id], id
}

func (p *Processor) OnAgentStart(ctx context.Context, agent *agents.Agent) error {
	id, name := runID(ctx)
	if id == "" {
		return nil
	}
	wf := p.client.NewWorkflow(ctx, sdk.WorkflowAttributes{Name: name})

	p.mu.Lock()
	p.workflows[id] = wf
	p.mu.Unlock()

	agents.Logger().Debug("traceloop workflow started", "run_id", id, "agent", agent.Name)
	return nil
}

func (p *Processor) OnAgentEnd(ctx context.Context, _ *agents.Agent, _ string) error {
	id, _ := runID(ctx)

	p.mu.Lock()
	wf, ok := p.workflows[id]
	delete(p.workflows, id)
	p.mu.Unlock()

	if ok {
		wf.End()
	}
	return nil
}

func (p *Processor) OnLLMStart(ctx context.Context, agent *agents.Agent, req agents.ModelRequest) error {
	wf, id := p.workflow(ctx)
	if wf == nil {
		return nil
	}
	task := wf.NewTask(taskName("llm", agent.Name))
	span, err := task.LogPrompt(PromptFromRequest(p.vendor, p.model, req))
	if err != nil {
		task.End()
		agents.Logger().Warn("traceloop: failed to log prompt", "error", err)
		return nil
	}

	p.mu.Lock()
	p.tasks[id+"/llm"] = task
	p.llmSpans[id] = &span
	p.mu.Unlock()
	return nil
}

func (p *Processor) OnLLMEnd(ctx context.Context, _ *agents.Agent, resp *agents.ModelResponse) error {
	id, _ := runID(ctx)

	p.mu.Lock()
	task := p.tasks[id+"/llm"]
	span := p.llmSpans[id]
	delete(p.tasks, id+"/llm")
	delete(p.llmSpans, id)
	p.mu.Unlock()

	if span != nil {
		span.LogCompletion(ctx, CompletionFromResponse(p.model, resp), UsageFromResponse(resp))
	}
	if task != nil {
		task.End()
	}
	return nil
}

func (p *Processor) OnToolStart(ctx context.Context, _ *agents.Agent, tool agents.FunctionTool, call agents.ToolCall) error {
	wf, id := p.workflow(ctx)
	if wf == nil {
		return nil
	}
	task := wf.NewTask(taskName("tool", tool.Name))

	p.mu.Lock()
	p.tasks[id+"/"+call.ID] = task
	p.mu.Unlock()
	return nil
}

func (p *Processor) OnToolEnd(ctx context.Context, _ *agents.Agent, _ agents.FunctionTool, call agents.ToolCall, _ string) error {
	id, _ := runID(ctx)
	key := id + "/" + call.ID

	p.mu.Lock()
	task := p.tasks[key]
	delete(p.tasks, key)
	p.mu.Unlock()

	if task != nil {
		task.End()
	}
	return nil
}

func taskName(kind, name string) string {
	return kind + "_" + strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// PromptFromRequest converts a model request to a Traceloop prompt. The system
// instructions come first.
func PromptFromRequest(vendor, model string, req agents.ModelRequest) sdk.Prompt {
	prompt := sdk.Prompt{Vendor: vendor, Mode: "chat", Model: model}
	if req.SystemInstructions != "" {
		prompt.Messages = append(prompt.Messages, sdk.Message{
			Index:   0,
			Content: req.SystemInstructions,
			Role:    "system",
		})
	}
	for _, msg := range req.Input {
		prompt.Messages = append(prompt.Messages, sdk.Message{
			Index:   len(prompt.Messages),
			Content: messageContent(msg),
			Role:    string(msg.Role),
		})
	}
	return prompt
}

func CompletionFromResponse(model string, resp *agents.ModelResponse) sdk.Completion {
	return sdk.Completion{
		Model: model,
		Messages: []sdk.Message{{
			Index:   0,
			Content: messageContent(resp.Message()),
			Role:    string(agents.RoleAssistant),
		}},
	}
}

func UsageFromResponse(resp *agents.ModelResponse) sdk.Usage {
	return sdk.Usage{
		TotalTokens:      int(resp.Usage.TotalTokens),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}
}

// messageContent renders tool calls as text, since Traceloop messages only
// carry a content string.
func messageContent(msg agents.Message) string {
	if len(msg.ToolCalls) == 0 {
		return msg.Content
	}
	var sb strings.Builder
	sb.WriteString(msg.Content)
	for _, call := range msg.ToolCalls {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "call %s(%s)", call.Name, call.Arguments)
	}
	return sb.String()
}
