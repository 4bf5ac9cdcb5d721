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

package traceloop

import (
	"testing"

	"github.com/nlpodyssey/intellimarket/agents"
	"github.com/nlpodyssey/intellimarket/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdk "github.com/traceloop/go-openllmetry/traceloop-sdk"
)

func TestPromptFromRequest(t *testing.T) {
	req := agents.ModelRequest{
		SystemInstructions: "You are a CMT.",
		Input: []agents.Message{
			agents.UserMessage("chart TSLA"),
			agents.AssistantMessage("", agents.ToolCall{Name: "get_price_chart", Arguments: `{"symbol":"TSLA"}`}),
			agents.ToolResultMessage(agents.ToolCall{ID: "1", Name: "get_price_chart"}, "ok"),
		},
	}

	prompt := PromptFromRequest("gemini", "gemini-2.5-flash", req)

	assert.Equal(t, "gemini", prompt.Vendor)
	assert.Equal(t, "chat", prompt.Mode)
	assert.Equal(t, "gemini-2.5-flash", prompt.Model)
	assert.Equal(t, []sdk.Message{
		{Index: 0, Content: "You are a CMT.", Role: "system"},
		{Index: 1, Content: "chart TSLA", Role: "user"},
		{Index: 2, Content: `call get_price_chart({"symbol":"TSLA"})`, Role: "assistant"},
		{Index: 3, Content: "ok", Role: "tool"},
	}, prompt.Messages)
}

func TestCompletionFromResponse(t *testing.T) {
	resp := &agents.ModelResponse{
		Text:  "Looking up.",
		Usage: usage.Usage{Requests: 1, InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		ToolCalls: []agents.ToolCall{
			{Name: "a", Arguments: "{}"},
		},
	}

	completion := CompletionFromResponse("m", resp)
	require.Len(t, completion.Messages, 1)
	assert.Equal(t, "Looking up.\ncall a({})", completion.Messages[0].Content)
	assert.Equal(t, "assistant", completion.Messages[0].Role)

	assert.Equal(t, sdk.Usage{TotalTokens: 15, PromptTokens: 10, CompletionTokens: 5}, UsageFromResponse(resp))
}

func TestTaskName(t *testing.T) {
	assert.Equal(t, "llm_financial_analyst", taskName("llm", "Financial Analyst"))
}

func TestProcessor_HooksWithoutRunInfoAreNoOps(t *testing.T) {
	p := &Processor{
		workflows: map[string]*sdk.Workflow{},
		tasks:     map[string]*sdk.Task{},
		llmSpans:  map[string]*sdk.LLMSpan{},
	}
	ctx := t.Context()
	agent := agents.New("a")

	assert.NoError(t, p.OnAgentStart(ctx, agent))
	assert.NoError(t, p.OnLLMStart(ctx, agent, agents.ModelRequest{}))
	assert.NoError(t, p.OnLLMEnd(ctx, agent, &agents.ModelResponse{}))
	assert.NoError(t, p.OnToolStart(ctx, agent, agents.FunctionTool{}, agents.ToolCall{}))
	assert.NoError(t, p.OnToolEnd(ctx, agent, agents.FunctionTool{}, agents.ToolCall{}, ""))
	assert.NoError(t, p.OnAgentEnd(ctx, agent, ""))
	assert.Empty(t, p.workflows)
}
