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

// Package agentstesting provides fakes for agent models and prompters.
package agentstesting

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/nlpodyssey/intellimarket/agents"
)

func GetFunctionToolCall(name, arguments string) agents.ToolCall {
	return agents.ToolCall{ID: "call_" + name, Name: name, Arguments: arguments}
}

func emptyParams(name string) map[string]any {
	return map[string]any{
		"title":                name + "_args",
		"type":                 "object",
		"additionalProperties": false,
		"properties":           map[string]any{},
	}
}

func GetFunctionTool(name string, returnValue string) agents.FunctionTool {
	return agents.FunctionTool{
		Name:             name,
		ParamsJSONSchema: emptyParams(name),
		OnInvokeTool: func(context.Context, string) (any, error) {
			return returnValue, nil
		},
	}
}

func GetFunctionToolErr(name string, returnErr error) agents.FunctionTool {
	return agents.FunctionTool{
		Name:             name,
		ParamsJSONSchema: emptyParams(name),
		OnInvokeTool: func(context.Context, string) (any, error) {
			return nil, returnErr
		},
	}
}

// MustJSON marshals v, panicking on failure. Handy for tool call arguments.
func MustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// FakePrompter answers prompts through Respond and records every prompt.
// It is safe for concurrent use.
type FakePrompter struct {
	Respond func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// EchoPrompter answers every prompt with prefix followed by the prompt.
func EchoPrompter(prefix string) *FakePrompter {
	return &FakePrompter{Respond: func(p string) (string, error) { return prefix + p, nil }}
}

func (p *FakePrompter) Prompt(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	p.prompts = append(p.prompts, text)
	p.mu.Unlock()
	if p.Respond == nil {
		return "", nil
	}
	return p.Respond(text)
}

func (p *FakePrompter) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

// PromptsContaining returns the recorded prompts that contain substr.
func (p *FakePrompter) PromptsContaining(substr string) []string {
	var out []string
	for _, pr := range p.Prompts() {
		if strings.Contains(pr, substr) {
			out = append(out, pr)
		}
	}
	return out
}
