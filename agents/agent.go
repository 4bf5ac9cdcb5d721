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

// Package agents is a small LLM agent runtime: an Agent couples instructions
// with function tools, and a Runner drives the model/tool loop until the
// model answers in plain text.
package agents

import (
	"slices"

	"github.com/nlpodyssey/intellimarket/modelsettings"
)

// An Agent is an AI model configured with instructions and tools.
type Agent struct {
	// The name of the agent.
	Name string

	// The system prompt sent to the model on every turn.
	Instructions string

	// The model implementation to use when invoking the agent.
	// When nil, the runner falls back to RunConfig.Model.
	Model Model

	// Configures model-specific tuning parameters (e.g. temperature, top_p).
	ModelSettings modelsettings.ModelSettings

	// The tools the agent can call.
	Tools []FunctionTool

	// Optional object that receives callbacks for this agent only.
	Hooks RunHooks
}

// New creates a new Agent with the given name.
//
// The returned Agent can be further configured using the builder methods.
func New(name string) *Agent {
	return &Agent{Name: name}
}

// WithInstructions sets the Agent instructions.
func (a *Agent) WithInstructions(instr string) *Agent {
	a.Instructions = instr
	return a
}

// WithModel sets the model implementation.
func (a *Agent) WithModel(m Model) *Agent {
	a.Model = m
	return a
}

// WithModelSettings sets model-specific settings.
func (a *Agent) WithModelSettings(settings modelsettings.ModelSettings) *Agent {
	a.ModelSettings = settings
	return a
}

// WithTools appends tools to the agent.
func (a *Agent) WithTools(tools ...FunctionTool) *Agent {
	a.Tools = append(a.Tools, tools...)
	return a
}

// WithHooks sets the agent-specific hooks.
func (a *Agent) WithHooks(hooks RunHooks) *Agent {
	a.Hooks = hooks
	return a
}

// Clone returns a shallow copy of the agent with its own tool slice.
func (a *Agent) Clone() *Agent {
	c := *a
	c.Tools = slices.Clone(a.Tools)
	return &c
}

// Tool returns the tool with the given name.
func (a *Agent) Tool(name string) (FunctionTool, bool) {
	i := slices.IndexFunc(a.Tools, func(t FunctionTool) bool { return t.Name == name })
	if i < 0 {
		return FunctionTool{}, false
	}
	return a.Tools[i], true
}
