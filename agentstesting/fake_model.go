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

package agentstesting

import (
	"context"
	"errors"
	"sync"

	"github.com/nlpodyssey/intellimarket/agents"
	"github.com/nlpodyssey/intellimarket/usage"
)

// ErrNoTurnOutput is returned by FakeModel when its script is exhausted.
var ErrNoTurnOutput = errors.New("fake model: no turn output left")

// FakeModel replays scripted turns. It is safe for concurrent use.
type FakeModel struct {
	mu             sync.Mutex
	TurnOutputs    []FakeModelTurnOutput
	LastTurnArgs   agents.ModelRequest
	Requests       []agents.ModelRequest
	HardcodedUsage *usage.Usage
}

type FakeModelTurnOutput struct {
	Value *agents.ModelResponse
	Error error
}

func NewFakeModel(outputs ...FakeModelTurnOutput) *FakeModel {
	return &FakeModel{TurnOutputs: outputs}
}

func (m *FakeModel) SetHardcodedUsage(u usage.Usage) {
	m.mu.Lock()
	m.HardcodedUsage = &u
	m.mu.Unlock()
}

func (m *FakeModel) SetNextOutput(output FakeModelTurnOutput) {
	m.mu.Lock()
	m.TurnOutputs = append(m.TurnOutputs, output)
	m.mu.Unlock()
}

func (m *FakeModel) AddMultipleTurnOutputs(outputs []FakeModelTurnOutput) {
	m.mu.Lock()
	m.TurnOutputs = append(m.TurnOutputs, outputs...)
	m.mu.Unlock()
}

// CallCount returns how many times GetResponse was called.
func (m *FakeModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

func (m *FakeModel) GetResponse(_ context.Context, req agents.ModelRequest) (*agents.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastTurnArgs = req
	m.Requests = append(m.Requests, req)

	if len(m.TurnOutputs) == 0 {
		return nil, ErrNoTurnOutput
	}
	output := m.TurnOutputs[0]
	m.TurnOutputs = m.TurnOutputs[1:]

	if output.Error != nil {
		return nil, output.Error
	}
	resp := *output.Value
	if m.HardcodedUsage != nil {
		resp.Usage = *m.HardcodedUsage
	}
	return &resp, nil
}

// TextTurn is a turn in which the model answers with content.
func TextTurn(content string) FakeModelTurnOutput {
	return FakeModelTurnOutput{Value: &agents.ModelResponse{Text: content}}
}

// ToolCallsTurn is a turn in which the model only requests tool calls.
func ToolCallsTurn(calls ...agents.ToolCall) FakeModelTurnOutput {
	return FakeModelTurnOutput{Value: &agents.ModelResponse{ToolCalls: calls}}
}

// ErrorTurn is a turn in which the model call fails.
func ErrorTurn(err error) FakeModelTurnOutput {
	return FakeModelTurnOutput{Error: err}
}
