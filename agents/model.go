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

	"github.com/nlpodyssey/intellimarket/modelsettings"
	"github.com/nlpodyssey/intellimarket/usage"
)

// Model is the interface for calling an LLM.
type Model interface {
	// GetResponse returns the next assistant turn for the given history.
	GetResponse(context.Context, ModelRequest) (*ModelResponse, error)
}

type ModelRequest struct {
	// The system instructions to use.
	SystemInstructions string

	// The conversation so far, oldest first.
	Input []Message

	// The tools available to the model.
	Tools []FunctionTool

	// The model settings to use.
	ModelSettings modelsettings.ModelSettings
}

type ModelResponse struct {
	// The text produced by the model. It may be empty when the model only
	// requested tool calls.
	Text string

	// The tool calls requested by the model, in order.
	ToolCalls []ToolCall

	// The usage information for the response.
	Usage usage.Usage
}

// Message returns the assistant message to append to the history.
func (r *ModelResponse) Message() Message {
	return AssistantMessage(r.Text, r.ToolCalls...)
}

// ModelFunc adapts a plain function to the Model interface.
type ModelFunc func(context.Context, ModelRequest) (*ModelResponse, error)

func (f ModelFunc) GetResponse(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	return f(ctx, req)
}
