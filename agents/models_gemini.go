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
	"encoding/json"
	"fmt"

	"github.com/nlpodyssey/intellimarket/modelsettings"
	"github.com/nlpodyssey/intellimarket/usage"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiModel calls the native Gemini API.
type GeminiModel struct {
	Model  string
	client *genai.Client
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, NewUserError("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiModel{Model: model, client: client}, nil
}

func (m *GeminiModel) GetResponse(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.Model, geminiContents(req.Input), geminiConfig(req))
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		reason := "unknown reason"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = string(resp.PromptFeedback.BlockReason)
		}
		return nil, ModelBehaviorErrorf("gemini returned no candidates: %s", reason)
	}
	Logger().Debug("LLM responded", "model", m.Model)

	out := &ModelResponse{Text: resp.Text()}
	for i, fc := range resp.FunctionCalls() {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return nil, ModelBehaviorErrorf("gemini returned unencodable arguments for %s: %w", fc.Name, err)
		}
		id := fc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%s", i, fc.Name)
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: id, Name: fc.Name, Arguments: string(args)})
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = usage.Usage{
			Requests:     1,
			InputTokens:  uint64(u.PromptTokenCount),
			OutputTokens: uint64(u.CandidatesTokenCount),
			TotalTokens:  uint64(u.TotalTokenCount),
		}
	} else {
		out.Usage.Requests = 1
	}
	return out, nil
}

func geminiConfig(req ModelRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.SystemInstructions != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstructions, genai.RoleUser)
	}

	ms := req.ModelSettings
	if ms.Temperature.Valid() {
		config.Temperature = genai.Ptr(float32(ms.Temperature.Value))
	}
	if ms.TopP.Valid() {
		config.TopP = genai.Ptr(float32(ms.TopP.Value))
	}
	if ms.MaxTokens.Valid() {
		config.MaxOutputTokens = int32(ms.MaxTokens.Value)
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, tool := range req.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:                 tool.Name,
				Description:          tool.Description,
				ParametersJsonSchema: tool.ParamsJSONSchema,
			}
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: geminiCallingMode(ms.ToolChoice),
			},
		}
	}
	return config
}

func geminiCallingMode(tc modelsettings.ToolChoice) genai.FunctionCallingConfigMode {
	switch tc {
	case modelsettings.ToolChoiceRequired:
		return genai.FunctionCallingConfigModeAny
	case modelsettings.ToolChoiceNone:
		return genai.FunctionCallingConfigModeNone
	default:
		return genai.FunctionCallingConfigModeAuto
	}
}

// geminiContents converts the history. Consecutive tool results are grouped
// in a single user turn, as the API expects one response per call batch.
func geminiContents(history []Message) []*genai.Content {
	var contents []*genai.Content
	var pending []*genai.Part

	flush := func() {
		if len(pending) > 0 {
			contents = append(contents, genai.NewContentFromParts(pending, genai.RoleUser))
			pending = nil
		}
	}

	for _, msg := range history {
		switch msg.Role {
		case RoleTool:
			pending = append(pending, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.ToolName,
					Response: toolResponsePayload(msg.Content),
				},
			})
		case RoleAssistant:
			flush()
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: parseToolArguments(call.Arguments),
					},
				})
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
		default:
			flush()
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	flush()
	return contents
}

// toolResponsePayload wraps a tool output the way Gemini expects: JSON
// objects are passed through, anything else goes under "output".
func toolResponsePayload(output string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(output), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"output": output}
}

func parseToolArguments(arguments string) map[string]any {
	args := map[string]any{}
	if repaired, err := RepairJSON(arguments); err == nil {
		_ = json.Unmarshal([]byte(repaired), &args)
	}
	return args
}
