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
	"log/slog"

	"github.com/nlpodyssey/intellimarket/usage"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared/constant"
)

// OpenAIChatCompletionsModel talks to any endpoint implementing the OpenAI
// Chat Completions API, including Gemini's compatibility layer.
type OpenAIChatCompletionsModel struct {
	Model  openai.ChatModel
	client OpenaiClient
}

func NewOpenAIChatCompletionsModel(model openai.ChatModel, client OpenaiClient) OpenAIChatCompletionsModel {
	return OpenAIChatCompletionsModel{
		Model:  model,
		client: client,
	}
}

func (m OpenAIChatCompletionsModel) GetResponse(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	body := m.prepareRequest(req)

	response, err := m.client.Chat.Completions.New(ctx, body)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, NewModelBehaviorError("chat completion returned no choices")
	}

	message := response.Choices[0].Message
	if DontLogModelData {
		Logger().Debug("LLM responded")
	} else {
		Logger().Debug("LLM responded", slog.String("message", message.RawJSON()))
	}

	out := &ModelResponse{
		Text: message.Content,
		Usage: usage.Usage{
			Requests:     1,
			InputTokens:  uint64(response.Usage.PromptTokens),
			OutputTokens: uint64(response.Usage.CompletionTokens),
			TotalTokens:  uint64(response.Usage.TotalTokens),
		},
	}
	for _, toolCall := range message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        toolCall.ID,
			Name:      toolCall.Function.Name,
			Arguments: toolCall.Function.Arguments,
		})
	}
	return out, nil
}

func (m OpenAIChatCompletionsModel) prepareRequest(req ModelRequest) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemInstructions != "" {
		messages = append(messages, openai.SystemMessage(req.SystemInstructions))
	}
	for _, msg := range req.Input {
		messages = append(messages, chatMessage(msg))
	}

	body := openai.ChatCompletionNewParams{
		Model:       m.Model,
		Messages:    messages,
		Temperature: req.ModelSettings.Temperature,
		TopP:        req.ModelSettings.TopP,
		MaxTokens:   req.ModelSettings.MaxTokens,
	}
	for _, tool := range req.Tools {
		body.Tools = append(body.Tools, chatTool(tool))
	}
	if len(body.Tools) > 0 && req.ModelSettings.ToolChoice != "" {
		body.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: param.NewOpt(string(req.ModelSettings.ToolChoice)),
		}
	}
	return body
}

func chatMessage(msg Message) openai.ChatCompletionMessageParamUnion {
	switch msg.Role {
	case RoleAssistant:
		asst := &openai.ChatCompletionAssistantMessageParam{
			Role: constant.ValueOf[constant.Assistant](),
		}
		if msg.Content != "" {
			asst.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
				OfString: param.NewOpt(msg.Content),
			}
		}
		for _, call := range msg.ToolCalls {
			arguments := call.Arguments
			if arguments == "" {
				arguments = "{}"
			}
			asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      call.Name,
						Arguments: arguments,
					},
					Type: constant.ValueOf[constant.Function](),
				},
			})
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: asst}
	case RoleTool:
		return openai.ChatCompletionMessageParamUnion{
			OfTool: &openai.ChatCompletionToolMessageParam{
				Content: openai.ChatCompletionToolMessageParamContentUnion{
					OfString: param.NewOpt(msg.Content),
				},
				ToolCallID: msg.ToolCallID,
				Role:       constant.ValueOf[constant.Tool](),
			},
		}
	default:
		return openai.UserMessage(msg.Content)
	}
}

func chatTool(tool FunctionTool) openai.ChatCompletionToolUnionParam {
	var description param.Opt[string]
	if tool.Description != "" {
		description = param.NewOpt(tool.Description)
	}
	return openai.ChatCompletionFunctionTool(
		openai.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: description,
			Parameters:  tool.ParamsJSONSchema,
		},
	)
}
