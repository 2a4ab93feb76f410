// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient implements ChatCompletionClient using the official OpenAI Go SDK.
// Supports OpenAI, Ollama, vLLM, and other OpenAI-compatible backends.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client using the official
// SDK. The baseURL parameter allows connecting to OpenAI-compatible backends.
func NewOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	opts := []option.RequestOption{}

	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		// Dummy key for local backends that don't require authentication.
		opts = append(opts, option.WithAPIKey("dummy"))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
	}
}

// convertMessages converts our Message types to OpenAI SDK message params
func convertMessages(messages []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			result = append(result, openai.SystemMessage(msg.Content))
		case "user":
			result = append(result, openai.UserMessage(msg.Content))
		case "assistant":
			switch {
			case len(msg.ToolCalls) > 0:
				toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
				for _, tc := range msg.ToolCalls {
					toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: tc.Function.Arguments,
						},
					})
				}
				assistantMsg := &openai.ChatCompletionAssistantMessageParam{
					ToolCalls: toolCalls,
				}
				if msg.Content != "" {
					assistantMsg.Content.OfString = openai.String(msg.Content)
				}
				result = append(result, openai.ChatCompletionMessageParamUnion{
					OfAssistant: assistantMsg,
				})
			case msg.FunctionCall != nil:
				// Stored history may carry the legacy function_call shape.
				assistantMsg := &openai.ChatCompletionAssistantMessageParam{
					FunctionCall: openai.ChatCompletionAssistantMessageParamFunctionCall{
						Name:      msg.FunctionCall.Name,
						Arguments: msg.FunctionCall.Arguments,
					},
				}
				if msg.Content != "" {
					assistantMsg.Content.OfString = openai.String(msg.Content)
				}
				result = append(result, openai.ChatCompletionMessageParamUnion{
					OfAssistant: assistantMsg,
				})
			default:
				result = append(result, openai.AssistantMessage(msg.Content))
			}
		case "tool":
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}
	return result, nil
}

// buildParams constructs OpenAI SDK ChatCompletionNewParams from our ChatCompletionRequest
func buildParams(req *ChatCompletionRequest, messages []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: messages,
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			funcDef := shared.FunctionDefinitionParam{
				Name: t.Function.Name,
			}
			if t.Function.Description != "" {
				funcDef.Description = openai.String(t.Function.Description)
			}
			if t.Function.Parameters != nil {
				funcDef.Parameters = shared.FunctionParameters(t.Function.Parameters)
			}
			tools = append(tools, openai.ChatCompletionToolParam{
				Function: funcDef,
			})
		}
		params.Tools = tools
	}

	if tc, ok := req.ToolChoice.(string); ok && tc != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(tc),
		}
	}

	return params
}

// extractToolCalls converts SDK tool calls to our ToolCall types
func extractToolCalls(sdkToolCalls []openai.ChatCompletionMessageToolCall) []ToolCall {
	if len(sdkToolCalls) == 0 {
		return nil
	}
	result := make([]ToolCall, 0, len(sdkToolCalls))
	for _, tc := range sdkToolCalls {
		result = append(result, ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return result
}

// CreateChatCompletion implements ChatCompletionClient.CreateChatCompletion
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	messages, err := convertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	params := buildParams(req, messages)

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	choices := make([]Choice, 0, len(completion.Choices))
	for _, choice := range completion.Choices {
		msg := Message{
			Role:      string(choice.Message.Role),
			Content:   choice.Message.Content,
			ToolCalls: extractToolCalls(choice.Message.ToolCalls),
		}
		if choice.Message.FunctionCall.Name != "" {
			msg.FunctionCall = &FunctionCall{
				Name:      choice.Message.FunctionCall.Name,
				Arguments: choice.Message.FunctionCall.Arguments,
			}
		}
		choices = append(choices, Choice{
			Index:        int(choice.Index),
			Message:      msg,
			FinishReason: string(choice.FinishReason),
		})
	}

	return &ChatCompletionResponse{
		ID:      completion.ID,
		Object:  string(completion.Object),
		Created: completion.Created,
		Model:   completion.Model,
		Choices: choices,
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}
