// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
)

// ErrUpstream marks any failure talking to the chat-completion backend or
// the listings API. Detail stays in the logs, not in the error contract.
var ErrUpstream = errors.New("upstream failure")

// ChatCompletionClient interface for calling chat completion backends
type ChatCompletionClient interface {
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// ChatCompletionRequest represents a chat completion request
type ChatCompletionRequest struct {
	Model      string      `json:"model"`
	Messages   []Message   `json:"messages"`
	Tools      []Tool      `json:"tools,omitempty"`
	ToolChoice interface{} `json:"tool_choice,omitempty"`
}

// Tool represents a tool available to the model
type Tool struct {
	Type     string       `json:"type"` // "function"
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a function tool
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// Message represents a chat message
type Message struct {
	Role         string        `json:"role"`                    // "system", "user", "assistant", "tool"
	Content      string        `json:"content"`                 // Message text content
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`    // Tool calls (assistant messages)
	ToolCallID   string        `json:"tool_call_id,omitempty"`  // Tool call ID (tool messages)
	FunctionCall *FunctionCall `json:"function_call,omitempty"` // Legacy single-function shape
}

// ToolCall represents a tool call made by the assistant
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction contains the function name and arguments for a tool call
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FunctionCall is the legacy function_call payload on assistant messages
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatCompletionResponse represents a chat completion response
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
