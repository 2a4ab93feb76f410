// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine drives one conversation turn: persist the user message,
// replay history to the model, resolve at most one tool call, and persist
// the assistant's reply.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/propietas/chat-backend/pkg/core/api"
	"github.com/propietas/chat-backend/pkg/core/state"
	"github.com/propietas/chat-backend/pkg/observability/logging"
	"github.com/propietas/chat-backend/pkg/tools"
)

// Completer produces one assistant turn from a history and a tool catalog.
// Implemented by api.Gateway.
type Completer interface {
	Complete(ctx context.Context, history []api.Message, tools []api.Tool) (api.Message, error)
}

// Engine is the thread orchestrator.
type Engine struct {
	store    state.ThreadStore
	gateway  Completer
	registry *tools.Registry
	catalog  []api.Tool
	logger   *logging.Logger
}

// New creates an Engine. All collaborators are required.
func New(store state.ThreadStore, gateway Completer, registry *tools.Registry, logger *logging.Logger) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("thread store is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("function registry is required")
	}

	return &Engine{
		store:    store,
		gateway:  gateway,
		registry: registry,
		catalog:  toolCatalog(),
		logger:   logger,
	}, nil
}

// ProcessTurn runs one full orchestration turn for the thread and returns the
// persisted assistant message.
//
// The user message is persisted up front and never rolled back: a failure in
// the gateway or a tool handler aborts the turn and leaves the thread with an
// unanswered user turn. That matches the intended lifecycle, not an accident.
func (e *Engine) ProcessTurn(ctx context.Context, threadID, content string) (*state.Message, error) {
	// 1. Append the user turn.
	userMsg := &state.Message{
		Role:    state.RoleUser,
		Content: content,
	}
	if _, err := e.store.AppendMessage(ctx, threadID, userMsg); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	// 2. Load history. GetThread is the existence check; GetMessages alone
	// would silently yield an empty history for an unknown id.
	if _, err := e.store.GetThread(ctx, threadID); err != nil {
		return nil, err
	}
	stored, err := e.store.GetMessages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := historyFromStored(stored)

	// 3. First completion, catalog always offered.
	reply, err := e.gateway.Complete(ctx, history, e.catalog)
	if err != nil {
		return nil, err
	}

	// 4. Single tool round-trip. Only the first requested call is honored;
	// additional simultaneous calls are dropped.
	if len(reply.ToolCalls) > 0 {
		tc := reply.ToolCalls[0]
		args := parseJSONArgs(tc.Function.Arguments)

		e.logger.Info("Executing tool call",
			"thread_id", threadID, "function", tc.Function.Name)

		output, err := e.registry.Call(ctx, tc.Function.Name, args)
		if err != nil {
			// Not caught: the whole turn fails, nothing more is persisted.
			return nil, err
		}

		outputJSON, err := json.Marshal(output)
		if err != nil {
			return nil, fmt.Errorf("encode tool output: %w", err)
		}

		history = append(history, reply)
		history = append(history, api.Message{
			Role:       state.RoleTool,
			Content:    string(outputJSON),
			ToolCallID: tc.ID,
		})

		reply, err = e.gateway.Complete(ctx, history, e.catalog)
		if err != nil {
			return nil, err
		}
	}

	// 5. Persist the assistant turn.
	role := reply.Role
	if role == "" {
		role = state.RoleAssistant
	}
	assistantMsg := &state.Message{
		Role:    role,
		Content: reply.Content,
	}
	if reply.FunctionCall != nil {
		assistantMsg.FunctionCall = &state.FunctionCall{
			Name:      reply.FunctionCall.Name,
			Arguments: parseJSONArgs(reply.FunctionCall.Arguments),
		}
	}
	if _, err := e.store.AppendMessage(ctx, threadID, assistantMsg); err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}
	return assistantMsg, nil
}

// historyFromStored maps persisted messages to their model-facing turn shape
// by role.
func historyFromStored(stored []*state.Message) []api.Message {
	history := make([]api.Message, 0, len(stored))
	for _, msg := range stored {
		switch {
		case msg.Role == state.RoleTool:
			history = append(history, api.Message{
				Role:       state.RoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		case msg.Role == state.RoleAssistant && msg.FunctionCall != nil:
			args, err := json.Marshal(msg.FunctionCall.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			history = append(history, api.Message{
				Role:    state.RoleAssistant,
				Content: msg.Content,
				FunctionCall: &api.FunctionCall{
					Name:      msg.FunctionCall.Name,
					Arguments: string(args),
				},
			})
		default:
			history = append(history, api.Message{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}
	return history
}

// parseJSONArgs decodes tool-call arguments, defaulting to an empty map on
// malformed or absent input rather than failing the turn.
func parseJSONArgs(jsonStr string) map[string]any {
	if jsonStr == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &args); err != nil {
		return map[string]any{}
	}
	if args == nil {
		return map[string]any{}
	}
	return args
}
