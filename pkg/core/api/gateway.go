// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
)

// systemPrompt is the fixed persona prepended to every completion request.
const systemPrompt = "Eres un asistente virtual amigable, serio y considerado de Propietas " +
	"Inmobiliaria. Tu objetivo es ayudar a los clientes a encontrar propiedades para comprar " +
	"o alquilar. Siempre busca la información necesaria del cliente antes de realizar " +
	"búsquedas en la API. Si no tienes suficiente información, pide aclaraciones de manera " +
	"amena y profesional."

// Gateway sends a conversation to the configured chat-completion model and
// returns exactly one assistant turn. The model id is a fixed deployment
// choice; there is no retry, streaming, or token budgeting.
type Gateway struct {
	client ChatCompletionClient
	model  string
}

// NewGateway creates a Gateway over the given client.
func NewGateway(client ChatCompletionClient, model string) *Gateway {
	return &Gateway{client: client, model: model}
}

// Complete prepends the system prompt to history and requests one completion.
// When a tool catalog is supplied, tool selection is left to the model
// ("auto"). Failures wrap ErrUpstream.
func (g *Gateway) Complete(ctx context.Context, history []Message, tools []Tool) (Message, error) {
	req := &ChatCompletionRequest{
		Model:    g.model,
		Messages: append([]Message{{Role: "system", Content: systemPrompt}}, history...),
		Tools:    tools,
	}
	if len(tools) > 0 {
		req.ToolChoice = "auto"
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Message{}, fmt.Errorf("%w: chat completion: %v", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, fmt.Errorf("%w: model returned no choices", ErrUpstream)
	}
	return resp.Choices[0].Message, nil
}
