// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema holds the REST request and response bodies.
package schema

// CreateThreadRequest represents a request to create a thread
type CreateThreadRequest struct {
	UserID string `json:"userId"`
}

// AddMessageRequest represents one incoming user message; posting it runs a
// full orchestration turn.
type AddMessageRequest struct {
	Content string `json:"content"`
}

// CreateUserRequest represents a request to register a user
type CreateUserRequest struct {
	Name        string `json:"name"`
	ClientID    string `json:"clientId"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// ClientUsageResponse reports how many users a tenant has
type ClientUsageResponse struct {
	ClientID  string `json:"clientId"`
	UserCount int    `json:"userCount"`
}
