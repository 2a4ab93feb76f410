// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package state defines the persisted data model and the storage contracts
// shared by the memory, sqlite and postgres backends.
package state

import (
	"context"
	"errors"
	"time"
)

// ThreadTTL is how long a thread lives before the sweep removes it.
const ThreadTTL = 14 * 24 * time.Hour

// Sentinel errors matched with errors.Is at the HTTP boundary.
var (
	// ErrNotFound marks an id or name that resolves to nothing.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks missing or contradictory caller input.
	ErrValidation = errors.New("validation failed")
)

// Role values for Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ThreadStore persists threads and their ordered messages.
//
// AppendMessage writes the message record before linking it into the thread:
// a message row without a link is tolerated, a link to a missing row is not.
// Appending to a nonexistent thread persists an orphan message and does not
// error; callers that need existence checks use GetThread.
type ThreadStore interface {
	CreateThread(ctx context.Context, userID string) (*Thread, error)
	ListThreads(ctx context.Context) ([]*Thread, error)
	GetThread(ctx context.Context, threadID string) (*Thread, error)

	// GetMessages returns a thread's messages in insertion order. A thread
	// with no messages, or an unknown thread id, yields an empty slice.
	GetMessages(ctx context.Context, threadID string) ([]*Message, error)
	AppendMessage(ctx context.Context, threadID string, msg *Message) (*Message, error)

	// DeleteThread removes the thread's messages, then the thread itself.
	// Unknown ids are a silent no-op.
	DeleteThread(ctx context.Context, threadID string) error

	// ListExpired returns threads whose ExpiresAt lies before now.
	ListExpired(ctx context.Context, now time.Time) ([]*Thread, error)
}

// UserStore persists users.
type UserStore interface {
	// CreateUser fails with ErrValidation unless at least one of Email or
	// PhoneNumber is set, or when (ClientID, Email) / (ClientID, PhoneNumber)
	// collide with an existing user.
	CreateUser(ctx context.Context, user *User) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	ListUsersByClient(ctx context.Context, clientID string) ([]*User, error)
	CountUsersByClient(ctx context.Context, clientID string) (int, error)
}

// Store bundles the two contracts; every backend implements both.
type Store interface {
	ThreadStore
	UserStore
}

// User is an identity record scoped to a tenant via ClientID.
type User struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate enforces the contact invariant.
func (u *User) Validate() error {
	if u.Name == "" {
		return errors.Join(ErrValidation, errors.New("name is required"))
	}
	if u.ClientID == "" {
		return errors.Join(ErrValidation, errors.New("clientId is required"))
	}
	if u.Email == "" && u.PhoneNumber == "" {
		return errors.Join(ErrValidation, errors.New("either email or phoneNumber must be provided"))
	}
	return nil
}

// Thread is one conversation owned by a single user.
type Thread struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	MessageIDs []string  `json:"messages"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Message is one turn inside a thread. Messages are never mutated.
type Message struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	Role     string `json:"role"`
	Content  string `json:"content"`
	// FunctionCall is set only on assistant turns that requested a tool in
	// the legacy function_call shape.
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
	// ToolCallID links a tool-result turn back to the call that produced it.
	ToolCallID string    `json:"toolCallId,omitempty"`
	Position   int       `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FunctionCall is the legacy single-function request payload.
type FunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}
