// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory is the in-memory Store implementation, used as the default
// backend and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/propietas/chat-backend/pkg/core/state"
)

// Store is an in-memory implementation of state.Store
type Store struct {
	mu       sync.RWMutex
	threads  map[string]*state.Thread
	messages map[string]*state.Message
	users    map[string]*state.User
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		threads:  make(map[string]*state.Thread),
		messages: make(map[string]*state.Message),
		users:    make(map[string]*state.User),
	}
}

// --- Thread methods ---

// CreateThread allocates an empty thread expiring 14 days from now.
func (s *Store) CreateThread(ctx context.Context, userID string) (*state.Thread, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", state.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	thread := &state.Thread{
		ID:         state.NewID("thread_"),
		UserID:     userID,
		MessageIDs: []string{},
		ExpiresAt:  now.Add(state.ThreadTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.threads[thread.ID] = thread
	return thread, nil
}

// ListThreads returns all threads
func (s *Store) ListThreads(ctx context.Context) ([]*state.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]*state.Thread, 0, len(s.threads))
	for _, t := range s.threads {
		threads = append(threads, t)
	}
	sort.Slice(threads, func(i, j int) bool { return threads[i].CreatedAt.Before(threads[j].CreatedAt) })
	return threads, nil
}

// GetThread retrieves a thread by ID
func (s *Store) GetThread(ctx context.Context, threadID string) (*state.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, exists := s.threads[threadID]
	if !exists {
		return nil, fmt.Errorf("thread %s: %w", threadID, state.ErrNotFound)
	}
	return thread, nil
}

// GetMessages returns the thread's messages in insertion order. Unknown
// thread ids yield an empty slice, matching the REST contract.
func (s *Store) GetMessages(ctx context.Context, threadID string) ([]*state.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, exists := s.threads[threadID]
	if !exists {
		return []*state.Message{}, nil
	}

	messages := make([]*state.Message, 0, len(thread.MessageIDs))
	for _, id := range thread.MessageIDs {
		if msg, ok := s.messages[id]; ok {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// AppendMessage stores the message, then links it into the thread. The
// message record is written first so a partial failure can only leave an
// unlinked message behind, never a dangling link.
func (s *Store) AppendMessage(ctx context.Context, threadID string, msg *state.Message) (*state.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = state.NewID("msg_")
	}
	msg.ThreadID = threadID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.messages[msg.ID] = msg

	if thread, exists := s.threads[threadID]; exists {
		msg.Position = len(thread.MessageIDs)
		thread.MessageIDs = append(thread.MessageIDs, msg.ID)
		thread.UpdatedAt = time.Now()
	}
	return msg, nil
}

// DeleteThread removes a thread and all of its messages. No-op on unknown ids.
func (s *Store) DeleteThread(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, msg := range s.messages {
		if msg.ThreadID == threadID {
			delete(s.messages, id)
		}
	}
	delete(s.threads, threadID)
	return nil
}

// ListExpired returns threads whose expiry lies before now
func (s *Store) ListExpired(ctx context.Context, now time.Time) ([]*state.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []*state.Thread
	for _, t := range s.threads {
		if t.ExpiresAt.Before(now) {
			expired = append(expired, t)
		}
	}
	return expired, nil
}

// --- User methods ---

// CreateUser validates and stores a user
func (s *Store) CreateUser(ctx context.Context, user *state.User) (*state.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.ClientID != user.ClientID {
			continue
		}
		if user.Email != "" && strings.EqualFold(existing.Email, user.Email) {
			return nil, fmt.Errorf("%w: user with email %s already exists for client %s",
				state.ErrValidation, user.Email, user.ClientID)
		}
		if user.PhoneNumber != "" && existing.PhoneNumber == user.PhoneNumber {
			return nil, fmt.Errorf("%w: user with phoneNumber %s already exists for client %s",
				state.ErrValidation, user.PhoneNumber, user.ClientID)
		}
	}

	if user.ID == "" {
		user.ID = state.NewID("user_")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = user
	return user, nil
}

// ListUsers returns all users
func (s *Store) ListUsers(ctx context.Context) ([]*state.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*state.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, userID string) (*state.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, fmt.Errorf("user %s: %w", userID, state.ErrNotFound)
	}
	return user, nil
}

// ListUsersByClient returns all users belonging to a tenant
func (s *Store) ListUsersByClient(ctx context.Context, clientID string) ([]*state.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*state.User
	for _, u := range s.users {
		if u.ClientID == clientID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

// CountUsersByClient counts a tenant's users
func (s *Store) CountUsersByClient(ctx context.Context, clientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, u := range s.users {
		if u.ClientID == clientID {
			count++
		}
	}
	return count, nil
}
