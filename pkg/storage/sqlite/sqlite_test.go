// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/propietas/chat-backend/pkg/core/state"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestThreadLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "user_1")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if thread.ExpiresAt.Before(time.Now().Add(13 * 24 * time.Hour)) {
		t.Errorf("expiry %v is too soon", thread.ExpiresAt)
	}

	got, err := store.GetThread(ctx, thread.ID)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if got.UserID != "user_1" || len(got.MessageIDs) != 0 {
		t.Errorf("thread = %+v", got)
	}

	if err := store.DeleteThread(ctx, thread.ID); err != nil {
		t.Fatalf("DeleteThread: %v", err)
	}
	if _, err := store.GetThread(ctx, thread.ID); !errors.Is(err, state.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestAppendMessage_PositionsAndRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	thread, _ := store.CreateThread(ctx, "user_1")

	first, err := store.AppendMessage(ctx, thread.ID, &state.Message{
		Role:    state.RoleUser,
		Content: "hola",
	})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if first.Position != 0 {
		t.Errorf("first position = %d, want 0", first.Position)
	}

	second, err := store.AppendMessage(ctx, thread.ID, &state.Message{
		Role: state.RoleAssistant,
		FunctionCall: &state.FunctionCall{
			Name:      "searchProperties",
			Arguments: map[string]any{"type": "Casa"},
		},
	})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if second.Position != 1 {
		t.Errorf("second position = %d, want 1", second.Position)
	}

	msgs, err := store.GetMessages(ctx, thread.ID)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "hola" {
		t.Errorf("message 0 content = %q", msgs[0].Content)
	}
	if msgs[1].FunctionCall == nil {
		t.Fatal("function call did not survive the round trip")
	}
	if msgs[1].FunctionCall.Name != "searchProperties" {
		t.Errorf("function name = %q", msgs[1].FunctionCall.Name)
	}
	if msgs[1].FunctionCall.Arguments["type"] != "Casa" {
		t.Errorf("function arguments = %v", msgs[1].FunctionCall.Arguments)
	}
}

func TestGetMessages_UnknownThread(t *testing.T) {
	store := newTestStore(t)
	msgs, err := store.GetMessages(context.Background(), "thread_missing")
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("unknown thread should yield an empty slice, got %v", msgs)
	}
}

func TestDeleteThread_CascadesToMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	thread, _ := store.CreateThread(ctx, "user_1")
	if _, err := store.AppendMessage(ctx, thread.ID, &state.Message{Role: state.RoleUser, Content: "hola"}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	if err := store.DeleteThread(ctx, thread.ID); err != nil {
		t.Fatalf("DeleteThread: %v", err)
	}
	msgs, _ := store.GetMessages(ctx, thread.ID)
	if len(msgs) != 0 {
		t.Errorf("messages should be deleted with their thread, got %d", len(msgs))
	}
}

func TestListExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.CreateThread(ctx, "user_1"); err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	stale, _ := store.CreateThread(ctx, "user_1")

	// Backdate one thread past the cutoff.
	if _, err := store.db.ExecContext(ctx,
		`UPDATE threads SET expires_at = ? WHERE id = ?`,
		time.Now().Add(-time.Hour), stale.ID); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	expired, err := store.ListExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("ListExpired: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != stale.ID {
		t.Errorf("expired = %+v", expired)
	}
}

func TestCreateUser_DuplicateContact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, &state.User{Name: "Ana", ClientID: "c1", Email: "ana@example.com"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Case-insensitive duplicate within the tenant.
	_, err := store.CreateUser(ctx, &state.User{Name: "Ana B", ClientID: "c1", Email: "ANA@example.com"})
	if !errors.Is(err, state.ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate email, got %v", err)
	}

	// Same contact under another tenant is fine.
	if _, err := store.CreateUser(ctx, &state.User{Name: "Ana", ClientID: "c2", Email: "ana@example.com"}); err != nil {
		t.Fatalf("same email under another client: %v", err)
	}

	count, err := store.CountUsersByClient(ctx, "c1")
	if err != nil {
		t.Fatalf("CountUsersByClient: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
