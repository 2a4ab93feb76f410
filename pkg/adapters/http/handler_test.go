// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/propietas/chat-backend/pkg/core/api"
	"github.com/propietas/chat-backend/pkg/core/engine"
	"github.com/propietas/chat-backend/pkg/core/state"
	"github.com/propietas/chat-backend/pkg/observability/logging"
	"github.com/propietas/chat-backend/pkg/storage/memory"
	"github.com/propietas/chat-backend/pkg/tools"
)

// staticGateway always returns the same assistant reply.
type staticGateway struct {
	reply api.Message
	err   error
}

func (g *staticGateway) Complete(_ context.Context, _ []api.Message, _ []api.Tool) (api.Message, error) {
	return g.reply, g.err
}

func newTestHandler(t *testing.T, gateway engine.Completer) (*Handler, *memory.Store) {
	t.Helper()
	store := memory.New()
	if gateway == nil {
		gateway = &staticGateway{reply: api.Message{Role: "assistant", Content: "ok"}}
	}
	eng, err := engine.New(store, gateway, tools.NewRegistry(), logging.Discard())
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return New(eng, store, logging.Discard()), store
}

func doJSON(t *testing.T, h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCreateThread(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/threads", map[string]string{"userId": "user_1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var thread state.Thread
	if err := json.Unmarshal(rec.Body.Bytes(), &thread); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if thread.UserID != "user_1" {
		t.Errorf("userId = %q", thread.UserID)
	}
	if thread.ExpiresAt.IsZero() {
		t.Error("expiresAt not set")
	}
}

func TestCreateThread_MissingUser(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/threads", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAddMessage(t *testing.T) {
	h, store := newTestHandler(t, &staticGateway{
		reply: api.Message{Role: "assistant", Content: "Hola"},
	})
	thread, _ := store.CreateThread(context.Background(), "user_1")

	rec := doJSON(t, h, http.MethodPost, "/threads/"+thread.ID+"/messages",
		map[string]string{"content": "buenas"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var msg state.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Role != state.RoleAssistant || msg.Content != "Hola" {
		t.Errorf("reply = %q/%q", msg.Role, msg.Content)
	}
}

func TestAddMessage_UnknownThread(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/threads/thread_missing/messages",
		map[string]string{"content": "hola"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAddMessage_UpstreamFailure(t *testing.T) {
	h, store := newTestHandler(t, &staticGateway{err: api.ErrUpstream})
	thread, _ := store.CreateThread(context.Background(), "user_1")

	rec := doJSON(t, h, http.MethodPost, "/threads/"+thread.ID+"/messages",
		map[string]string{"content": "hola"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Type != "upstream_error" {
		t.Errorf("error type = %q", body.Error.Type)
	}
	// The response stays opaque; detail lives in the logs only.
	if body.Error.Message != "upstream request failed" {
		t.Errorf("error message = %q", body.Error.Message)
	}
}

func TestGetThreadMessages_UnknownThreadReturnsEmptyList(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/threads/thread_missing", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var msgs []state.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty list, got %d messages", len(msgs))
	}
}

func TestDeleteThread(t *testing.T) {
	h, store := newTestHandler(t, nil)
	thread, _ := store.CreateThread(context.Background(), "user_1")

	rec := doJSON(t, h, http.MethodDelete, "/threads/"+thread.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, err := store.GetThread(context.Background(), thread.ID); err == nil {
		t.Error("thread should be deleted")
	}
}

func TestCreateUser(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/users", map[string]string{
		"name":     "Ana",
		"clientId": "client_1",
		"email":    "ana@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var user state.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.ID == "" || user.ClientID != "client_1" {
		t.Errorf("user = %+v", user)
	}
}

func TestCreateUser_NoContact(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/users", map[string]string{
		"name":     "Ana",
		"clientId": "client_1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/users/user_missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestClientUsage(t *testing.T) {
	h, store := newTestHandler(t, nil)
	ctx := context.Background()
	for _, email := range []string{"a@x.com", "b@x.com"} {
		if _, err := store.CreateUser(ctx, &state.User{Name: "U", ClientID: "client_1", Email: email}); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/users/clients/client_1/usage", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var usage struct {
		ClientID  string `json:"clientId"`
		UserCount int    `json:"userCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &usage); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if usage.ClientID != "client_1" || usage.UserCount != 2 {
		t.Errorf("usage = %+v", usage)
	}
}
