// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"

	"github.com/propietas/chat-backend/pkg/core/schema"
)

// handleCreateThread handles POST /threads
//
//	@Summary	Create thread
//	@Tags		Threads
//	@Accept		json
//	@Produce	json
//	@Param		request	body		schema.CreateThreadRequest	true	"Create thread request"
//	@Success	200		{object}	state.Thread
//	@Failure	400		{object}	map[string]interface{}
//	@Router		/threads [post]
func (h *Handler) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req schema.CreateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to parse thread request", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	thread, err := h.store.CreateThread(r.Context(), req.UserID)
	if err != nil {
		h.logger.Error("Failed to create thread", "error", err)
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("Thread created", "thread_id", thread.ID, "user_id", thread.UserID)
	writeJSON(w, http.StatusOK, thread)
}

// handleListThreads handles GET /threads
//
//	@Summary	List threads
//	@Tags		Threads
//	@Produce	json
//	@Success	200	{array}	state.Thread
//	@Router		/threads [get]
func (h *Handler) handleListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.store.ListThreads(r.Context())
	if err != nil {
		h.logger.Error("Failed to list threads", "error", err)
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

// handleGetThreadMessages handles GET /threads/{id}. An unknown thread id
// yields an empty list, not 404.
//
//	@Summary	Get thread messages
//	@Tags		Threads
//	@Produce	json
//	@Param		id	path	string	true	"Thread ID"
//	@Success	200	{array}	state.Message
//	@Router		/threads/{id} [get]
func (h *Handler) handleGetThreadMessages(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")

	messages, err := h.store.GetMessages(r.Context(), threadID)
	if err != nil {
		h.logger.Error("Failed to get messages", "thread_id", threadID, "error", err)
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// handleAddMessage handles POST /threads/{id}/messages. It runs one full
// orchestration turn and returns the persisted assistant message.
//
//	@Summary	Add message to thread
//	@Tags		Threads
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Thread ID"
//	@Param		request	body		schema.AddMessageRequest	true	"User message"
//	@Success	200		{object}	state.Message
//	@Failure	404		{object}	map[string]interface{}
//	@Failure	502		{object}	map[string]interface{}
//	@Router		/threads/{id}/messages [post]
func (h *Handler) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")

	var req schema.AddMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to parse message request", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	msg, err := h.engine.ProcessTurn(r.Context(), threadID, req.Content)
	if err != nil {
		h.logger.Error("Turn failed", "thread_id", threadID, "error", err)
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("Turn completed", "thread_id", threadID, "message_id", msg.ID)
	writeJSON(w, http.StatusOK, msg)
}

// handleDeleteThread handles DELETE /threads/{id}; deletion cascades to the
// thread's messages and unknown ids are a no-op.
//
//	@Summary	Delete thread
//	@Tags		Threads
//	@Produce	json
//	@Param		id	path		string	true	"Thread ID"
//	@Success	200	{object}	map[string]interface{}
//	@Router		/threads/{id} [delete]
func (h *Handler) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")

	if err := h.store.DeleteThread(r.Context(), threadID); err != nil {
		h.logger.Error("Failed to delete thread", "thread_id", threadID, "error", err)
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("Thread deleted", "thread_id", threadID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      threadID,
		"deleted": true,
	})
}
