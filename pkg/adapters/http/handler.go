// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/propietas/chat-backend/pkg/core/api"
	"github.com/propietas/chat-backend/pkg/core/engine"
	"github.com/propietas/chat-backend/pkg/core/state"
	"github.com/propietas/chat-backend/pkg/observability/logging"
	"github.com/propietas/chat-backend/pkg/tools"
)

// Handler implements the HTTP adapter
type Handler struct {
	engine *engine.Engine
	store  state.Store
	logger *logging.Logger
	mux    *http.ServeMux
}

// New creates a new HTTP handler
func New(eng *engine.Engine, store state.Store, logger *logging.Logger) *Handler {
	h := &Handler{
		engine: eng,
		store:  store,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	// Register routes
	h.mux.HandleFunc("GET /health", h.handleHealth)

	// Threads API
	h.mux.HandleFunc("POST /threads", h.handleCreateThread)
	h.mux.HandleFunc("GET /threads", h.handleListThreads)
	h.mux.HandleFunc("GET /threads/{id}", h.handleGetThreadMessages)
	h.mux.HandleFunc("POST /threads/{id}/messages", h.handleAddMessage)
	h.mux.HandleFunc("DELETE /threads/{id}", h.handleDeleteThread)

	// Users API
	h.mux.HandleFunc("POST /users", h.handleCreateUser)
	h.mux.HandleFunc("GET /users", h.handleListUsers)
	h.mux.HandleFunc("GET /users/{id}", h.handleGetUser)
	h.mux.HandleFunc("GET /users/clients/{clientId}", h.handleListUsersByClient)
	h.mux.HandleFunc("GET /users/clients/{clientId}/usage", h.handleClientUsage)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	h.mux.ServeHTTP(w, r)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}

// writeDomainError maps the error taxonomy to HTTP statuses. Upstream detail
// never reaches the response body; it is already in the logs.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, state.ErrValidation):
		h.writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, state.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, api.ErrUpstream), errors.Is(err, tools.ErrUnknownFunction):
		h.writeError(w, http.StatusBadGateway, "upstream_error", "upstream request failed")
	default:
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
