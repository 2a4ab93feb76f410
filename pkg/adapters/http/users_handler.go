// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"

	"github.com/propietas/chat-backend/pkg/core/schema"
	"github.com/propietas/chat-backend/pkg/core/state"
)

// handleCreateUser handles POST /users
//
//	@Summary	Register user
//	@Tags		Users
//	@Accept		json
//	@Produce	json
//	@Param		request	body		schema.CreateUserRequest	true	"Create user request"
//	@Success	200		{object}	state.User
//	@Failure	400		{object}	map[string]interface{}
//	@Router		/users [post]
func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req schema.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to parse user request", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	user, err := h.store.CreateUser(r.Context(), &state.User{
		Name:        req.Name,
		ClientID:    req.ClientID,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.logger.Error("Failed to create user", "client_id", req.ClientID, "error", err)
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("User created", "user_id", user.ID, "client_id", user.ClientID)
	writeJSON(w, http.StatusOK, user)
}

// handleListUsers handles GET /users
//
//	@Summary	List users
//	@Tags		Users
//	@Produce	json
//	@Success	200	{array}	state.User
//	@Router		/users [get]
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", "error", err)
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleGetUser handles GET /users/{id}
//
//	@Summary	Get user
//	@Tags		Users
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	state.User
//	@Failure	404	{object}	map[string]interface{}
//	@Router		/users/{id} [get]
func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleListUsersByClient handles GET /users/clients/{clientId}
//
//	@Summary	List users for a tenant
//	@Tags		Users
//	@Produce	json
//	@Param		clientId	path	string	true	"Client ID"
//	@Success	200	{array}	state.User
//	@Router		/users/clients/{clientId} [get]
func (h *Handler) handleListUsersByClient(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("clientId")

	users, err := h.store.ListUsersByClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("Failed to list users by client", "client_id", clientID, "error", err)
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleClientUsage handles GET /users/clients/{clientId}/usage
//
//	@Summary	Tenant user count
//	@Tags		Users
//	@Produce	json
//	@Param		clientId	path		string	true	"Client ID"
//	@Success	200			{object}	schema.ClientUsageResponse
//	@Router		/users/clients/{clientId}/usage [get]
func (h *Handler) handleClientUsage(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("clientId")

	count, err := h.store.CountUsersByClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("Failed to count users", "client_id", clientID, "error", err)
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema.ClientUsageResponse{
		ClientID:  clientID,
		UserCount: count,
	})
}
