package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bankcore/internal/ledger"
	dErrors "bankcore/pkg/domain-errors"
	"bankcore/pkg/platform/httputil"
)

// handleCreateUser registers a user. It is the only unauthenticated route.
func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "invalid create user request", err)
		return
	}

	reg, err := h.bank.CreateUser(r.Context(), req.toProfile())
	if err != nil {
		h.writeError(w, r, "failed to create user", err)
		return
	}

	w.Header().Set("Location", "/v1/users/"+reg.User.ID)
	httputil.WriteJSON(w, http.StatusCreated, toCreateUserResponse(reg))
}

// ownUserID resolves {userId} and refuses access to anyone but its owner.
// Ids that cannot exist are reported as not found before ownership is checked.
func (h *Handler) ownUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return "", false
	}
	userID := chi.URLParam(r, "userId")
	if !ledger.IsValidID(userID, ledger.UserIDPrefix) {
		h.writeError(w, r, "malformed user id",
			dErrors.New(dErrors.CodeNotFound, "user not found"))
		return "", false
	}
	if userID != callerID {
		h.writeError(w, r, "access to another user denied",
			dErrors.New(dErrors.CodeForbidden, "access to this user is not allowed"))
		return "", false
	}
	return callerID, true
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownUserID(w, r)
	if !ok {
		return
	}
	user, err := h.bank.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "failed to get user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownUserID(w, r)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "invalid update user request", err)
		return
	}
	user, err := h.bank.UpdateUser(r.Context(), userID, req.toPatch())
	if err != nil {
		h.writeError(w, r, "failed to update user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownUserID(w, r)
	if !ok {
		return
	}
	if err := h.bank.DeleteUser(r.Context(), userID); err != nil {
		h.writeError(w, r, "failed to delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownUserID(w, r)
	if !ok {
		return
	}
	events, err := h.bank.ListAuditEvents(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "failed to list audit events", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditEventsResponse(events))
}
