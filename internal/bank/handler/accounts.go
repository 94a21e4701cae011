package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bankcore/internal/ledger"
	"bankcore/pkg/platform/httputil"
)

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	var req CreateAccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "invalid create account request", err)
		return
	}
	accountType, err := ledger.ParseAccountType(req.AccountType)
	if err != nil {
		h.writeError(w, r, "invalid create account request", err)
		return
	}

	acct, err := h.bank.CreateAccount(r.Context(), userID, req.Name, accountType)
	if err != nil {
		h.writeError(w, r, "failed to create account", err)
		return
	}
	w.Header().Set("Location", "/v1/accounts/"+acct.Number)
	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(acct))
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	accounts, err := h.bank.ListAccounts(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "failed to list accounts", err)
		return
	}
	resp := ListAccountsResponse{Accounts: make([]AccountResponse, 0, len(accounts))}
	for _, a := range accounts {
		resp.Accounts = append(resp.Accounts, toAccountResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	acct, err := h.bank.GetAccount(r.Context(), userID, chi.URLParam(r, "accountNumber"))
	if err != nil {
		h.writeError(w, r, "failed to get account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(acct))
}

func (h *Handler) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	var req UpdateAccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "invalid update account request", err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		h.writeError(w, r, "invalid update account request", err)
		return
	}
	acct, err := h.bank.UpdateAccount(r.Context(), userID, chi.URLParam(r, "accountNumber"), patch)
	if err != nil {
		h.writeError(w, r, "failed to update account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(acct))
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	if err := h.bank.DeleteAccount(r.Context(), userID, chi.URLParam(r, "accountNumber")); err != nil {
		h.writeError(w, r, "failed to delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
