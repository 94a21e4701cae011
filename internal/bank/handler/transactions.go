package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bankcore/internal/ledger"
	dErrors "bankcore/pkg/domain-errors"
	"bankcore/pkg/platform/httputil"
)

func (h *Handler) handlePostTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	var req CreateTransactionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "invalid transaction request", err)
		return
	}
	txReq, err := req.toRequest()
	if err != nil {
		h.writeError(w, r, "invalid transaction request", err)
		return
	}

	number := chi.URLParam(r, "accountNumber")
	txn, err := h.bank.PostTransaction(r.Context(), userID, number, txReq)
	if err != nil {
		h.writeError(w, r, "transaction not applied", err)
		return
	}
	w.Header().Set("Location", "/v1/accounts/"+number+"/transactions/"+txn.ID)
	httputil.WriteJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	txns, err := h.bank.ListTransactions(r.Context(), userID, chi.URLParam(r, "accountNumber"))
	if err != nil {
		h.writeError(w, r, "failed to list transactions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListTransactionsResponse{Transactions: toTransactionResponses(txns)})
}

// handleGetStatement returns the balance with the history that produced it.
func (h *Handler) handleGetStatement(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	acct, txns, err := h.bank.GetStatement(r.Context(), userID, chi.URLParam(r, "accountNumber"))
	if err != nil {
		h.writeError(w, r, "failed to get statement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatementResponse{
		Account:      toAccountResponse(acct),
		Transactions: toTransactionResponses(txns),
	})
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	transactionID := chi.URLParam(r, "transactionId")
	if !ledger.IsValidID(transactionID, ledger.TransactionIDPrefix) {
		h.writeError(w, r, "malformed transaction id",
			dErrors.New(dErrors.CodeNotFound, "transaction not found"))
		return
	}
	txn, err := h.bank.GetTransaction(r.Context(), userID, chi.URLParam(r, "accountNumber"), transactionID)
	if err != nil {
		h.writeError(w, r, "failed to get transaction", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransactionResponse(txn))
}
