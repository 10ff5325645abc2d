package handlers

import (
	"cryptochat/infrastructure/http/respond"
	"cryptochat/services"
	"log/slog"
	"net/http"
)

type balance struct {
	ProfileID string `json:"profile_id"`
	Credits   int64  `json:"credits"`
}

// CreditHandler exposes the caller's balance and ledger. Credits are only
// granted by the server, never through this API.
type CreditHandler struct {
	ledger services.ILedgerService
	log    *slog.Logger
}

func NewCreditHandler(ledger services.ILedgerService, log *slog.Logger) *CreditHandler {
	return &CreditHandler{ledger: ledger, log: log}
}

func (h *CreditHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.Handle("GET /credits", protect(http.HandlerFunc(h.handleBalance)))
	mux.Handle("GET /credits/transactions", protect(http.HandlerFunc(h.handleHistory)))
}

func (h *CreditHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	credits, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "balance", balance{ProfileID: userID, Credits: credits})
}

func (h *CreditHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	transactions, err := h.ledger.History(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "transactions", transactions)
}
