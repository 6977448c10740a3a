package http

import (
	"net/http"
	"strconv"

	"github.com/lydia-game/payflow/internal/payments/domain"
	"github.com/lydia-game/payflow/internal/payments/store"
	"github.com/lydia-game/payflow/pkg/httpx"
	"github.com/lydia-game/payflow/pkg/slogx"
)

const (
	defaultTransactionListLimit = 50
	maxTransactionListLimit     = 500
)

// TransactionsHandler serves GET /transactions, the audit ledger view.
type TransactionsHandler struct {
	Ledger store.Transactions
}

type transactionsResponse struct {
	Transactions []domain.TransactionRecord `json:"transactions"`
}

// ServeHTTP godoc
//
//	@Summary		Recent Transactions
//	@Description	Lists audit records of provider instructions, newest first.
//	@Tags			Payments
//	@Produce		json
//	@Param			limit	query		int						false	"maximum records to return (default 50, cap 500)"
//	@Success		200		{object}	transactionsResponse	"transactions"
//	@Failure		500		{object}	APIError				"error, error_description"
//	@Security		BearerAuth
//	@Router			/transactions [get].
func (h *TransactionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	limit := defaultTransactionListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ErrInvalidRequest.WriteError(w)
			return
		}
		limit = min(n, maxTransactionListLimit)
	}

	records, err := h.Ledger.ListRecentTransactions(ctx, limit)
	if err != nil {
		log.Error("failed to list transactions", "err", err)
		ErrServerError.WriteError(w)
		return
	}
	if records == nil {
		records = []domain.TransactionRecord{}
	}

	httpx.WriteJSON(w, http.StatusOK, transactionsResponse{Transactions: records})
}
