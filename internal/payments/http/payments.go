package http

import (
	"net/http"

	"github.com/lydia-game/payflow/internal/payments/service"
	"github.com/lydia-game/payflow/pkg/httpx"
	"github.com/lydia-game/payflow/pkg/slogx"
)

// ChargeHandler serves POST /charge.
type ChargeHandler struct {
	PaymentService *service.PaymentService
}

type chargeRequest struct {
	Credential  string  `json:"credential"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	PayerID     string  `json:"payerId"`
}

// ServeHTTP godoc
//
//	@Summary		Charge a user's wallet
//	@Description	Debits the payer's wallet into the app collection payee using the user's own credential. Single provider call, never retried.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		chargeRequest				true	"charge instruction"
//	@Success		200		{object}	domain.TransactionOutcome	"succeeded, command, rawResponse"
//	@Failure		400		{object}	APIError					"error, error_description"
//	@Failure		401		{object}	APIError					"error, error_description"
//	@Failure		502		{object}	APIError					"error, error_description"
//	@Security		BearerAuth
//	@Router			/charge [post].
func (h *ChargeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req chargeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Credential == "" {
		ErrInvalidRequest.WriteError(w)
		return
	}

	outcome, err := h.PaymentService.Charge(ctx, req.Credential, req.Amount, req.PayerID, req.Description)
	if err != nil {
		log.Warn("charge failed", "payer_id", req.PayerID, "err", err)
		writeDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, outcome)
}

// PayoutHandler serves POST /payout.
type PayoutHandler struct {
	PaymentService *service.PaymentService
}

type payoutRequest struct {
	Credential  string  `json:"credential,omitempty"` // empty: use the service token
	Amount      float64 `json:"amount"`
	PayeeID     string  `json:"payeeId"`
	Description string  `json:"description"`
}

// ServeHTTP godoc
//
//	@Summary		Pay out winnings to a payee
//	@Description	Credits the payee from the app distribution wallet (service token) or from the supplied credential's wallet. Single provider call, never retried.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		payoutRequest				true	"payout instruction"
//	@Success		200		{object}	domain.TransactionOutcome	"succeeded, command, rawResponse"
//	@Failure		400		{object}	APIError					"error, error_description"
//	@Failure		409		{object}	APIError					"error, error_description"
//	@Failure		502		{object}	APIError					"error, error_description"
//	@Security		BearerAuth
//	@Router			/payout [post].
func (h *PayoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req payoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		ErrInvalidRequest.WriteError(w)
		return
	}

	outcome, err := h.PaymentService.Payout(ctx, req.Credential, req.Amount, req.PayeeID, req.Description)
	if err != nil {
		log.Warn("payout failed", "payee_id", req.PayeeID, "err", err)
		writeDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, outcome)
}

// BalanceHandler serves POST /balance.
type BalanceHandler struct {
	PaymentService *service.PaymentService
}

type balanceRequest struct {
	Credential string `json:"credential,omitempty"` // empty: use the service token
}

// ServeHTTP godoc
//
//	@Summary		Wallet balance listing
//	@Description	Returns the provider's raw balance artifacts for the credential's wallet (or the app wallet when no credential is given).
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		balanceRequest				true	"credential to query"
//	@Success		200		{object}	provider.CommandResponse	"artifacts"
//	@Failure		502		{object}	APIError					"error, error_description"
//	@Security		BearerAuth
//	@Router			/balance [post].
func (h *BalanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req balanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		ErrInvalidRequest.WriteError(w)
		return
	}

	credential := req.Credential
	if credential == "" {
		token, err := h.PaymentService.Tokens.Token(ctx)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		credential = token
	}

	resp, err := h.PaymentService.Balances(ctx, credential)
	if err != nil {
		log.Warn("balance query failed", "err", err)
		writeDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
