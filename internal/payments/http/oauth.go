package http

import (
	"net/http"

	"github.com/lydia-game/payflow/internal/payments/service"
	"github.com/lydia-game/payflow/pkg/httpx"
	"github.com/lydia-game/payflow/pkg/slogx"
)

// ExchangeHandler serves POST /oauth/exchange.
type ExchangeHandler struct {
	OAuthService *service.OAuthService
}

type exchangeRequest struct {
	Code             string `json:"code"`
	UserIdentityHint string `json:"userIdentityHint,omitempty"`
}

// ServeHTTP godoc
//
//	@Summary		OAuth Code Exchange
//	@Description	Exchanges a wallet provider OAuth code for a user access token and resolves the user's payee identity.
//	@Tags			OAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		exchangeRequest	true	"OAuth code from the provider redirect"
//	@Success		200		{object}	domain.UserSession	"accessToken, expiresIn, providerUserId, payeeId"
//	@Failure		400		{object}	APIError			"error, error_description"
//	@Failure		502		{object}	APIError			"error, error_description"
//	@Router			/oauth/exchange [post].
func (h *ExchangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req exchangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		ErrInvalidRequest.WriteError(w)
		return
	}

	session, err := h.OAuthService.ExchangeCode(ctx, req.Code)
	if err != nil {
		log.Warn("oauth exchange failed", "err", err)
		writeDomainError(w, err)
		return
	}

	log.Info("wallet connected",
		"provider_user_id", session.ProviderUserID,
		"payee_resolved", session.PayeeID != "",
	)

	httpx.WriteJSON(w, http.StatusOK, session)
}
