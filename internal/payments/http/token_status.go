package http

import (
	"net/http"

	"github.com/lydia-game/payflow/internal/payments/service"
	"github.com/lydia-game/payflow/pkg/httpx"
	"github.com/lydia-game/payflow/pkg/slogx"
)

// TokenStatusHandler serves GET /token-status.
type TokenStatusHandler struct {
	Tokens *service.TokenManager
}

// ServeHTTP godoc
//
//	@Summary		Service Token Status
//	@Description	Reports the service token record without exposing the token value.
//	@Tags			Tokens
//	@Produce		json
//	@Success		200	{object}	service.TokenStatus	"hasToken, expiresAt, refreshedAt, refreshDue"
//	@Security		BearerAuth
//	@Router			/token-status [get].
func (h *TokenStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Tokens.Status())
}

// RefreshTokenHandler serves POST /refresh-token.
type RefreshTokenHandler struct {
	Tokens *service.TokenManager
}

// ServeHTTP godoc
//
//	@Summary		Force Service Token Refresh
//	@Description	Acquires a new service token immediately and replaces the durable record.
//	@Tags			Tokens
//	@Produce		json
//	@Success		200	{object}	service.TokenStatus	"hasToken, expiresAt, refreshedAt, refreshDue"
//	@Failure		502	{object}	APIError			"error, error_description"
//	@Security		BearerAuth
//	@Router			/refresh-token [post].
func (h *RefreshTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if _, err := h.Tokens.Refresh(ctx); err != nil {
		log.Warn("forced token refresh failed", "err", err)
		writeDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.Tokens.Status())
}
