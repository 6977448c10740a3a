package service

import (
	"context"
	"log/slog"

	"github.com/lydia-game/payflow/internal/payments/domain"
	"github.com/lydia-game/payflow/internal/payments/provider"
)

// OAuthService handles the inbound half of a wallet connection: exchange the
// user's OAuth code for an access token, then make sure the user has a payee
// identity for future payouts.
type OAuthService struct {
	Gateway  provider.Gateway
	Resolver *PayeeResolver
	Logger   *slog.Logger
}

// ExchangeCode exchanges the code and resolves the payee. Payee resolution
// failing to produce an id does not fail the exchange; the session comes
// back with an empty PayeeID and the caller retries resolution later.
func (s *OAuthService) ExchangeCode(ctx context.Context, code string) (domain.UserSession, error) {
	session, err := s.Gateway.ExchangeAuthCode(ctx, code)
	if err != nil {
		return domain.UserSession{}, err
	}

	payeeID, err := s.Resolver.Resolve(ctx, session)
	if err != nil {
		// The user is connected even if resolution hit a transient error.
		s.Logger.Warn("payee resolution failed during oauth exchange",
			"provider_user_id", session.ProviderUserID,
			"err", err,
		)
		return session, nil
	}

	session.PayeeID = payeeID
	return session, nil
}
