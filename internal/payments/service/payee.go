package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lydia-game/payflow/internal/payments/domain"
	"github.com/lydia-game/payflow/internal/payments/provider"
	"github.com/lydia-game/payflow/internal/payments/store"
)

// Payee identifiers come back embedded in prose. The strict pattern matches
// the provider's canonical UUID-suffixed form; the loose one catches
// reformatted or truncated renderings.
var (
	payeeIDStrict = regexp.MustCompile(`\bpd-[0-9a-f]{8}(?:-[0-9a-f]{4}){3}-[0-9a-f]{12}\b`)
	payeeIDLoose  = regexp.MustCompile(`pd-[A-Za-z0-9-]{8,}`)
)

// PayeeResolver maps each provider user to exactly one payee identity,
// creating it lazily on first OAuth connection and reusing it forever after.
type PayeeResolver struct {
	Links     store.PayeeLinks
	Directory provider.PayeeDirectory
	Logger    *slog.Logger
}

// Resolve returns the payee id for the session's user, creating one if
// needed. Returns an empty id (and no error) when the provider response
// yields no identifier: the OAuth exchange still succeeds and the caller
// retries resolution later. Payouts must refuse an empty payee id.
func (r *PayeeResolver) Resolve(ctx context.Context, session domain.UserSession) (string, error) {
	log := r.Logger.With("provider_user_id", session.ProviderUserID)

	// An existing link means a payee was already created for this user;
	// never create a second one.
	exists, err := r.Links.HasPayeeLink(ctx, session.ProviderUserID)
	if err != nil {
		return "", err
	}
	if exists {
		link, err := r.Links.GetPayeeLink(ctx, session.ProviderUserID)
		if err != nil {
			return "", err
		}
		return link.PayeeID, nil
	}

	name := PayeeName(session.ProviderUserID)

	payeeID, err := r.findExisting(ctx, session.AccessToken, name)
	if err != nil {
		return "", err
	}

	if payeeID == "" {
		payeeID, err = r.createPayee(ctx, session, name)
		if err != nil {
			return "", err
		}
	}

	if payeeID == "" {
		// Non-fatal: record the unresolved link so a later attempt retries
		// without losing the dedup guarantee.
		log.Warn("payee id not found in provider response, resolution deferred")
	}

	if err := r.Links.UpsertPayeeLink(ctx, domain.PayeeLink{
		ProviderUserID: session.ProviderUserID,
		PayeeID:        payeeID,
	}); err != nil {
		return "", err
	}

	return payeeID, nil
}

// findExisting scans the provider's payee listing for a payee already created
// under this user's deterministic name. The name derivation is what makes
// repeated creation attempts recognizable even without persisted state.
func (r *PayeeResolver) findExisting(ctx context.Context, credential, name string) (string, error) {
	resp, err := r.Directory.ListPayees(ctx, credential)
	if err != nil {
		// Listing is best-effort; creation below still dedupes by name.
		if errors.Is(err, domain.ErrProviderCall) {
			r.Logger.Warn("payee listing failed, falling through to create", "err", err)
			return "", nil
		}
		return "", err
	}

	for _, artifact := range resp.Artifacts {
		if !containsName(artifact.Content, name) {
			continue
		}
		if id := extractPayeeID(artifact.Content); id != "" {
			return id, nil
		}
	}
	return "", nil
}

func (r *PayeeResolver) createPayee(ctx context.Context, session domain.UserSession, name string) (string, error) {
	resp, err := r.Directory.CreatePayee(ctx, session.AccessToken, session.ProviderUserID, name)
	if err != nil {
		return "", err
	}
	return extractPayeeID(resp.Text()), nil
}

// extractPayeeID pulls a payee identifier out of free text, preferring the
// strict canonical form.
func extractPayeeID(text string) string {
	if id := payeeIDStrict.FindString(text); id != "" {
		return id
	}
	return payeeIDLoose.FindString(text)
}

// PayeeName derives the deterministic payee name for a provider user.
func PayeeName(providerUserID string) string {
	return fmt.Sprintf("lydia-player-%s", providerUserID)
}

func containsName(text, name string) bool {
	return name != "" && strings.Contains(text, name)
}
