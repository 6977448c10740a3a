// Package provider adapts structured payment intents onto the wallet
// provider's conversational command channel. The provider accepts a single
// natural-language instruction per call and answers with labelled free-text
// artifacts rather than status codes; the classifier in this package turns
// those artifacts into a definite outcome.
package provider

import (
	"context"
	"strings"

	"github.com/lydia-game/payflow/internal/payments/domain"
)

// Artifact is one labelled free-text segment of a provider response.
type Artifact struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// CommandResponse is the raw result of one command-channel call.
type CommandResponse struct {
	Artifacts []Artifact `json:"artifacts"`
	Error     string     `json:"error,omitempty"`
}

// Text flattens all artifact contents into a single newline-joined string,
// used for audit records and substring classification.
func (r CommandResponse) Text() string {
	parts := make([]string, 0, len(r.Artifacts))
	for _, a := range r.Artifacts {
		parts = append(parts, a.Content)
	}
	return strings.Join(parts, "\n")
}

// Gateway is the capability set any provider adapter must implement. It is
// stateless: a bearer credential (user token or the service token) accompanies
// every call. None of the operations retry; repeating a natural-language charge
// command could double-charge, so retry policy belongs to the caller.
type Gateway interface {
	// ExchangeAuthCode exchanges a user OAuth code for an access token.
	ExchangeAuthCode(ctx context.Context, code string) (domain.UserSession, error)

	// Charge debits the paying wallet into the app collection payee.
	Charge(ctx context.Context, req domain.TransactionRequest, credential string) (domain.TransactionOutcome, error)

	// Payout credits the target payee from the wallet behind the credential.
	Payout(ctx context.Context, req domain.TransactionRequest, credential string) (domain.TransactionOutcome, error)

	// GetBalances returns the raw balance listing for the credential's wallet.
	GetBalances(ctx context.Context, credential string) (CommandResponse, error)
}

// PayeeDirectory covers the payee discovery/creation commands used by payee
// resolution.
type PayeeDirectory interface {
	ListPayees(ctx context.Context, credential string) (CommandResponse, error)
	CreatePayee(ctx context.Context, credential, walletID, name string) (CommandResponse, error)
}

// AppTokenSource grants service-level tokens via the provider's structured
// token endpoint (client credentials, no user involved).
type AppTokenSource interface {
	GrantAppToken(ctx context.Context) (domain.ServiceToken, error)
}
