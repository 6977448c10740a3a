package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lydia-game/payflow/internal/payments/domain"
)

// DefaultTimeout bounds every provider call. The command channel is slow
// (it runs an agent on the far side) but must never hang a game turn forever.
const DefaultTimeout = 30 * time.Second

// Client talks to the Payman sidecar. It holds no mutable state; every call
// carries its own credential.
type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string

	// CollectionPayeeID is the app-owned payee that receives charges.
	CollectionPayeeID string

	HTTPClient *http.Client
}

// Compile-time interface checks.
var (
	_ Gateway        = (*Client)(nil)
	_ PayeeDirectory = (*Client)(nil)
	_ AppTokenSource = (*Client)(nil)
)

// NewClient creates a provider client with the default request timeout.
func NewClient(baseURL, clientID, clientSecret, collectionPayeeID string) *Client {
	return &Client{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		CollectionPayeeID: collectionPayeeID,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

type exchangeResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	UserID      string `json:"userId"`
	Error       string `json:"error,omitempty"`
}

// ExchangeAuthCode exchanges a user OAuth code for a user access token via the
// provider's structured token endpoint.
func (c *Client) ExchangeAuthCode(ctx context.Context, code string) (domain.UserSession, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.UserSession{}, domain.ErrInvalidCode
	}

	var out exchangeResponse
	if err := c.postJSON(ctx, "/oauth/exchange", "", map[string]string{"code": code}, &out); err != nil {
		return domain.UserSession{}, fmt.Errorf("%w: %w", domain.ErrProviderAuth, err)
	}

	if out.Error != "" || out.AccessToken == "" {
		return domain.UserSession{}, fmt.Errorf("%w: provider rejected code: %s", domain.ErrProviderAuth, out.Error)
	}

	return domain.UserSession{
		AccessToken:    out.AccessToken,
		ExpiresIn:      out.ExpiresIn,
		ProviderUserID: out.UserID,
	}, nil
}

// GrantAppToken acquires a service-level token with client credentials.
func (c *Client) GrantAppToken(ctx context.Context) (domain.ServiceToken, error) {
	body := map[string]string{
		"grantType":    "client_credentials",
		"clientId":     c.ClientID,
		"clientSecret": c.ClientSecret,
	}

	var out exchangeResponse
	if err := c.postJSON(ctx, "/oauth/token", "", body, &out); err != nil {
		return domain.ServiceToken{}, fmt.Errorf("%w: %w", domain.ErrProviderAuth, err)
	}

	if out.Error != "" || out.AccessToken == "" {
		return domain.ServiceToken{}, fmt.Errorf("%w: client credentials rejected: %s", domain.ErrProviderAuth, out.Error)
	}

	now := time.Now().UTC()
	return domain.ServiceToken{
		AccessToken: out.AccessToken,
		ExpiresIn:   out.ExpiresIn,
		ExpiresAt:   now.Add(time.Duration(out.ExpiresIn) * time.Second),
		RefreshedAt: now,
	}, nil
}

// Charge issues a debit instruction from the paying wallet into the app
// collection payee. Single call, no retry.
func (c *Client) Charge(ctx context.Context, req domain.TransactionRequest, credential string) (domain.TransactionOutcome, error) {
	if err := req.Validate(); err != nil {
		return domain.TransactionOutcome{}, err
	}

	command := fmt.Sprintf("Send $%.2f from wallet %s to payee %s for: %s",
		req.Amount, req.CounterpartyID, c.CollectionPayeeID, req.Description)

	resp, err := c.Command(ctx, credential, command)
	if err != nil {
		return domain.TransactionOutcome{Succeeded: false, Command: command}, err
	}

	return Classify(command, resp), nil
}

// Payout issues a credit instruction to the target payee from the wallet
// behind the credential (the app distribution wallet when called with the
// service token). Single call, no retry.
func (c *Client) Payout(ctx context.Context, req domain.TransactionRequest, credential string) (domain.TransactionOutcome, error) {
	if err := req.Validate(); err != nil {
		return domain.TransactionOutcome{}, err
	}

	command := fmt.Sprintf("Send $%.2f from my wallet to payee %s for: %s",
		req.Amount, req.CounterpartyID, req.Description)

	resp, err := c.Command(ctx, credential, command)
	if err != nil {
		return domain.TransactionOutcome{Succeeded: false, Command: command}, err
	}

	return Classify(command, resp), nil
}

// GetBalances returns the raw balance listing for the credential's wallet.
func (c *Client) GetBalances(ctx context.Context, credential string) (CommandResponse, error) {
	return c.Command(ctx, credential, "What are my current wallet balances?")
}

// ListPayees returns the raw payee listing for the credential's wallet.
func (c *Client) ListPayees(ctx context.Context, credential string) (CommandResponse, error) {
	return c.Command(ctx, credential, "List all payees I can send funds to")
}

// CreatePayee asks the provider to create a wallet-backed payee.
func (c *Client) CreatePayee(ctx context.Context, credential, walletID, name string) (CommandResponse, error) {
	command := fmt.Sprintf("Create a payee of type payman wallet with wallet id %s named %s", walletID, name)
	return c.Command(ctx, credential, command)
}

// Command performs one authenticated command-channel call. It is the single
// suspension point for all monetary operations: transport failures surface as
// ErrProviderCall and the instruction is NOT assumed to have executed.
func (c *Client) Command(ctx context.Context, credential, command string) (CommandResponse, error) {
	var out CommandResponse
	err := c.postJSON(ctx, "/command", credential, map[string]string{"command": command}, &out)
	if err != nil {
		return CommandResponse{}, fmt.Errorf("%w: %w", domain.ErrProviderCall, err)
	}

	// The sidecar reports an expired credential in the body, not the status
	// line (observed behaviour, matches the game backend's TOKEN_EXPIRED check).
	if out.Error == "TOKEN_EXPIRED" {
		return out, domain.ErrTokenExpired
	}

	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path, credential string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("malformed provider response: %w", err)
	}

	return nil
}
