package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lydia-game/payflow/internal/payments/domain"
	"github.com/lydia-game/payflow/internal/payments/metrics"
	"github.com/lydia-game/payflow/internal/payments/provider"
	"github.com/lydia-game/payflow/internal/payments/service"
	"github.com/lydia-game/payflow/internal/payments/store/drivers/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// stubProvider is a scriptable stand-in for the wallet provider covering
// every capability the router's services need.
type stubProvider struct {
	session    domain.UserSession
	exchange   error
	charge     domain.TransactionOutcome
	chargeErr  error
	payout     domain.TransactionOutcome
	payoutErr  error
	balances   provider.CommandResponse
	listResp   provider.CommandResponse
	createResp provider.CommandResponse
	grants     int
}

func (s *stubProvider) ExchangeAuthCode(_ context.Context, code string) (domain.UserSession, error) {
	if code == "" {
		return domain.UserSession{}, domain.ErrInvalidCode
	}
	return s.session, s.exchange
}

func (s *stubProvider) Charge(context.Context, domain.TransactionRequest, string) (domain.TransactionOutcome, error) {
	return s.charge, s.chargeErr
}

func (s *stubProvider) Payout(context.Context, domain.TransactionRequest, string) (domain.TransactionOutcome, error) {
	return s.payout, s.payoutErr
}

func (s *stubProvider) GetBalances(context.Context, string) (provider.CommandResponse, error) {
	return s.balances, nil
}

func (s *stubProvider) ListPayees(context.Context, string) (provider.CommandResponse, error) {
	return s.listResp, nil
}

func (s *stubProvider) CreatePayee(context.Context, string, string, string) (provider.CommandResponse, error) {
	return s.createResp, nil
}

func (s *stubProvider) GrantAppToken(context.Context) (domain.ServiceToken, error) {
	s.grants++
	now := time.Now().UTC()
	return domain.ServiceToken{
		AccessToken: "service-token",
		ExpiresIn:   3600,
		ExpiresAt:   now.Add(time.Hour),
		RefreshedAt: now,
	}, nil
}

// nopCredStore keeps the token manager off the filesystem.
type nopCredStore struct{ token domain.ServiceToken }

func (s *nopCredStore) Load() (domain.ServiceToken, error) { return s.token, nil }
func (s *nopCredStore) Save(t domain.ServiceToken) error   { s.token = t; return nil }

func newTestRouter(t *testing.T, stub *stubProvider, secret string) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.Default()
	tokens := service.NewTokenManager(stub, &nopCredStore{}, logger, metrics.Nop{})
	t.Cleanup(tokens.Stop)

	r := NewRouter("test", []byte(secret), st, prometheus.NewRegistry(), logger)
	r.TokenManager = tokens
	r.OAuthService = &service.OAuthService{
		Gateway: stub,
		Resolver: &service.PayeeResolver{
			Links:     st.PayeeLinks(),
			Directory: stub,
			Logger:    logger,
		},
		Logger: logger,
	}
	r.PaymentService = &service.PaymentService{
		Gateway: stub,
		Tokens:  tokens,
		Ledger:  st.Transactions(),
		Logger:  logger,
		Metrics: metrics.Nop{},
	}
	r.ApplyRoutes()
	return r
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any, headers map[string]string) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func artifacts(contents ...string) provider.CommandResponse {
	resp := provider.CommandResponse{}
	for _, c := range contents {
		resp.Artifacts = append(resp.Artifacts, provider.Artifact{Name: "response", Type: "text", Content: c})
	}
	return resp
}

func TestExchangeEndpoint(t *testing.T) {
	stub := &stubProvider{
		session: domain.UserSession{
			AccessToken:    "user-token",
			ExpiresIn:      3600,
			ProviderUserID: "user-42",
		},
		listResp:   artifacts("No payees."),
		createResp: artifacts("Created payee with id pd-0a1b2c3d-1111-2222-3333-444455556666"),
	}
	srv := httptest.NewServer(newTestRouter(t, stub, ""))
	defer srv.Close()

	resp := postJSON(t, srv, "/oauth/exchange", map[string]string{"code": "auth-code"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	session := decodeBody[domain.UserSession](t, resp)
	require.Equal(t, "user-token", session.AccessToken)
	require.Equal(t, "pd-0a1b2c3d-1111-2222-3333-444455556666", session.PayeeID)
}

func TestExchangeEndpointBadBody(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, &stubProvider{}, ""))
	defer srv.Close()

	resp := postJSON(t, srv, "/oauth/exchange", map[string]string{"unexpected": "field"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	require.Equal(t, "invalid_request", body["error"])
}

func TestExchangeEndpointEmptyCode(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, &stubProvider{}, ""))
	defer srv.Close()

	resp := postJSON(t, srv, "/oauth/exchange", map[string]string{"code": ""}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	require.Equal(t, "invalid_code", body["error"])
}

func TestChargeEndpoint(t *testing.T) {
	stub := &stubProvider{charge: domain.TransactionOutcome{
		Succeeded:   true,
		Command:     "Send $2.00 from wallet wlt-7 to payee pd-collection for: entry",
		RawResponse: "Transaction completed.",
	}}
	srv := httptest.NewServer(newTestRouter(t, stub, ""))
	defer srv.Close()

	resp := postJSON(t, srv, "/charge", map[string]any{
		"credential":  "user-token",
		"amount":      2.0,
		"payerId":     "wlt-7",
		"description": "entry",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	outcome := decodeBody[domain.TransactionOutcome](t, resp)
	require.True(t, outcome.Succeeded)
	require.Contains(t, outcome.Command, "wlt-7")
}

func TestChargeEndpointMissingCredential(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, &stubProvider{}, ""))
	defer srv.Close()

	resp := postJSON(t, srv, "/charge", map[string]any{
		"amount":  2.0,
		"payerId": "wlt-7",
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChargeEndpointExpiredToken(t *testing.T) {
	stub := &stubProvider{chargeErr: domain.ErrTokenExpired}
	srv := httptest.NewServer(newTestRouter(t, stub, ""))
	defer srv.Close()

	resp := postJSON(t, srv, "/charge", map[string]any{
		"credential": "stale",
		"amount":     2.0,
		"payerId":    "wlt-7",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	require.Equal(t, "token_expired", body["error"])
}

func TestPayoutEndpointUnresolvedPayee(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, &stubProvider{}, ""))
	defer srv.Close()

	resp := postJSON(t, srv, "/payout", map[string]any{
		"amount":      10.0,
		"payeeId":     "",
		"description": "prize",
	}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	require.Equal(t, "payee_unresolved", body["error"])
}

func TestPayoutEndpointServiceToken(t *testing.T) {
	stub := &stubProvider{payout: domain.TransactionOutcome{Succeeded: true, Command: "cmd"}}
	srv := httptest.NewServer(newTestRouter(t, stub, ""))
	defer srv.Close()

	resp := postJSON(t, srv, "/payout", map[string]any{
		"amount":      10.0,
		"payeeId":     "pd-winner",
		"description": "prize",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// No credential in the body, so the service token was acquired.
	require.Equal(t, 1, stub.grants)
}

func TestBalanceEndpoint(t *testing.T) {
	stub := &stubProvider{balances: artifacts("Wallet wlt-app holds $125.00")}
	srv := httptest.NewServer(newTestRouter(t, stub, ""))
	defer srv.Close()

	resp := postJSON(t, srv, "/balance", map[string]string{}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[provider.CommandResponse](t, resp)
	require.Len(t, body.Artifacts, 1)
	require.Contains(t, body.Artifacts[0].Content, "$125.00")
}

func TestTokenStatusAndRefreshEndpoints(t *testing.T) {
	stub := &stubProvider{}
	srv := httptest.NewServer(newTestRouter(t, stub, ""))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/token-status")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status := decodeBody[service.TokenStatus](t, resp)
	require.False(t, status.HasToken)

	resp = postJSON(t, srv, "/refresh-token", map[string]string{}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status = decodeBody[service.TokenStatus](t, resp)
	require.True(t, status.HasToken)
	require.False(t, status.RefreshDue)
	require.Equal(t, 1, stub.grants)
}

func TestTransactionsEndpoint(t *testing.T) {
	stub := &stubProvider{charge: domain.TransactionOutcome{
		Succeeded: true,
		Command:   "cmd",
	}}
	srv := httptest.NewServer(newTestRouter(t, stub, ""))
	defer srv.Close()

	resp := postJSON(t, srv, "/charge", map[string]any{
		"credential": "user-token",
		"amount":     1.0,
		"payerId":    "wlt-7",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := srv.Client().Get(srv.URL + "/transactions?limit=10")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[transactionsResponse](t, resp)
	require.Len(t, body.Transactions, 1)
	require.Equal(t, domain.DirectionCharge, body.Transactions[0].Direction)
}

func TestHealthEndpoint(t *testing.T) {
	stub := &stubProvider{}
	router := newTestRouter(t, stub, "")
	srv := httptest.NewServer(router)
	defer srv.Close()

	// No service token yet: not ready.
	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	health := decodeBody[HealthResponse](t, resp)
	require.Equal(t, "degraded", health.Status)

	_, err = router.TokenManager.Refresh(t.Context())
	require.NoError(t, err)

	resp, err = srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health = decodeBody[HealthResponse](t, resp)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "ok", health.Checks.Database)
}

func botToken(t *testing.T, secret string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   "lydia-bot",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// TestBotAuthentication verifies money-moving endpoints reject requests
// without a valid bearer token once a shared secret is configured.
func TestBotAuthentication(t *testing.T) {
	stub := &stubProvider{charge: domain.TransactionOutcome{Succeeded: true, Command: "cmd"}}
	srv := httptest.NewServer(newTestRouter(t, stub, "shared-secret"))
	defer srv.Close()

	body := map[string]any{
		"credential": "user-token",
		"amount":     1.0,
		"payerId":    "wlt-7",
	}

	resp := postJSON(t, srv, "/charge", body, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv, "/charge", body, map[string]string{
		"Authorization": "Bearer " + botToken(t, "wrong-secret"),
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv, "/charge", body, map[string]string{
		"Authorization": "Bearer " + botToken(t, "shared-secret"),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The exchange endpoint stays open; the user's browser hits it during the
	// OAuth redirect before any bot involvement.
	resp = postJSON(t, srv, "/oauth/exchange", map[string]string{"code": ""}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
