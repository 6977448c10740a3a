package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lydia-game/payflow/internal/payments/metrics"
	"github.com/lydia-game/payflow/internal/payments/service"
	"github.com/lydia-game/payflow/internal/payments/store"
	"github.com/lydia-game/payflow/pkg/httpx"
	"github.com/lydia-game/payflow/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/lydia-game/payflow/api/payments" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	apiSecret    []byte
	registry     *prometheus.Registry

	store          store.Store
	TokenManager   *service.TokenManager
	OAuthService   *service.OAuthService
	PaymentService *service.PaymentService
}

func NewRouter(
	buildVersion string,
	apiSecret []byte,
	st store.Store,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		apiSecret:    apiSecret,
		registry:     registry,
		store:        st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth()
	r.registerPayments()
	r.registerTokens()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Payflow Payment Orchestration API
//	@version		0.1.0
//	@description	Payment orchestration and token lifecycle engine sitting between the Lydia game bot and the wallet provider.
//	@description
//	@description				Money-moving endpoints issue exactly one provider call each and return a classified outcome; callers must not mutate game economy state unless succeeded is true.
//
//	@contact.name				Lydia Team
//	@contact.url				https://github.com/lydia-game/payflow
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				HS256 bearer token signed with the shared bot secret. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured wraps a handler with bot authentication when a shared secret is
// configured. Without a secret the service trusts its network boundary, which
// matches a single-host deployment next to the bot.
func (r *Router) secured(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
	mws := []httpx.Middleware{}
	if len(r.apiSecret) > 0 {
		mws = append(mws, httpx.AuthnMiddleware(r.apiSecret))
	}
	mws = append(mws, httpx.RateLimitByIP(limit))
	return httpx.Chain(h, mws...)
}

func (r *Router) registerOAuth() {
	exchangeHandler := &ExchangeHandler{OAuthService: r.OAuthService}

	// POST /oauth/exchange - moderate rate limit (one call per wallet connect)
	r.Mux.Handle("POST /oauth/exchange",
		httpx.Chain(exchangeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPayments() {
	chargeHandler := &ChargeHandler{PaymentService: r.PaymentService}
	payoutHandler := &PayoutHandler{PaymentService: r.PaymentService}
	balanceHandler := &BalanceHandler{PaymentService: r.PaymentService}
	transactionsHandler := &TransactionsHandler{Ledger: r.store.Transactions()}

	// Money movement gets the strict profile; a bot bug must not be able to
	// spray provider commands.
	r.Mux.Handle("POST /charge", r.secured(chargeHandler, httpx.StrictLimit))
	r.Mux.Handle("POST /payout", r.secured(payoutHandler, httpx.StrictLimit))

	r.Mux.Handle("POST /balance", r.secured(balanceHandler, httpx.ModerateLimit))
	r.Mux.Handle("GET /transactions", r.secured(transactionsHandler, httpx.LenientLimit))
}

func (r *Router) registerTokens() {
	statusHandler := &TokenStatusHandler{Tokens: r.TokenManager}
	refreshHandler := &RefreshTokenHandler{Tokens: r.TokenManager}

	r.Mux.Handle("GET /token-status", r.secured(statusHandler, httpx.LenientLimit))

	// Forced refresh hits the provider's token endpoint; keep it strict.
	r.Mux.Handle("POST /refresh-token", r.secured(refreshHandler, httpx.StrictLimit))
}

func (r *Router) registerSystem() {
	// Health and metrics are unauthenticated; monitoring may poll frequently.
	r.Mux.Handle("GET /health",
		httpx.Chain(HealthHandler(r.startTime, r.buildVersion, r.store, r.TokenManager),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", metrics.Handler(r.registry))
}
