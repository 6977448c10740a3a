package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lydia-game/payflow/internal/payments/domain"
	"github.com/lydia-game/payflow/internal/payments/metrics"
	"github.com/lydia-game/payflow/internal/payments/provider"
	"github.com/lydia-game/payflow/internal/payments/store"
)

// DefaultRenewFloor is the minimum delay between background renewals. Stops a
// refresh storm when the provider hands out very short-lived tokens.
const DefaultRenewFloor = time.Minute

// CredentialStore is the durable home of the single service token record.
type CredentialStore interface {
	Load() (domain.ServiceToken, error)
	Save(domain.ServiceToken) error
}

// TokenManager owns the service-level credential: it refreshes the token
// before expiry, guarantees at most one refresh runs at a time, and keeps the
// durable record in sync. Callers ask for the current token with Token and
// never perform their own refresh.
type TokenManager struct {
	Source     provider.AppTokenSource
	Store      CredentialStore
	Logger     *slog.Logger
	Metrics    metrics.Collector
	RenewFloor time.Duration

	mu      sync.RWMutex
	token   domain.ServiceToken
	lastErr error // outcome of the most recent refresh attempt

	// refreshMu serializes refresh attempts. The provider call runs under it,
	// never under mu, so token reads stay cheap while a refresh is in flight.
	refreshMu sync.Mutex

	gen atomic.Uint64 // bumped on every completed refresh attempt

	// timerMu guards the renewal timer and the stopped flag so Stop can
	// reliably cancel the self-rescheduling chain.
	timerMu sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewTokenManager wires a manager; call Initialize before serving traffic and
// Stop on shutdown.
func NewTokenManager(source provider.AppTokenSource, credStore CredentialStore, logger *slog.Logger, collector metrics.Collector) *TokenManager {
	return &TokenManager{
		Source:     source,
		Store:      credStore,
		Logger:     logger,
		Metrics:    collector,
		RenewFloor: DefaultRenewFloor,
	}
}

// Initialize loads the durable token record, refreshing synchronously if it
// is absent, unreadable, or already inside the refresh window, and schedules
// the first background renewal. A corrupt or missing record is not an error;
// it just forces a refresh.
func (m *TokenManager) Initialize(ctx context.Context) error {
	tok, err := m.Store.Load()
	switch {
	case err == nil:
		m.mu.Lock()
		m.token = tok
		m.mu.Unlock()
	case errors.Is(err, store.ErrNotFound):
		m.Logger.Info("no stored service token, refreshing")
	case errors.Is(err, store.ErrCorrupt):
		m.Logger.Warn("stored service token unreadable, forcing refresh", "err", err)
	default:
		m.Logger.Warn("failed to load stored service token, forcing refresh", "err", err)
	}

	m.mu.RLock()
	due := m.token.RefreshDue(time.Now())
	m.mu.RUnlock()

	if due {
		if _, err := m.Refresh(ctx); err != nil {
			return fmt.Errorf("initial token refresh: %w", err)
		}
		return nil
	}

	m.Logger.Info("service token loaded",
		"expires_at", tok.ExpiresAt,
		"refreshed_at", tok.RefreshedAt,
	)
	m.scheduleRenewal(tok, nil)
	return nil
}

// Token returns a valid service access token, refreshing first when the
// current one is absent or due. It never returns an expired token: if the
// refresh fails the error propagates instead of silently serving a stale
// credential.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	tok := m.token
	m.mu.RUnlock()

	if !tok.RefreshDue(time.Now()) {
		return tok.AccessToken, nil
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	// Another caller may have completed the refresh while we waited on the
	// lock; in that case we share its result instead of refreshing again.
	m.mu.RLock()
	tok = m.token
	m.mu.RUnlock()
	if !tok.RefreshDue(time.Now()) {
		return tok.AccessToken, nil
	}

	refreshed, err := m.doRefresh(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrNoToken, err)
	}
	return refreshed.AccessToken, nil
}

// Refresh acquires a new service token and replaces the durable record. A
// sequential re-invocation always performs a fresh provider call. Concurrent
// invocations are mutually exclusive: callers that were blocked behind an
// in-flight refresh observe its outcome, success or failure, rather than
// starting a second one.
func (m *TokenManager) Refresh(ctx context.Context) (domain.ServiceToken, error) {
	gen := m.gen.Load()

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	// A refresh completed while we waited on the lock: that attempt is the
	// one this caller was invoked concurrently with, so share its outcome. A
	// failed attempt must surface as a failure here too, never as the prior
	// token dressed up as a fresh one.
	if m.gen.Load() != gen {
		m.mu.RLock()
		tok, lastErr := m.token, m.lastErr
		m.mu.RUnlock()

		if lastErr != nil {
			return domain.ServiceToken{}, lastErr
		}
		if tok.AccessToken != "" {
			return tok, nil
		}
	}

	return m.doRefresh(ctx)
}

// doRefresh performs the provider call and record replacement. Caller must
// hold refreshMu; mu is only taken briefly to swap the record.
func (m *TokenManager) doRefresh(ctx context.Context) (domain.ServiceToken, error) {
	tok, err := m.Source.GrantAppToken(ctx)
	m.Metrics.RecordTokenRefresh(err)
	if err != nil {
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		m.gen.Add(1)

		m.Logger.Error("service token refresh failed", "err", err)
		// Prior token (if still valid) stays in place; retry on the floor.
		m.scheduleRenewal(domain.ServiceToken{}, err)
		return domain.ServiceToken{}, err
	}

	if err := m.Store.Save(tok); err != nil {
		// Durable write failure costs us a refresh on next boot, nothing more.
		m.Logger.Warn("failed to persist service token", "err", err)
	}

	m.mu.Lock()
	m.token = tok
	m.lastErr = nil
	m.mu.Unlock()
	m.gen.Add(1)

	m.Logger.Info("service token refreshed", "expires_at", tok.ExpiresAt)
	m.scheduleRenewal(tok, nil)
	return tok, nil
}

// Status reports the token record without exposing the token value. It does
// not wait on an in-flight refresh; health checks see the prior record until
// the refresh completes.
func (m *TokenManager) Status() TokenStatus {
	m.mu.RLock()
	tok := m.token
	m.mu.RUnlock()

	return TokenStatus{
		HasToken:    tok.AccessToken != "",
		ExpiresAt:   tok.ExpiresAt,
		RefreshedAt: tok.RefreshedAt,
		RefreshDue:  tok.RefreshDue(time.Now()),
	}
}

// TokenStatus is the redacted view served by GET /token-status.
type TokenStatus struct {
	HasToken    bool      `json:"hasToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RefreshedAt time.Time `json:"refreshedAt"`
	RefreshDue  bool      `json:"refreshDue"`
}

// Stop cancels the background renewal chain. Safe to call once during
// shutdown; a renewal already in flight finishes its refresh but schedules
// nothing further.
func (m *TokenManager) Stop() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// scheduleRenewal arms the next background refresh: on success, at the
// refresh skew before the new expiry; on failure, after the floor. Every
// completed refresh reschedules, so the chain only ends via Stop.
func (m *TokenManager) scheduleRenewal(tok domain.ServiceToken, refreshErr error) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	if m.stopped {
		return
	}

	delay := m.renewFloor()
	if refreshErr == nil && tok.AccessToken != "" {
		if until := time.Until(tok.ExpiresAt) - domain.RefreshSkew; until > delay {
			delay = until
		}
	}

	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(delay, m.renew)
}

// renew is the background renewal tick.
func (m *TokenManager) renew() {
	ctx, cancel := context.WithTimeout(context.Background(), provider.DefaultTimeout)
	defer cancel()

	if _, err := m.Refresh(ctx); err != nil {
		m.Logger.Error("background token renewal failed", "err", err)
	}
}

func (m *TokenManager) renewFloor() time.Duration {
	if m.RenewFloor > 0 {
		return m.RenewFloor
	}
	return DefaultRenewFloor
}
