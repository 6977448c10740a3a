package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lydia-game/payflow/internal/payments/domain"
	"github.com/lydia-game/payflow/internal/payments/metrics"
	"github.com/lydia-game/payflow/internal/payments/store"
	"github.com/stretchr/testify/require"
)

// fakeTokenSource grants sequentially numbered tokens so tests can tell which
// provider call produced which token.
type fakeTokenSource struct {
	mu       sync.Mutex
	grants   atomic.Int64
	attempts atomic.Int64
	ttl      time.Duration
	err      error
	delay    time.Duration

	// started receives one value when a grant begins; release, when set,
	// gates the grant until the channel is closed.
	started chan struct{}
	release chan struct{}
}

func (f *fakeTokenSource) GrantAppToken(ctx context.Context) (domain.ServiceToken, error) {
	f.attempts.Add(1)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		<-f.release
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return domain.ServiceToken{}, f.err
	}

	n := f.grants.Add(1)
	now := time.Now().UTC()
	ttl := f.ttl
	if ttl == 0 {
		ttl = time.Hour
	}
	return domain.ServiceToken{
		AccessToken: fmt.Sprintf("token-%d", n),
		ExpiresIn:   int(ttl.Seconds()),
		ExpiresAt:   now.Add(ttl),
		RefreshedAt: now,
	}, nil
}

// memoryCredStore is an in-memory CredentialStore.
type memoryCredStore struct {
	mu      sync.Mutex
	token   domain.ServiceToken
	loadErr error
	saveErr error
	saves   int
}

func (s *memoryCredStore) Load() (domain.ServiceToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return domain.ServiceToken{}, s.loadErr
	}
	return s.token, nil
}

func (s *memoryCredStore) Save(tok domain.ServiceToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.token = tok
	s.saves++
	return nil
}

func newTestManager(source *fakeTokenSource, credStore *memoryCredStore) *TokenManager {
	m := NewTokenManager(source, credStore, slog.Default(), metrics.Nop{})
	// Keep background renewals out of unit tests.
	m.Stop()
	return m
}

func TestInitializeRefreshesWhenMissing(t *testing.T) {
	source := &fakeTokenSource{}
	credStore := &memoryCredStore{loadErr: store.ErrNotFound}
	m := newTestManager(source, credStore)

	require.NoError(t, m.Initialize(t.Context()))
	require.EqualValues(t, 1, source.grants.Load())

	tok, err := m.Token(t.Context())
	require.NoError(t, err)
	require.Equal(t, "token-1", tok)

	// The fresh token was persisted.
	require.Equal(t, 1, credStore.saves)
}

func TestInitializeRefreshesWhenCorrupt(t *testing.T) {
	source := &fakeTokenSource{}
	credStore := &memoryCredStore{loadErr: store.ErrCorrupt}
	m := newTestManager(source, credStore)

	require.NoError(t, m.Initialize(t.Context()))
	require.EqualValues(t, 1, source.grants.Load())
}

func TestInitializeReusesFreshStoredToken(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeTokenSource{}
	credStore := &memoryCredStore{token: domain.ServiceToken{
		AccessToken: "stored-token",
		ExpiresIn:   3600,
		ExpiresAt:   now.Add(time.Hour),
		RefreshedAt: now,
	}}
	m := newTestManager(source, credStore)

	require.NoError(t, m.Initialize(t.Context()))

	// No provider call; the stored token is still outside the refresh window.
	require.EqualValues(t, 0, source.grants.Load())

	tok, err := m.Token(t.Context())
	require.NoError(t, err)
	require.Equal(t, "stored-token", tok)
}

func TestInitializeRefreshesStoredTokenInsideSkew(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeTokenSource{}
	credStore := &memoryCredStore{token: domain.ServiceToken{
		AccessToken: "nearly-expired",
		ExpiresIn:   3600,
		ExpiresAt:   now.Add(5 * time.Minute), // inside the 15 minute skew
		RefreshedAt: now.Add(-55 * time.Minute),
	}}
	m := newTestManager(source, credStore)

	require.NoError(t, m.Initialize(t.Context()))
	require.EqualValues(t, 1, source.grants.Load())

	tok, err := m.Token(t.Context())
	require.NoError(t, err)
	require.Equal(t, "token-1", tok)
}

// TestTokenConcurrentSingleFlight verifies that many concurrent callers with
// no valid token trigger exactly one provider refresh.
func TestTokenConcurrentSingleFlight(t *testing.T) {
	source := &fakeTokenSource{delay: 20 * time.Millisecond}
	m := newTestManager(source, &memoryCredStore{})

	const callers = 16
	tokens := make([]string, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := m.Token(context.Background())
			require.NoError(t, err)
			tokens[i] = tok
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, source.grants.Load())
	for _, tok := range tokens {
		require.Equal(t, "token-1", tok)
	}
}

// TestRefreshSequentialAlwaysRefreshes verifies that two explicit refreshes in
// a row each hit the provider, even though the first token is still fresh.
func TestRefreshSequentialAlwaysRefreshes(t *testing.T) {
	source := &fakeTokenSource{}
	m := newTestManager(source, &memoryCredStore{})

	first, err := m.Refresh(t.Context())
	require.NoError(t, err)
	second, err := m.Refresh(t.Context())
	require.NoError(t, err)

	require.EqualValues(t, 2, source.grants.Load())
	require.NotEqual(t, first.AccessToken, second.AccessToken)
}

// TestRefreshConcurrentShared verifies that concurrent explicit refreshes
// collapse into one provider call.
func TestRefreshConcurrentShared(t *testing.T) {
	source := &fakeTokenSource{delay: 20 * time.Millisecond}
	m := newTestManager(source, &memoryCredStore{})

	const callers = 8
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Refresh(context.Background())
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, source.grants.Load())
}

// TestRefreshSharesInFlightFailure verifies a caller blocked behind a failing
// refresh observes that failure instead of being handed the prior token as if
// the refresh had succeeded.
func TestRefreshSharesInFlightFailure(t *testing.T) {
	boom := errors.New("provider down")
	source := &fakeTokenSource{
		err:     boom,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	m := newTestManager(source, &memoryCredStore{})

	// Seed a token that is still valid but inside the refresh window, the
	// state a background renewal runs in.
	now := time.Now().UTC()
	m.mu.Lock()
	m.token = domain.ServiceToken{
		AccessToken: "prior-token",
		ExpiresAt:   now.Add(5 * time.Minute),
		RefreshedAt: now.Add(-55 * time.Minute),
	}
	m.mu.Unlock()

	firstErr := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background())
		firstErr <- err
	}()
	<-source.started

	type result struct {
		tok domain.ServiceToken
		err error
	}
	secondRes := make(chan result, 1)
	go func() {
		tok, err := m.Refresh(context.Background())
		secondRes <- result{tok, err}
	}()

	// Let the second caller queue up behind the in-flight attempt before it
	// is allowed to finish.
	time.Sleep(10 * time.Millisecond)
	close(source.release)

	require.ErrorIs(t, <-firstErr, boom)

	second := <-secondRes
	require.ErrorIs(t, second.err, boom)
	require.Empty(t, second.tok.AccessToken)
	require.EqualValues(t, 1, source.attempts.Load())

	// The failure is not sticky: the next explicit refresh hits the provider.
	source.mu.Lock()
	source.err = nil
	source.mu.Unlock()
	tok, err := m.Refresh(t.Context())
	require.NoError(t, err)
	require.Equal(t, "token-1", tok.AccessToken)
}

// TestStatusDoesNotWaitForRefresh verifies Status answers from the current
// record while a refresh still holds the provider call open.
func TestStatusDoesNotWaitForRefresh(t *testing.T) {
	source := &fakeTokenSource{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	m := newTestManager(source, &memoryCredStore{})

	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background())
		done <- err
	}()
	<-source.started

	status := m.Status()
	require.False(t, status.HasToken)
	require.True(t, status.RefreshDue)

	close(source.release)
	require.NoError(t, <-done)

	status = m.Status()
	require.True(t, status.HasToken)
	require.False(t, status.RefreshDue)
}

func TestTokenRefreshFailurePropagates(t *testing.T) {
	boom := errors.New("provider down")
	source := &fakeTokenSource{err: boom}
	m := newTestManager(source, &memoryCredStore{})

	_, err := m.Token(t.Context())
	require.ErrorIs(t, err, domain.ErrNoToken)
	require.ErrorIs(t, err, boom)
}

// TestTokenNeverReturnsExpired verifies a token already inside the refresh
// window is replaced before being handed out.
func TestTokenNeverReturnsExpired(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeTokenSource{}
	credStore := &memoryCredStore{token: domain.ServiceToken{
		AccessToken: "expired-token",
		ExpiresAt:   now.Add(-time.Minute),
		RefreshedAt: now.Add(-2 * time.Hour),
	}}
	m := newTestManager(source, credStore)

	// Load the expired record without triggering Initialize's refresh, then
	// ask for a token.
	m.mu.Lock()
	m.token = credStore.token
	m.mu.Unlock()

	tok, err := m.Token(t.Context())
	require.NoError(t, err)
	require.Equal(t, "token-1", tok)
}

func TestSaveFailureDoesNotFailRefresh(t *testing.T) {
	source := &fakeTokenSource{}
	credStore := &memoryCredStore{saveErr: errors.New("disk full")}
	m := newTestManager(source, credStore)

	tok, err := m.Refresh(t.Context())
	require.NoError(t, err)
	require.Equal(t, "token-1", tok.AccessToken)
}

func TestStatusRedactsToken(t *testing.T) {
	source := &fakeTokenSource{}
	m := newTestManager(source, &memoryCredStore{})

	status := m.Status()
	require.False(t, status.HasToken)
	require.True(t, status.RefreshDue)

	_, err := m.Refresh(t.Context())
	require.NoError(t, err)

	status = m.Status()
	require.True(t, status.HasToken)
	require.False(t, status.RefreshDue)
	require.False(t, status.ExpiresAt.IsZero())
}
