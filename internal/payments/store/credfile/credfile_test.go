package credfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lydia-game/payflow/internal/payments/domain"
	"github.com/lydia-game/payflow/internal/payments/store"
	"github.com/stretchr/testify/require"
)

func testToken() domain.ServiceToken {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.ServiceToken{
		AccessToken: "service-access-token",
		ExpiresIn:   3600,
		ExpiresAt:   now.Add(time.Hour),
		RefreshedAt: now,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	s := New(path)

	want := testToken()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, want.AccessToken, got.AccessToken)
	require.Equal(t, want.ExpiresIn, got.ExpiresIn)
	require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	require.True(t, want.RefreshedAt.Equal(got.RefreshedAt))
}

func TestLoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.json"))

	_, err := s.Load()
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{torn write"), 0o600))

	_, err := New(path).Load()
	require.ErrorIs(t, err, store.ErrCorrupt)
}

// TestLoadTamperedToken verifies a modified sealed token fails authentication
// and reads back as corrupt rather than as a wrong token value.
func TestLoadTamperedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	s := New(path)
	require.NoError(t, s.Save(testToken()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	doc["accessToken"] = "bm90LXNlYWxlZC1kYXRh" // valid base64, not a sealed blob
	tampered, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, tampered, 0o600))

	_, err = s.Load()
	require.ErrorIs(t, err, store.ErrCorrupt)
}

func TestLoadBadTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	s := New(path)
	require.NoError(t, s.Save(testToken()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	doc["expiresAt"] = "not-a-timestamp"
	broken, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, broken, 0o600))

	_, err = s.Load()
	require.ErrorIs(t, err, store.ErrCorrupt)
}

// TestSaveReplacesWholeRecord verifies a second save fully replaces the first
// and leaves no temp files behind.
func TestSaveReplacesWholeRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	s := New(path)

	first := testToken()
	require.NoError(t, s.Save(first))

	second := testToken()
	second.AccessToken = "replacement-token"
	second.ExpiresAt = second.ExpiresAt.Add(time.Hour)
	require.NoError(t, s.Save(second))

	got, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "replacement-token", got.AccessToken)
	require.True(t, second.ExpiresAt.Equal(got.ExpiresAt))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestTokenNotStoredInPlaintext verifies the raw file never contains the
// access token value.
func TestTokenNotStoredInPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	s := New(path)
	require.NoError(t, s.Save(testToken()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "service-access-token")
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "token.json")
	s := New(path)

	require.NoError(t, s.Save(testToken()))

	_, err := s.Load()
	require.NoError(t, err)
}
