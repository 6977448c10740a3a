// Package credfile persists the single service-level token as one JSON
// document on disk. Writes replace the whole file atomically (temp file +
// rename) so a crash mid-write leaves either the old record or a torn file,
// never a silently merged one. Torn or undecryptable files read back as
// store.ErrCorrupt and the caller forces a fresh refresh.
package credfile

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lydia-game/payflow/internal/payments/domain"
	"github.com/lydia-game/payflow/internal/payments/store"
	"github.com/lydia-game/payflow/pkg/cryptox"
)

// document is the on-disk layout. The access token is sealed with the master
// key before encoding; timestamps are ISO-8601.
type document struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	ExpiresAt   string `json:"expiresAt"`
	RefreshedAt string `json:"refreshedAt"`
}

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the durable token record. Returns store.ErrNotFound if no file
// exists and store.ErrCorrupt if the file cannot be parsed or unsealed.
func (s *Store) Load() (domain.ServiceToken, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ServiceToken{}, store.ErrNotFound
		}
		return domain.ServiceToken{}, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.ServiceToken{}, fmt.Errorf("%w: %w", store.ErrCorrupt, err)
	}

	sealed, err := base64.StdEncoding.DecodeString(doc.AccessToken)
	if err != nil {
		return domain.ServiceToken{}, fmt.Errorf("%w: %w", store.ErrCorrupt, err)
	}
	token, err := cryptox.Open(sealed)
	if err != nil {
		return domain.ServiceToken{}, fmt.Errorf("%w: %w", store.ErrCorrupt, err)
	}

	expiresAt, err := time.Parse(time.RFC3339, doc.ExpiresAt)
	if err != nil {
		return domain.ServiceToken{}, fmt.Errorf("%w: %w", store.ErrCorrupt, err)
	}
	refreshedAt, err := time.Parse(time.RFC3339, doc.RefreshedAt)
	if err != nil {
		return domain.ServiceToken{}, fmt.Errorf("%w: %w", store.ErrCorrupt, err)
	}

	return domain.ServiceToken{
		AccessToken: string(token),
		ExpiresIn:   doc.ExpiresIn,
		ExpiresAt:   expiresAt,
		RefreshedAt: refreshedAt,
	}, nil
}

// Save replaces the durable record with t. The write is whole-record: the
// document is assembled in full, written to a temp file in the same
// directory, fsynced, and renamed over the target.
func (s *Store) Save(t domain.ServiceToken) error {
	sealed, err := cryptox.Seal([]byte(t.AccessToken))
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}

	doc := document{
		AccessToken: base64.StdEncoding.EncodeToString(sealed),
		ExpiresIn:   t.ExpiresIn,
		ExpiresAt:   t.ExpiresAt.UTC().Format(time.RFC3339),
		RefreshedAt: t.RefreshedAt.UTC().Format(time.RFC3339),
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name()) // no-op after successful rename
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}
