package store

import (
	"context"
	"errors"

	"github.com/lydia-game/payflow/internal/payments/domain"
)

var (
	ErrNotFound = errors.New("store: not found")

	// ErrCorrupt reports an unreadable durable record, e.g. a credential file
	// torn by a crash mid-write. Callers treat the record as absent.
	ErrCorrupt = errors.New("store: corrupt record")
)

// Store is the root data access interface for the engine's local database:
// the payee-link cache and the transaction audit ledger. Concrete drivers
// (sqlite today) implement it.
type Store interface {
	PayeeLinks() PayeeLinks
	Transactions() Transactions

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// PayeeLinks persists the user → payee associations. This is the
// hasPayeeLink collaborator surface payee resolution consults before ever
// creating a payee.
type PayeeLinks interface {
	// GetPayeeLink returns the link for a provider user id.
	GetPayeeLink(ctx context.Context, providerUserID string) (domain.PayeeLink, error)

	// UpsertPayeeLink inserts or replaces the link for its user.
	UpsertPayeeLink(ctx context.Context, link domain.PayeeLink) error

	// HasPayeeLink reports whether a RESOLVED link exists. A link with an
	// empty payee id does not count; resolution must be retried for it.
	HasPayeeLink(ctx context.Context, providerUserID string) (bool, error)
}

// Transactions is the append-only audit ledger of provider instructions.
type Transactions interface {
	// CreateTransaction appends one audit record (id is a ULID provided by
	// the caller).
	CreateTransaction(ctx context.Context, rec domain.TransactionRecord) error

	// ListRecentTransactions returns up to limit records, newest first.
	ListRecentTransactions(ctx context.Context, limit int) ([]domain.TransactionRecord, error)
}
