package sqlite

import (
	"context"
	"database/sql"

	"github.com/lydia-game/payflow/internal/payments/domain"
)

type payeeLinksRepo struct {
	db *sql.DB
}

func (r *payeeLinksRepo) GetPayeeLink(ctx context.Context, providerUserID string) (domain.PayeeLink, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT provider_user_id, payee_id FROM payee_links WHERE provider_user_id = ?`,
		providerUserID,
	)

	var link domain.PayeeLink
	var payeeID sql.NullString
	if err := row.Scan(&link.ProviderUserID, &payeeID); err != nil {
		return domain.PayeeLink{}, mapNotFound(err)
	}
	link.PayeeID = mapNullString(payeeID)

	return link, nil
}

func (r *payeeLinksRepo) UpsertPayeeLink(ctx context.Context, link domain.PayeeLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payee_links (provider_user_id, payee_id)
		 VALUES (?, ?)
		 ON CONFLICT (provider_user_id)
		 DO UPDATE SET payee_id = excluded.payee_id, updated_at = CURRENT_TIMESTAMP`,
		link.ProviderUserID, mapStringNull(link.PayeeID),
	)
	return err
}

func (r *payeeLinksRepo) HasPayeeLink(ctx context.Context, providerUserID string) (bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM payee_links
		 WHERE provider_user_id = ? AND payee_id IS NOT NULL AND payee_id != ''`,
		providerUserID,
	)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
