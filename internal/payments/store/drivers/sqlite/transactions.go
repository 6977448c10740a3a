package sqlite

import (
	"context"
	"database/sql"

	"github.com/lydia-game/payflow/internal/payments/domain"
)

type transactionsRepo struct {
	db *sql.DB
}

func (r *transactionsRepo) CreateTransaction(ctx context.Context, rec domain.TransactionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions
		 (id, direction, amount, counterparty_id, description, command, succeeded, raw_response)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Direction),
		rec.Amount,
		rec.CounterpartyID,
		rec.Description,
		rec.Command,
		rec.Succeeded,
		rec.RawResponse,
	)
	return err
}

func (r *transactionsRepo) ListRecentTransactions(ctx context.Context, limit int) ([]domain.TransactionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, direction, amount, counterparty_id, description, command, succeeded, raw_response, created_at
		 FROM transactions ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var rec domain.TransactionRecord
		var direction string
		var createdAt sql.NullTime
		if err := rows.Scan(
			&rec.ID, &direction, &rec.Amount, &rec.CounterpartyID,
			&rec.Description, &rec.Command, &rec.Succeeded, &rec.RawResponse, &createdAt,
		); err != nil {
			return nil, err
		}
		rec.Direction = domain.Direction(direction)
		if createdAt.Valid {
			rec.CreatedAt = createdAt.Time
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
