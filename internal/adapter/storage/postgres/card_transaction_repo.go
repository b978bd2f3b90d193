package postgres

import (
	"context"
	"fmt"

	"civic-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CardTransactionRepo implements ports.CardTransactionRepository.
type CardTransactionRepo struct {
	pool Pool
}

// NewCardTransactionRepo creates a new CardTransactionRepo.
func NewCardTransactionRepo(pool Pool) *CardTransactionRepo {
	return &CardTransactionRepo{pool: pool}
}

// Create inserts a card transaction within the caller's transaction.
func (r *CardTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.CardTransaction) error {
	query := `INSERT INTO card_transactions (id, card_id, card_kind, kind, amount, reference, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.CardID, t.CardKind, t.Kind,
		t.Amount, t.Reference, t.Description, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert card transaction: %w", err)
	}
	return nil
}

// ListByCard fetches a card's transactions, newest first.
func (r *CardTransactionRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.CardTransaction, error) {
	query := `SELECT id, card_id, card_kind, kind, amount, reference, description, created_at
		FROM card_transactions WHERE card_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("list card transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.CardTransaction
	for rows.Next() {
		t := domain.CardTransaction{}
		err := rows.Scan(
			&t.ID, &t.CardID, &t.CardKind, &t.Kind,
			&t.Amount, &t.Reference, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan card transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
