package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civic-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// QRRequestRepo implements ports.QRRequestRepository.
type QRRequestRepo struct {
	pool Pool
}

// NewQRRequestRepo creates a new QRRequestRepo.
func NewQRRequestRepo(pool Pool) *QRRequestRepo {
	return &QRRequestRepo{pool: pool}
}

const qrColumns = `id, user_id, wallet_id, ref1, ref2, ref3, amount, state, bank_tx_ref, sending_bank, created_at, confirmed_at`

func scanQRRequest(row pgx.Row) (*domain.QRPaymentRequest, error) {
	q := &domain.QRPaymentRequest{}
	err := row.Scan(
		&q.ID, &q.UserID, &q.WalletID, &q.Ref1, &q.Ref2, &q.Ref3,
		&q.Amount, &q.State, &q.BankTxRef, &q.SendingBank, &q.CreatedAt, &q.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Create inserts a pending QR payment request.
func (r *QRRequestRepo) Create(ctx context.Context, q *domain.QRPaymentRequest) error {
	query := `INSERT INTO qr_payment_requests (id, user_id, wallet_id, ref1, ref2, ref3, amount, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		q.ID, q.UserID, q.WalletID, q.Ref1, q.Ref2, q.Ref3,
		q.Amount, q.State, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert qr request: %w", err)
	}
	return nil
}

// GetByRef1 fetches a request by its first reference code (non-locking).
func (r *QRRequestRepo) GetByRef1(ctx context.Context, ref1 string) (*domain.QRPaymentRequest, error) {
	query := `SELECT ` + qrColumns + ` FROM qr_payment_requests WHERE ref1 = $1`

	q, err := scanQRRequest(r.pool.QueryRow(ctx, query, ref1))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get qr request by ref1: %w", err)
	}
	return q, nil
}

// GetByRef1ForUpdate fetches a request by ref1 with pessimistic locking so
// concurrent confirmations of the same reference serialize.
// This MUST be called within a transaction.
func (r *QRRequestRepo) GetByRef1ForUpdate(ctx context.Context, tx pgx.Tx, ref1 string) (*domain.QRPaymentRequest, error) {
	query := `SELECT ` + qrColumns + ` FROM qr_payment_requests WHERE ref1 = $1 FOR UPDATE`

	q, err := scanQRRequest(tx.QueryRow(ctx, query, ref1))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get qr request for update: %w", err)
	}
	return q, nil
}

// MarkConfirmed records a settlement within the caller's transaction. Only
// pending rows transition; a second confirmation affects zero rows.
func (r *QRRequestRepo) MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, bankTxRef, sendingBank string, confirmedAt time.Time) error {
	query := `UPDATE qr_payment_requests
		SET state = $1, bank_tx_ref = $2, sending_bank = $3, confirmed_at = $4
		WHERE id = $5 AND state = $6`

	tag, err := tx.Exec(ctx, query,
		domain.QRStateConfirmed, bankTxRef, sendingBank, confirmedAt,
		id, domain.QRStatePending,
	)
	if err != nil {
		return fmt.Errorf("mark qr request confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("qr request not pending: %s", id)
	}
	return nil
}
