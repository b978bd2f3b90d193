package ports

import (
	"context"
	"time"

	"civic-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside transaction blocks with pessimistic
// locking; they are the only way balances are read before mutation.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error)
	// GetActiveIndividualByOwner supports the check-then-create rule:
	// at most one active individual wallet per owner.
	GetActiveIndividualByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	GetByOrgSubtype(ctx context.Context, subtype string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
}

// LedgerEntryRepository defines persistence for the append-only ledger.
// Entries are only ever inserted, always inside the unit of work that
// carries the matching balance mutation.
type LedgerEntryRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.LedgerEntry, error)
}

// CardRepository defines persistence operations for tokenized cards.
type CardRepository interface {
	Create(ctx context.Context, card *domain.Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	GetByLookupHash(ctx context.Context, kind domain.CardKind, hash string) (*domain.Card, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Card, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Card, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, balance decimal.Decimal) error
}

// CardTransactionRepository defines persistence for card-scoped movements.
type CardTransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, cardTx *domain.CardTransaction) error
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.CardTransaction, error)
}

// QRRequestRepository defines persistence for QR payment requests.
type QRRequestRepository interface {
	Create(ctx context.Context, req *domain.QRPaymentRequest) error
	GetByRef1(ctx context.Context, ref1 string) (*domain.QRPaymentRequest, error)
	// GetByRef1ForUpdate locks the request row so concurrent webhook
	// deliveries for the same ref1 serialize on the confirmation.
	GetByRef1ForUpdate(ctx context.Context, tx pgx.Tx, ref1 string) (*domain.QRPaymentRequest, error)
	MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, bankTxRef, sendingBank string, confirmedAt time.Time) error
}

// DBTransactor provides database transaction management. One pgx.Tx is the
// "unit of work" handle threaded through every composable operation.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
