package ports

import (
	"context"

	"civic-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CardCipher seals and opens card numbers. Seal binds the token to the
// card's clear last-4 suffix; Open fails with an integrity error when the
// token or its suffix has been altered.
type CardCipher interface {
	Seal(cardNumber string) (token string, err error)
	Open(token string) (cardNumber string, err error)
	Mask(cardNumber string) string
}

// LookupHasher produces the deterministic keyed digest used to find a card
// by its number without storing or comparing plaintext.
type LookupHasher interface {
	Hash(cardNumber string) string
}

// TokenService handles bearer token generation and validation for the API
// surface.
type TokenService interface {
	Generate(userID uuid.UUID) (string, error)
	Validate(token string) (uuid.UUID, error)
}

// CreateWalletRequest carries the inputs for opening a wallet.
type CreateWalletRequest struct {
	OwnerID    uuid.UUID
	Kind       domain.WalletKind
	OrgSubtype string
}

// TopUpResult reports a completed top-up: the wallet after mutation and
// the ledger entry recording it.
type TopUpResult struct {
	Wallet  *domain.Wallet
	EntryID uuid.UUID
}

// TransferResult reports a completed wallet-to-wallet transfer with both
// sides of the paired ledger entries.
type TransferResult struct {
	FromWallet *domain.Wallet
	ToWallet   *domain.Wallet
	OutEntryID uuid.UUID
	InEntryID  uuid.UUID
}

// ServiceTransferResult reports a debit against (or credit to) a wallet
// where the counterparty is an external service rather than another wallet.
type ServiceTransferResult struct {
	Wallet  *domain.Wallet
	EntryID uuid.UUID
}

// LedgerService owns wallet balances and the append-only ledger. The tx
// parameter on mutating operations is the current unit of work: pass nil
// and the service opens, commits, or rolls back its own transaction; pass
// an open pgx.Tx and the caller keeps commit responsibility.
type LedgerService interface {
	CreateWallet(ctx context.Context, req CreateWalletRequest) (*domain.Wallet, error)
	GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	ListWalletsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error)
	ListEntries(ctx context.Context, walletID uuid.UUID) ([]domain.LedgerEntry, error)
	TopUp(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, description string) (*TopUpResult, error)
	Transfer(ctx context.Context, tx pgx.Tx, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (*TransferResult, error)
	TransferToService(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, serviceTag, description string) (*ServiceTransferResult, error)
	CreditFromService(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, serviceTag, description string) (*ServiceTransferResult, error)
}

// CardIssueResult reports a newly issued card together with the one-time
// plaintext number. The number is returned exactly once, at issuance.
type CardIssueResult struct {
	Card       *domain.Card
	CardNumber string
}

// CardTopUpResult reports a wallet-funded card top-up.
type CardTopUpResult struct {
	Card          *domain.Card
	Wallet        *domain.Wallet
	WalletEntryID uuid.UUID
	CardTxID      uuid.UUID
}

// CardChargeResult reports a card charge settled into an organization
// wallet.
type CardChargeResult struct {
	Card      *domain.Card
	OrgWallet *domain.Wallet
	CardTxID  uuid.UUID
}

// CardService issues and operates tokenized cards. Plaintext card numbers
// enter through IssueCard and FindByNumber and leave only through
// RevealNumber.
type CardService interface {
	IssueCard(ctx context.Context, ownerID uuid.UUID, kind domain.CardKind) (*CardIssueResult, error)
	GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Card, error)
	FindByNumber(ctx context.Context, kind domain.CardKind, cardNumber string) (*domain.Card, error)
	RevealNumber(ctx context.Context, ownerID, cardID uuid.UUID) (string, error)
	TopUpFromWallet(ctx context.Context, kind domain.CardKind, cardNumber string, walletID uuid.UUID, amount decimal.Decimal) (*CardTopUpResult, error)
	ChargeToOrganization(ctx context.Context, kind domain.CardKind, cardNumber, orgSubtype string, amount decimal.Decimal) (*CardChargeResult, error)
	ListTransactions(ctx context.Context, cardID uuid.UUID) ([]domain.CardTransaction, error)
}

// QRCreateResult reports a generated payment QR: the reference triple the
// bank echoes back on settlement plus the renderable QR payload.
type QRCreateResult struct {
	Request   *domain.QRPaymentRequest
	QRRawData string
	QRImage   string
}

// WebhookConfirmation carries the fields of a bank settlement callback
// that the flow acts on.
type WebhookConfirmation struct {
	TransactionRef string
	SendingBank    string
	Ref1           string
}

// SettlementResult reports the outcome of processing a settlement webhook.
// Duplicate is true when the confirmation had already been applied and no
// balance moved.
type SettlementResult struct {
	Request   *domain.QRPaymentRequest
	Wallet    *domain.Wallet
	Duplicate bool
}

// QRService drives the QR top-up flow against the banking gateway.
type QRService interface {
	CreateQrRequest(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*QRCreateResult, error)
	ConfirmWebhook(ctx context.Context, confirmation WebhookConfirmation) (*SettlementResult, error)
}

// HealthChecker pings one backing dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
