package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardKind identifies the card class. Lookup hashes are unique within a kind.
type CardKind string

const (
	CardKindMetro     CardKind = "metro"
	CardKindInsurance CardKind = "insurance"
)

// CardStatus is the administrative state of a card.
type CardStatus string

const (
	CardStatusActive    CardStatus = "active"
	CardStatusSuspended CardStatus = "suspended"
)

// Card is a tokenized balance instrument tied to one user. The card number
// is stored only as an AEAD token (with the last four digits in clear for
// display) plus a keyed lookup hash; the balance is fed exclusively from
// wallets.
type Card struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Kind        CardKind        `json:"kind"`
	NumberToken string          `json:"-"` // AEAD token, never exposed raw
	LookupHash  string          `json:"-"` // keyed hash of the plaintext number
	MaskedNum   string          `json:"masked_number"`
	Balance     decimal.Decimal `json:"balance"`
	Status      CardStatus      `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsActive returns true if the card can be topped up or charged.
func (c *Card) IsActive() bool {
	return c.Status == CardStatusActive
}

// CardTransactionKind is the kind of card-scoped movement.
type CardTransactionKind string

const (
	CardTxKindTopUp  CardTransactionKind = "top_up"
	CardTxKindCharge CardTransactionKind = "charge"
)

// CardTransaction mirrors a LedgerEntry on the card side of a movement.
// Reference carries the id of the paired wallet ledger entry.
type CardTransaction struct {
	ID          uuid.UUID           `json:"id"`
	CardID      uuid.UUID           `json:"card_id"`
	CardKind    CardKind            `json:"card_kind"`
	Kind        CardTransactionKind `json:"kind"`
	Amount      decimal.Decimal     `json:"amount"`
	Reference   string              `json:"reference"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
}
