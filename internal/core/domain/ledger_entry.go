package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind is the kind of value movement a ledger entry records.
type EntryKind string

const (
	EntryKindTopUp             EntryKind = "top_up"
	EntryKindTransferIn        EntryKind = "transfer_in"
	EntryKindTransferOut       EntryKind = "transfer_out"
	EntryKindTransferToService EntryKind = "transfer_to_service"
)

// LedgerEntry is an immutable record of one leg of a value movement against
// a wallet. A peer-to-peer transfer produces exactly two entries referencing
// each other as counterparty, written in the same unit of work as the
// balance mutations. Entries are append-only.
type LedgerEntry struct {
	ID                   uuid.UUID       `json:"id"`
	WalletID             uuid.UUID       `json:"wallet_id"`
	Kind                 EntryKind       `json:"kind"`
	Amount               decimal.Decimal `json:"amount"` // always > 0
	CounterpartyWalletID *uuid.UUID      `json:"counterparty_wallet_id,omitempty"`
	TargetService        *string         `json:"target_service,omitempty"` // e.g. "insurance_card:<id>"
	Description          string          `json:"description"`
	CreatedAt            time.Time       `json:"created_at"`
}

// ServiceTag builds the target-service tag for a card instrument.
func ServiceTag(cardKind CardKind, cardID uuid.UUID) string {
	return string(cardKind) + "_card:" + cardID.String()
}
