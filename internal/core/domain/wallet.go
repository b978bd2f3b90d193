package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletKind distinguishes personal wallets from organization wallets.
type WalletKind string

const (
	WalletKindIndividual   WalletKind = "individual"
	WalletKindOrganization WalletKind = "organization"
)

// WalletStatus is the administrative state of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusSuspended WalletStatus = "suspended"
)

// Organization subtypes seeded by the platform. Card charges are routed to
// the organization wallet matching the consuming service.
const (
	OrgSubtypeVolunteer      = "Volunteer"
	OrgSubtypeTransportation = "Transportation"
	OrgSubtypeHealthcare     = "Healthcare"
)

// Wallet is one owner's spendable balance. The balance is only ever mutated
// through ledger-entry-producing operations and never goes negative.
type Wallet struct {
	ID         uuid.UUID       `json:"id"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	Kind       WalletKind      `json:"kind"`
	OrgSubtype *string         `json:"org_subtype,omitempty"` // only meaningful for organization wallets
	Balance    decimal.Decimal `json:"balance"`
	Status     WalletStatus    `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// IsActive returns true if the wallet can take part in value movements.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}
