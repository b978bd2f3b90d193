package dto

import (
	"time"

	"civic-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CreateWalletRequest is the request body for opening a wallet.
type CreateWalletRequest struct {
	Kind       string  `json:"kind" binding:"required,oneof=individual organization"`
	OrgSubtype *string `json:"org_subtype,omitempty"`
}

// TopUpWalletRequest is the request body for a direct wallet top-up.
type TopUpWalletRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	ToWalletID  string          `json:"to_wallet_id" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
}

// WalletResponse is the wire representation of a wallet.
type WalletResponse struct {
	ID         string  `json:"id"`
	OwnerID    string  `json:"owner_id"`
	Kind       string  `json:"kind"`
	OrgSubtype *string `json:"org_subtype,omitempty"`
	Balance    string  `json:"balance"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
}

// LedgerEntryResponse is the wire representation of one ledger entry.
type LedgerEntryResponse struct {
	ID                   string  `json:"id"`
	WalletID             string  `json:"wallet_id"`
	Kind                 string  `json:"kind"`
	Amount               string  `json:"amount"`
	CounterpartyWalletID *string `json:"counterparty_wallet_id,omitempty"`
	TargetService        *string `json:"target_service,omitempty"`
	Description          string  `json:"description"`
	CreatedAt            string  `json:"created_at"`
}

// TransferResponse reports both sides of a completed transfer.
type TransferResponse struct {
	FromWallet WalletResponse `json:"from_wallet"`
	ToWallet   WalletResponse `json:"to_wallet"`
	OutEntryID string         `json:"out_entry_id"`
	InEntryID  string         `json:"in_entry_id"`
}

// IssueCardRequest is the request body for card issuance.
type IssueCardRequest struct {
	Kind string `json:"kind" binding:"required,oneof=metro insurance"`
}

// CardResponse is the wire representation of a card. The number never
// appears here, only its masked form.
type CardResponse struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	Kind         string `json:"kind"`
	MaskedNumber string `json:"masked_number"`
	Balance      string `json:"balance"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// IssueCardResponse carries the one-time plaintext card number alongside
// the stored card. It is returned exactly once, at issuance.
type IssueCardResponse struct {
	Card       CardResponse `json:"card"`
	CardNumber string       `json:"card_number"`
}

// RevealCardResponse is the response of the authorized reveal endpoint.
type RevealCardResponse struct {
	CardNumber string `json:"card_number"`
}

// CardTopUpRequest is the request body for funding a card from a wallet.
type CardTopUpRequest struct {
	Kind       string          `json:"kind" binding:"required,oneof=metro insurance"`
	CardNumber string          `json:"card_number" binding:"required,max=64"`
	WalletID   string          `json:"wallet_id" binding:"required,uuid"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// CardChargeRequest is the request body for charging a card at an
// organization service point.
type CardChargeRequest struct {
	Kind       string          `json:"kind" binding:"required,oneof=metro insurance"`
	CardNumber string          `json:"card_number" binding:"required,max=64"`
	OrgSubtype string          `json:"org_subtype" binding:"required,oneof=Volunteer Transportation Healthcare"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// CardTopUpResponse reports a wallet-funded card top-up.
type CardTopUpResponse struct {
	Card          CardResponse   `json:"card"`
	Wallet        WalletResponse `json:"wallet"`
	WalletEntryID string         `json:"wallet_entry_id"`
	CardTxID      string         `json:"card_transaction_id"`
}

// CardChargeResponse reports a card charge settled into an organization
// wallet.
type CardChargeResponse struct {
	Card      CardResponse   `json:"card"`
	OrgWallet WalletResponse `json:"org_wallet"`
	CardTxID  string         `json:"card_transaction_id"`
}

// CardTransactionResponse is the wire representation of a card movement.
type CardTransactionResponse struct {
	ID          string `json:"id"`
	CardID      string `json:"card_id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// CreateQRRequest is the request body for generating a payment QR.
type CreateQRRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// CreateQRResponse carries the reference triple plus the renderable QR
// payload returned by the bank.
type CreateQRResponse struct {
	Ref1      string `json:"ref1"`
	Ref2      string `json:"ref2"`
	Ref3      string `json:"ref3"`
	Amount    string `json:"amount"`
	QRRawData string `json:"qr_raw_data"`
	QRImage   string `json:"qr_image,omitempty"`
}

// WebhookEnvelope is the outer callback body. The gateway either sends the
// confirmation fields in clear or wraps them in an RSA-encrypted payload.
type WebhookEnvelope struct {
	EncryptedPayload string `json:"encryptedPayload,omitempty"`
}

// WebhookRequest is the bank's settlement callback payload. Field names
// follow the gateway's wire format.
type WebhookRequest struct {
	TransactionID   string `json:"transactionId"`
	SendingBankCode string `json:"sendingBankCode"`
	BillPaymentRef1 string `json:"billPaymentRef1" binding:"required,max=20,safe_ref"`
	BillPaymentRef2 string `json:"billPaymentRef2"`
	Amount          string `json:"amount"`
}

// WebhookResponse is the acknowledgement the gateway expects back.
type WebhookResponse struct {
	ResCode       string `json:"resCode"`
	ResDesc       string `json:"resDesc"`
	TransactionID string `json:"transactionId,omitempty"`
}

// FromWallet converts a domain wallet to its wire form.
func FromWallet(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:         w.ID.String(),
		OwnerID:    w.OwnerID.String(),
		Kind:       string(w.Kind),
		OrgSubtype: w.OrgSubtype,
		Balance:    w.Balance.StringFixed(2),
		Status:     string(w.Status),
		CreatedAt:  w.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// FromEntry converts a domain ledger entry to its wire form.
func FromEntry(e *domain.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:            e.ID.String(),
		WalletID:      e.WalletID.String(),
		Kind:          string(e.Kind),
		Amount:        e.Amount.StringFixed(2),
		TargetService: e.TargetService,
		Description:   e.Description,
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.CounterpartyWalletID != nil {
		s := e.CounterpartyWalletID.String()
		resp.CounterpartyWalletID = &s
	}
	return resp
}

// FromCard converts a domain card to its wire form.
func FromCard(card *domain.Card) CardResponse {
	return CardResponse{
		ID:           card.ID.String(),
		OwnerID:      card.OwnerID.String(),
		Kind:         string(card.Kind),
		MaskedNumber: card.MaskedNum,
		Balance:      card.Balance.StringFixed(2),
		Status:       string(card.Status),
		CreatedAt:    card.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// FromCardTransaction converts a domain card transaction to its wire form.
func FromCardTransaction(tx *domain.CardTransaction) CardTransactionResponse {
	return CardTransactionResponse{
		ID:          tx.ID.String(),
		CardID:      tx.CardID.String(),
		Kind:        string(tx.Kind),
		Amount:      tx.Amount.StringFixed(2),
		Reference:   tx.Reference,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}
