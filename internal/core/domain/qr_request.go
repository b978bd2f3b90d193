package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QRRequestState is the settlement state of a QR payment request.
type QRRequestState string

const (
	QRStatePending   QRRequestState = "pending"
	QRStateConfirmed QRRequestState = "confirmed"
)

// QRPaymentRequest correlates an issued payment QR code with its eventual
// bank confirmation. Reference codes are unique among pending requests;
// confirming an already-confirmed reference is a no-op.
type QRPaymentRequest struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	WalletID    uuid.UUID       `json:"wallet_id"`
	Ref1        string          `json:"ref1"`
	Ref2        string          `json:"ref2"`
	Ref3        string          `json:"ref3"`
	Amount      decimal.Decimal `json:"amount"`
	State       QRRequestState  `json:"state"`
	BankTxRef   *string         `json:"bank_tx_ref,omitempty"`
	SendingBank *string         `json:"sending_bank,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ConfirmedAt *time.Time      `json:"confirmed_at,omitempty"`
}

// IsConfirmed returns true once the request has been settled.
func (q *QRPaymentRequest) IsConfirmed() bool {
	return q.State == QRStateConfirmed
}
