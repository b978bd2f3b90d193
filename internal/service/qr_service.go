package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"civic-ledger/internal/core/domain"
	"civic-ledger/internal/core/ports"
	"civic-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	refMaxLen     = 20
	settlementTTL = 24 * time.Hour
)

// QRServiceImpl implements ports.QRService: QR generation through the
// banking gateway and idempotent settlement of its confirmation webhooks.
type QRServiceImpl struct {
	qrRepo     ports.QRRequestRepository
	walletRepo ports.WalletRepository
	ledgerSvc  ports.LedgerService
	gateway    ports.GatewayClient
	creds      ports.CredentialSource
	cache      ports.SettlementCache
	transactor ports.DBTransactor
	ref3Prefix string
	log        zerolog.Logger
}

// NewQRService creates a new QRServiceImpl. ref3Prefix is the fixed leading
// part of the third reference code, from configuration.
func NewQRService(
	qrRepo ports.QRRequestRepository,
	walletRepo ports.WalletRepository,
	ledgerSvc ports.LedgerService,
	gateway ports.GatewayClient,
	creds ports.CredentialSource,
	cache ports.SettlementCache,
	transactor ports.DBTransactor,
	ref3Prefix string,
	log zerolog.Logger,
) *QRServiceImpl {
	return &QRServiceImpl{
		qrRepo:     qrRepo,
		walletRepo: walletRepo,
		ledgerSvc:  ledgerSvc,
		gateway:    gateway,
		creds:      creds,
		cache:      cache,
		transactor: transactor,
		ref3Prefix: ref3Prefix,
		log:        log,
	}
}

// CreateQrRequest asks the gateway for a payment QR crediting the user's
// wallet. The pending request row is persisted only after the gateway call
// succeeds, so every stored ref1 maps to a QR that actually exists.
func (s *QRServiceImpl) CreateQrRequest(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*ports.QRCreateResult, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	wallet, err := s.walletRepo.GetActiveIndividualByOwner(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	ref1, err := randomRef(refMaxLen)
	if err != nil {
		return nil, err
	}
	ref2, err := randomRef(refMaxLen)
	if err != nil {
		return nil, err
	}
	ref3, err := prefixedRef(s.ref3Prefix, refMaxLen)
	if err != nil {
		return nil, err
	}

	cred, err := s.creds.Credential(ctx)
	if err != nil {
		return nil, err
	}

	qr, err := s.gateway.CreateQr(ctx, cred.AccessToken, ports.QRCreation{
		Amount: amount.StringFixed(2),
		Ref1:   ref1,
		Ref2:   ref2,
		Ref3:   ref3,
	})
	if err != nil {
		return nil, err
	}

	req := &domain.QRPaymentRequest{
		ID:        uuid.New(),
		UserID:    userID,
		WalletID:  wallet.ID,
		Ref1:      ref1,
		Ref2:      ref2,
		Ref3:      ref3,
		Amount:    amount,
		State:     domain.QRStatePending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.qrRepo.Create(ctx, req); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create qr request: %w", err))
	}

	s.log.Info().
		Str("qr_request_id", req.ID.String()).
		Str("user_id", userID.String()).
		Str("ref1", ref1).
		Str("amount", amount.String()).
		Msg("qr payment request created")

	return &ports.QRCreateResult{
		Request:   req,
		QRRawData: qr.RawData,
		QRImage:   qr.Image,
	}, nil
}

// ConfirmWebhook settles a bank confirmation. Settlement is idempotent:
// repeat deliveries of the same ref1 return the prior outcome without a
// second credit. The redis check is a fast path; the row state under lock
// decides.
func (s *QRServiceImpl) ConfirmWebhook(ctx context.Context, confirmation ports.WebhookConfirmation) (*ports.SettlementResult, error) {
	if confirmation.Ref1 == "" {
		return nil, apperror.Validation("ref1 is required")
	}

	seen, err := s.cache.Seen(ctx, confirmation.Ref1)
	if err != nil {
		s.log.Warn().Err(err).Str("ref1", confirmation.Ref1).Msg("settlement cache check failed, falling through to DB")
	}
	if seen {
		prior, err := s.priorSettlement(ctx, confirmation.Ref1)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			return prior, nil
		}
		// Stale cache entry for a still-pending row; the locked path decides.
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	req, err := s.qrRepo.GetByRef1ForUpdate(ctx, dbTx, confirmation.Ref1)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock qr request: %w", err))
	}
	if req == nil {
		return nil, apperror.ErrNotFound("qr payment request")
	}
	if req.IsConfirmed() {
		wallet, err := s.walletRepo.GetByID(ctx, req.WalletID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
		}
		return &ports.SettlementResult{Request: req, Wallet: wallet, Duplicate: true}, nil
	}

	topUp, err := s.ledgerSvc.TopUp(ctx, dbTx, req.WalletID, req.Amount, "qr settlement "+confirmation.TransactionRef)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.qrRepo.MarkConfirmed(ctx, dbTx, req.ID, confirmation.TransactionRef, confirmation.SendingBank, now); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark confirmed: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if err := s.cache.MarkSeen(ctx, confirmation.Ref1, settlementTTL); err != nil {
		s.log.Warn().Err(err).Str("ref1", confirmation.Ref1).Msg("failed to cache settlement")
	}

	req.State = domain.QRStateConfirmed
	req.BankTxRef = &confirmation.TransactionRef
	req.SendingBank = &confirmation.SendingBank
	req.ConfirmedAt = &now

	s.log.Info().
		Str("qr_request_id", req.ID.String()).
		Str("ref1", req.Ref1).
		Str("bank_tx_ref", confirmation.TransactionRef).
		Str("amount", req.Amount.String()).
		Msg("qr payment settled")

	return &ports.SettlementResult{Request: req, Wallet: topUp.Wallet, Duplicate: false}, nil
}

// priorSettlement returns the recorded outcome for an already-seen ref1, or
// nil when the row is still pending and the caller must settle under lock.
func (s *QRServiceImpl) priorSettlement(ctx context.Context, ref1 string) (*ports.SettlementResult, error) {
	req, err := s.qrRepo.GetByRef1(ctx, ref1)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get qr request: %w", err))
	}
	if req == nil {
		return nil, apperror.ErrNotFound("qr payment request")
	}
	if !req.IsConfirmed() {
		return nil, nil
	}
	wallet, err := s.walletRepo.GetByID(ctx, req.WalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	return &ports.SettlementResult{Request: req, Wallet: wallet, Duplicate: true}, nil
}

// randomRef returns an uppercase hex reference of exactly n characters.
func randomRef(n int) (string, error) {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", apperror.ErrCryptoFailure(fmt.Errorf("generating reference: %w", err))
	}
	return strings.ToUpper(hex.EncodeToString(buf))[:n], nil
}

// prefixedRef returns prefix plus random uppercase hex, capped at n
// characters total.
func prefixedRef(prefix string, n int) (string, error) {
	prefix = strings.ToUpper(prefix)
	if len(prefix) >= n {
		return prefix[:n], nil
	}
	rest, err := randomRef(n - len(prefix))
	if err != nil {
		return "", err
	}
	return prefix + rest, nil
}
