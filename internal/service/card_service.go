package service

import (
	"context"
	"fmt"
	"time"

	"civic-ledger/internal/core/domain"
	"civic-ledger/internal/core/ports"
	"civic-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CardServiceImpl implements ports.CardService. Card numbers exist in
// plaintext only transiently: at issuance, during a hash lookup, and on the
// authorized reveal path.
type CardServiceImpl struct {
	cardRepo   ports.CardRepository
	cardTxRepo ports.CardTransactionRepository
	walletRepo ports.WalletRepository
	ledgerSvc  ports.LedgerService
	cipher     ports.CardCipher
	hasher     ports.LookupHasher
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewCardService creates a new CardServiceImpl.
func NewCardService(
	cardRepo ports.CardRepository,
	cardTxRepo ports.CardTransactionRepository,
	walletRepo ports.WalletRepository,
	ledgerSvc ports.LedgerService,
	cipher ports.CardCipher,
	hasher ports.LookupHasher,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *CardServiceImpl {
	return &CardServiceImpl{
		cardRepo:   cardRepo,
		cardTxRepo: cardTxRepo,
		walletRepo: walletRepo,
		ledgerSvc:  ledgerSvc,
		cipher:     cipher,
		hasher:     hasher,
		transactor: transactor,
		log:        log,
	}
}

// IssueCard generates a card number, tokenizes it and persists the card.
// The plaintext number is returned to the caller once and never stored.
// A lookup-hash collision is surfaced as a conflict rather than retried.
func (s *CardServiceImpl) IssueCard(ctx context.Context, ownerID uuid.UUID, kind domain.CardKind) (*ports.CardIssueResult, error) {
	number, err := GenerateCardNumber(kind, ownerID)
	if err != nil {
		return nil, err
	}

	hash := s.hasher.Hash(number)
	existing, err := s.cardRepo.GetByLookupHash(ctx, kind, hash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check card hash: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrCardNumberExists()
	}

	token, err := s.cipher.Seal(number)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	card := &domain.Card{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Kind:        kind,
		NumberToken: token,
		LookupHash:  hash,
		MaskedNum:   s.cipher.Mask(number),
		Balance:     decimal.Zero,
		Status:      domain.CardStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create card: %w", err))
	}

	s.log.Info().
		Str("card_id", card.ID.String()).
		Str("owner_id", ownerID.String()).
		Str("kind", string(kind)).
		Msg("card issued")

	return &ports.CardIssueResult{Card: card, CardNumber: number}, nil
}

// GetCard returns a card by ID.
func (s *CardServiceImpl) GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get card: %w", err))
	}
	if card == nil {
		return nil, apperror.ErrNotFound("card")
	}
	return card, nil
}

// ListByOwner returns all cards held by an owner.
func (s *CardServiceImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Card, error) {
	cards, err := s.cardRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list cards: %w", err))
	}
	return cards, nil
}

// FindByNumber resolves a card from its plaintext number through the keyed
// lookup hash. The plaintext is never compared against stored data.
func (s *CardServiceImpl) FindByNumber(ctx context.Context, kind domain.CardKind, cardNumber string) (*domain.Card, error) {
	card, err := s.cardRepo.GetByLookupHash(ctx, kind, s.hasher.Hash(cardNumber))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find card: %w", err))
	}
	if card == nil {
		return nil, apperror.ErrNotFound("card")
	}
	return card, nil
}

// RevealNumber decrypts a card's stored token for its owner. This is the
// only path that returns a stored card number in plaintext.
func (s *CardServiceImpl) RevealNumber(ctx context.Context, ownerID, cardID uuid.UUID) (string, error) {
	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return "", err
	}
	if card.OwnerID != ownerID {
		return "", apperror.ErrNotFound("card")
	}

	number, err := s.cipher.Open(card.NumberToken)
	if err != nil {
		s.log.Error().
			Err(err).
			Str("card_id", cardID.String()).
			Msg("stored card token failed to open")
		return "", err
	}
	return number, nil
}

// ListTransactions returns a card's movements, newest first.
func (s *CardServiceImpl) ListTransactions(ctx context.Context, cardID uuid.UUID) ([]domain.CardTransaction, error) {
	txs, err := s.cardTxRepo.ListByCard(ctx, cardID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list card transactions: %w", err))
	}
	return txs, nil
}

// TopUpFromWallet moves value from a wallet onto a card. The wallet debit,
// the card credit and both records commit in one transaction.
func (s *CardServiceImpl) TopUpFromWallet(ctx context.Context, kind domain.CardKind, cardNumber string, walletID uuid.UUID, amount decimal.Decimal) (*ports.CardTopUpResult, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	target, err := s.FindByNumber(ctx, kind, cardNumber)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	card, err := s.lockActiveCard(ctx, dbTx, target.ID)
	if err != nil {
		return nil, err
	}

	serviceTag := domain.ServiceTag(card.Kind, card.ID)
	debit, err := s.ledgerSvc.TransferToService(ctx, dbTx, walletID, amount, serviceTag, "card top-up")
	if err != nil {
		return nil, err
	}

	card.Balance = card.Balance.Add(amount)
	if err := s.cardRepo.UpdateBalance(ctx, dbTx, card.ID, card.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update card balance: %w", err))
	}

	cardTx := &domain.CardTransaction{
		ID:          uuid.New(),
		CardID:      card.ID,
		CardKind:    card.Kind,
		Kind:        domain.CardTxKindTopUp,
		Amount:      amount,
		Reference:   debit.EntryID.String(),
		Description: "top-up from wallet",
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.cardTxRepo.Create(ctx, dbTx, cardTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create card transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("card_id", card.ID.String()).
		Str("wallet_id", walletID.String()).
		Str("amount", amount.String()).
		Msg("card topped up from wallet")

	return &ports.CardTopUpResult{
		Card:          card,
		Wallet:        debit.Wallet,
		WalletEntryID: debit.EntryID,
		CardTxID:      cardTx.ID,
	}, nil
}

// ChargeToOrganization spends card balance into the organization wallet for
// the consuming service. The card debit and the wallet credit commit
// together.
func (s *CardServiceImpl) ChargeToOrganization(ctx context.Context, kind domain.CardKind, cardNumber, orgSubtype string, amount decimal.Decimal) (*ports.CardChargeResult, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	target, err := s.FindByNumber(ctx, kind, cardNumber)
	if err != nil {
		return nil, err
	}

	orgWallet, err := s.walletRepo.GetByOrgSubtype(ctx, orgSubtype)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find org wallet: %w", err))
	}
	if orgWallet == nil {
		return nil, apperror.ErrNotFound("organization wallet")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	card, err := s.lockActiveCard(ctx, dbTx, target.ID)
	if err != nil {
		return nil, err
	}
	if card.Balance.LessThan(amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	card.Balance = card.Balance.Sub(amount)
	if err := s.cardRepo.UpdateBalance(ctx, dbTx, card.ID, card.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update card balance: %w", err))
	}

	serviceTag := domain.ServiceTag(card.Kind, card.ID)
	credit, err := s.ledgerSvc.CreditFromService(ctx, dbTx, orgWallet.ID, amount, serviceTag, "card charge")
	if err != nil {
		return nil, err
	}

	cardTx := &domain.CardTransaction{
		ID:          uuid.New(),
		CardID:      card.ID,
		CardKind:    card.Kind,
		Kind:        domain.CardTxKindCharge,
		Amount:      amount,
		Reference:   credit.EntryID.String(),
		Description: "charge to " + orgSubtype,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.cardTxRepo.Create(ctx, dbTx, cardTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create card transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("card_id", card.ID.String()).
		Str("org_wallet_id", orgWallet.ID.String()).
		Str("amount", amount.String()).
		Msg("card charged to organization")

	return &ports.CardChargeResult{
		Card:      card,
		OrgWallet: credit.Wallet,
		CardTxID:  cardTx.ID,
	}, nil
}

// lockActiveCard loads a card under FOR UPDATE and rejects suspended cards.
func (s *CardServiceImpl) lockActiveCard(ctx context.Context, dbTx pgx.Tx, id uuid.UUID) (*domain.Card, error) {
	card, err := s.cardRepo.GetByIDForUpdate(ctx, dbTx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock card: %w", err))
	}
	if card == nil {
		return nil, apperror.ErrNotFound("card")
	}
	if !card.IsActive() {
		return nil, apperror.ErrCardSuspended()
	}
	return card, nil
}
