package service

import (
	"bytes"
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

// LedgerServiceImpl implements ports.LedgerService with pessimistic row
// locking. Every balance mutation and its ledger entries commit in one
// transaction.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	entryRepo  ports.LedgerEntryRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	entryRepo ports.LedgerEntryRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
		transactor: transactor,
		log:        log,
	}
}

// CreateWallet opens a wallet. An owner may hold at most one active
// individual wallet; organization wallets are keyed by subtype.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, req ports.CreateWalletRequest) (*domain.Wallet, error) {
	switch req.Kind {
	case domain.WalletKindIndividual:
		existing, err := s.walletRepo.GetActiveIndividualByOwner(ctx, req.OwnerID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("check existing wallet: %w", err))
		}
		if existing != nil {
			return nil, apperror.ErrWalletExists()
		}
	case domain.WalletKindOrganization:
		if req.OrgSubtype == "" {
			return nil, apperror.Validation("organization wallet requires a subtype")
		}
		existing, err := s.walletRepo.GetByOrgSubtype(ctx, req.OrgSubtype)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("check existing org wallet: %w", err))
		}
		if existing != nil {
			return nil, apperror.ErrWalletExists()
		}
	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown wallet kind: %s", req.Kind))
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   req.OwnerID,
		Kind:      req.Kind,
		Balance:   decimal.Zero,
		Status:    domain.WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Kind == domain.WalletKindOrganization {
		subtype := req.OrgSubtype
		wallet.OrgSubtype = &subtype
	}

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("owner_id", wallet.OwnerID.String()).
		Str("kind", string(wallet.Kind)).
		Msg("wallet created")
	return wallet, nil
}

// GetWallet returns a wallet by ID.
func (s *LedgerServiceImpl) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// ListWalletsByOwner returns all wallets held by an owner.
func (s *LedgerServiceImpl) ListWalletsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}
	return wallets, nil
}

// ListEntries returns the ledger entries of a wallet, newest first.
func (s *LedgerServiceImpl) ListEntries(ctx context.Context, walletID uuid.UUID) ([]domain.LedgerEntry, error) {
	entries, err := s.entryRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list entries: %w", err))
	}
	return entries, nil
}

// TopUp credits a wallet and records a top_up entry.
func (s *LedgerServiceImpl) TopUp(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, description string) (*ports.TopUpResult, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	var result *ports.TopUpResult
	err := s.withinTx(ctx, tx, func(dbTx pgx.Tx) error {
		wallet, err := s.lockActiveWallet(ctx, dbTx, walletID)
		if err != nil {
			return err
		}

		wallet.Balance = wallet.Balance.Add(amount)
		if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance); err != nil {
			return apperror.InternalError(fmt.Errorf("update balance: %w", err))
		}

		entry := &domain.LedgerEntry{
			ID:          uuid.New(),
			WalletID:    wallet.ID,
			Kind:        domain.EntryKindTopUp,
			Amount:      amount,
			Description: description,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.entryRepo.Create(ctx, dbTx, entry); err != nil {
			return apperror.InternalError(fmt.Errorf("create entry: %w", err))
		}

		result = &ports.TopUpResult{Wallet: wallet, EntryID: entry.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("amount", amount.String()).
		Msg("wallet topped up")
	return result, nil
}

// Transfer moves value between two wallets in one transaction, writing two
// paired entries that reference each other as counterparty. Both rows are
// locked in ascending ID order so concurrent opposing transfers cannot
// deadlock.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, tx pgx.Tx, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (*ports.TransferResult, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if fromID == toID {
		return nil, apperror.Validation("cannot transfer to the same wallet")
	}

	var result *ports.TransferResult
	err := s.withinTx(ctx, tx, func(dbTx pgx.Tx) error {
		first, second := fromID, toID
		if bytes.Compare(second[:], first[:]) < 0 {
			first, second = second, first
		}

		locked := make(map[uuid.UUID]*domain.Wallet, 2)
		for _, id := range []uuid.UUID{first, second} {
			w, err := s.lockActiveWallet(ctx, dbTx, id)
			if err != nil {
				return err
			}
			locked[id] = w
		}
		from, to := locked[fromID], locked[toID]

		if from.Balance.LessThan(amount) {
			return apperror.ErrInsufficientFunds()
		}

		from.Balance = from.Balance.Sub(amount)
		to.Balance = to.Balance.Add(amount)
		if err := s.walletRepo.UpdateBalance(ctx, dbTx, from.ID, from.Balance); err != nil {
			return apperror.InternalError(fmt.Errorf("update source balance: %w", err))
		}
		if err := s.walletRepo.UpdateBalance(ctx, dbTx, to.ID, to.Balance); err != nil {
			return apperror.InternalError(fmt.Errorf("update destination balance: %w", err))
		}

		now := time.Now().UTC()
		outEntry := &domain.LedgerEntry{
			ID:                   uuid.New(),
			WalletID:             from.ID,
			Kind:                 domain.EntryKindTransferOut,
			Amount:               amount,
			CounterpartyWalletID: &to.ID,
			Description:          description,
			CreatedAt:            now,
		}
		inEntry := &domain.LedgerEntry{
			ID:                   uuid.New(),
			WalletID:             to.ID,
			Kind:                 domain.EntryKindTransferIn,
			Amount:               amount,
			CounterpartyWalletID: &from.ID,
			Description:          description,
			CreatedAt:            now,
		}
		if err := s.entryRepo.Create(ctx, dbTx, outEntry); err != nil {
			return apperror.InternalError(fmt.Errorf("create outgoing entry: %w", err))
		}
		if err := s.entryRepo.Create(ctx, dbTx, inEntry); err != nil {
			return apperror.InternalError(fmt.Errorf("create incoming entry: %w", err))
		}

		result = &ports.TransferResult{
			FromWallet: from,
			ToWallet:   to,
			OutEntryID: outEntry.ID,
			InEntryID:  inEntry.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("from_wallet_id", fromID.String()).
		Str("to_wallet_id", toID.String()).
		Str("amount", amount.String()).
		Msg("transfer completed")
	return result, nil
}

// TransferToService debits a wallet toward an external service instrument.
// Only the wallet side lives in this ledger; the service tag names the
// counterparty.
func (s *LedgerServiceImpl) TransferToService(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, serviceTag, description string) (*ports.ServiceTransferResult, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if serviceTag == "" {
		return nil, apperror.Validation("service tag is required")
	}

	var result *ports.ServiceTransferResult
	err := s.withinTx(ctx, tx, func(dbTx pgx.Tx) error {
		wallet, err := s.lockActiveWallet(ctx, dbTx, walletID)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(amount) {
			return apperror.ErrInsufficientFunds()
		}

		wallet.Balance = wallet.Balance.Sub(amount)
		if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance); err != nil {
			return apperror.InternalError(fmt.Errorf("update balance: %w", err))
		}

		tag := serviceTag
		entry := &domain.LedgerEntry{
			ID:            uuid.New(),
			WalletID:      wallet.ID,
			Kind:          domain.EntryKindTransferToService,
			Amount:        amount,
			TargetService: &tag,
			Description:   description,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.entryRepo.Create(ctx, dbTx, entry); err != nil {
			return apperror.InternalError(fmt.Errorf("create entry: %w", err))
		}

		result = &ports.ServiceTransferResult{Wallet: wallet, EntryID: entry.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("target_service", serviceTag).
		Str("amount", amount.String()).
		Msg("service transfer completed")
	return result, nil
}

// CreditFromService credits a wallet with value arriving from a service
// instrument, recorded as a transfer_in entry tagged with the source.
func (s *LedgerServiceImpl) CreditFromService(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, serviceTag, description string) (*ports.ServiceTransferResult, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if serviceTag == "" {
		return nil, apperror.Validation("service tag is required")
	}

	var result *ports.ServiceTransferResult
	err := s.withinTx(ctx, tx, func(dbTx pgx.Tx) error {
		wallet, err := s.lockActiveWallet(ctx, dbTx, walletID)
		if err != nil {
			return err
		}

		wallet.Balance = wallet.Balance.Add(amount)
		if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance); err != nil {
			return apperror.InternalError(fmt.Errorf("update balance: %w", err))
		}

		tag := serviceTag
		entry := &domain.LedgerEntry{
			ID:            uuid.New(),
			WalletID:      wallet.ID,
			Kind:          domain.EntryKindTransferIn,
			Amount:        amount,
			TargetService: &tag,
			Description:   description,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.entryRepo.Create(ctx, dbTx, entry); err != nil {
			return apperror.InternalError(fmt.Errorf("create entry: %w", err))
		}

		result = &ports.ServiceTransferResult{Wallet: wallet, EntryID: entry.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("source_service", serviceTag).
		Str("amount", amount.String()).
		Msg("service credit completed")
	return result, nil
}

// lockActiveWallet loads a wallet under FOR UPDATE and rejects suspended
// and missing wallets.
func (s *LedgerServiceImpl) lockActiveWallet(ctx context.Context, dbTx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if !wallet.IsActive() {
		return nil, apperror.ErrWalletSuspended()
	}
	return wallet, nil
}

// withinTx runs fn inside the caller's transaction when one is supplied,
// otherwise inside a transaction it opens and commits itself. With a
// caller-owned transaction, commit and rollback stay with the caller.
func (s *LedgerServiceImpl) withinTx(ctx context.Context, tx pgx.Tx, fn func(pgx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := fn(dbTx); err != nil {
		return err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}
