package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"civic-ledger/internal/core/domain"
	"civic-ledger/internal/core/ports"
	"civic-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.ID] = w
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Wallet
	for _, w := range r.wallets {
		if w.OwnerID == ownerID {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (r *inMemoryWalletRepo) GetActiveIndividualByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.OwnerID == ownerID && w.Kind == domain.WalletKindIndividual && w.Status == domain.WalletStatusActive {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByOrgSubtype(ctx context.Context, subtype string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.Kind == domain.WalletKindOrganization && w.OrgSubtype != nil && *w.OrgSubtype == subtype {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance = balance
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Ledger Entry Repo ---

type inMemoryEntryRepo struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry
}

func newInMemoryEntryRepo() *inMemoryEntryRepo {
	return &inMemoryEntryRepo{}
}

func (r *inMemoryEntryRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *inMemoryEntryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryEntryRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.LedgerEntry
	for _, e := range r.entries {
		if e.WalletID == walletID {
			result = append(result, *e)
		}
	}
	return result, nil
}

// --- In-Memory Card Repo ---

type inMemoryCardRepo struct {
	mu    sync.RWMutex
	cards map[uuid.UUID]*domain.Card
}

func newInMemoryCardRepo() *inMemoryCardRepo {
	return &inMemoryCardRepo{cards: make(map[uuid.UUID]*domain.Card)}
}

func (r *inMemoryCardRepo) Create(ctx context.Context, c *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.cards {
		if existing.Kind == c.Kind && existing.LookupHash == c.LookupHash {
			return fmt.Errorf("duplicate lookup hash")
		}
	}
	r.cards[c.ID] = c
	return nil
}

func (r *inMemoryCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cards[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *inMemoryCardRepo) GetByLookupHash(ctx context.Context, kind domain.CardKind, hash string) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.cards {
		if c.Kind == kind && c.LookupHash == hash {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryCardRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Card
	for _, c := range r.cards {
		if c.OwnerID == ownerID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *inMemoryCardRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Card, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryCardRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[cardID]
	if !ok {
		return fmt.Errorf("card not found")
	}
	c.Balance = balance
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Card Transaction Repo ---

type inMemoryCardTxRepo struct {
	mu  sync.RWMutex
	txs []*domain.CardTransaction
}

func newInMemoryCardTxRepo() *inMemoryCardTxRepo {
	return &inMemoryCardTxRepo{}
}

func (r *inMemoryCardTxRepo) Create(ctx context.Context, tx pgx.Tx, cardTx *domain.CardTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, cardTx)
	return nil
}

func (r *inMemoryCardTxRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.CardTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.CardTransaction
	for _, t := range r.txs {
		if t.CardID == cardID {
			result = append(result, *t)
		}
	}
	return result, nil
}

// --- In-Memory QR Request Repo ---

type inMemoryQRRepo struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*domain.QRPaymentRequest
}

func newInMemoryQRRepo() *inMemoryQRRepo {
	return &inMemoryQRRepo{requests: make(map[uuid.UUID]*domain.QRPaymentRequest)}
}

func (r *inMemoryQRRepo) Create(ctx context.Context, req *domain.QRPaymentRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = req
	return nil
}

func (r *inMemoryQRRepo) GetByRef1(ctx context.Context, ref1 string) (*domain.QRPaymentRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, req := range r.requests {
		if req.Ref1 == ref1 {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryQRRepo) GetByRef1ForUpdate(ctx context.Context, tx pgx.Tx, ref1 string) (*domain.QRPaymentRequest, error) {
	return r.GetByRef1(ctx, ref1)
}

func (r *inMemoryQRRepo) MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, bankTxRef, sendingBank string, confirmedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return fmt.Errorf("qr request not found")
	}
	req.State = domain.QRStateConfirmed
	req.BankTxRef = &bankTxRef
	req.SendingBank = &sendingBank
	req.ConfirmedAt = &confirmedAt
	return nil
}

// --- In-Memory Settlement Cache ---

type inMemorySettlementCache struct {
	mu   sync.RWMutex
	seen map[string]bool
}

func newInMemorySettlementCache() *inMemorySettlementCache {
	return &inMemorySettlementCache{seen: make(map[string]bool)}
}

func (c *inMemorySettlementCache) Seen(ctx context.Context, ref1 string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seen[ref1], nil
}

func (c *inMemorySettlementCache) MarkSeen(ctx context.Context, ref1 string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[ref1] = true
	return nil
}

// --- Fake Gateway ---

type fakeGateway struct {
	mu      sync.Mutex
	calls   int
	failQr  bool
	rawData string
}

func (g *fakeGateway) FetchCredential(ctx context.Context) (*ports.GatewayCredential, error) {
	return &ports.GatewayCredential{
		AccessToken: "test-token",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(30 * time.Minute),
	}, nil
}

func (g *fakeGateway) CreateQr(ctx context.Context, accessToken string, req ports.QRCreation) (*ports.QRCode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.failQr {
		return nil, apperror.ErrGateway(nil)
	}
	raw := g.rawData
	if raw == "" {
		raw = "QR|" + req.Ref1
	}
	return &ports.QRCode{RawData: raw, Image: "base64-image"}, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes units of work with a global mutex, standing
// in for the row locks the real transactor relies on.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &serialTx{unlock: t.mu.Unlock}, nil
}

// serialTx releases the transactor mutex on the first Commit or Rollback.
type serialTx struct {
	noopTx
	once   sync.Once
	unlock func()
}

func (t *serialTx) Commit(ctx context.Context) error {
	t.once.Do(t.unlock)
	return nil
}

func (t *serialTx) Rollback(ctx context.Context) error {
	t.once.Do(t.unlock)
	return nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
