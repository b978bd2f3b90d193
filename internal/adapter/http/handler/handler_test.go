package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civic-ledger/internal/adapter/gateway/scb"
	"civic-ledger/internal/core/domain"
	"civic-ledger/internal/core/ports"
	"civic-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Stub services ---

type stubTokenSvc struct {
	userID uuid.UUID
}

func (s *stubTokenSvc) Generate(userID uuid.UUID) (string, error) { return "token", nil }

func (s *stubTokenSvc) Validate(token string) (uuid.UUID, error) {
	if token != "good-token" {
		return uuid.Nil, apperror.ErrInvalidToken()
	}
	return s.userID, nil
}

type stubLedgerSvc struct {
	wallets        map[uuid.UUID]*domain.Wallet
	entries        []domain.LedgerEntry
	createErr      error
	transferResult *ports.TransferResult
	transferErr    error
	topUpResult    *ports.TopUpResult
}

func (s *stubLedgerSvc) CreateWallet(ctx context.Context, req ports.CreateWalletRequest) (*domain.Wallet, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	w := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   req.OwnerID,
		Kind:      req.Kind,
		Balance:   decimal.Zero,
		Status:    domain.WalletStatusActive,
		CreatedAt: time.Now(),
	}
	return w, nil
}

func (s *stubLedgerSvc) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	w, ok := s.wallets[id]
	if !ok {
		return nil, apperror.ErrNotFound("wallet")
	}
	return w, nil
}

func (s *stubLedgerSvc) ListWalletsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error) {
	var out []domain.Wallet
	for _, w := range s.wallets {
		if w.OwnerID == ownerID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (s *stubLedgerSvc) ListEntries(ctx context.Context, walletID uuid.UUID) ([]domain.LedgerEntry, error) {
	return s.entries, nil
}

func (s *stubLedgerSvc) TopUp(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, description string) (*ports.TopUpResult, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	return s.topUpResult, nil
}

func (s *stubLedgerSvc) Transfer(ctx context.Context, tx pgx.Tx, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (*ports.TransferResult, error) {
	if s.transferErr != nil {
		return nil, s.transferErr
	}
	return s.transferResult, nil
}

func (s *stubLedgerSvc) TransferToService(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, serviceTag, description string) (*ports.ServiceTransferResult, error) {
	return nil, errors.New("not used")
}

func (s *stubLedgerSvc) CreditFromService(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, serviceTag, description string) (*ports.ServiceTransferResult, error) {
	return nil, errors.New("not used")
}

type stubCardSvc struct {
	cards       map[uuid.UUID]*domain.Card
	issueResult *ports.CardIssueResult
	issueErr    error
	revealed    string
	revealErr   error
	topUpResult *ports.CardTopUpResult
	topUpErr    error
	chargeRes   *ports.CardChargeResult
	chargeErr   error
}

func (s *stubCardSvc) IssueCard(ctx context.Context, ownerID uuid.UUID, kind domain.CardKind) (*ports.CardIssueResult, error) {
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	return s.issueResult, nil
}

func (s *stubCardSvc) GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	card, ok := s.cards[id]
	if !ok {
		return nil, apperror.ErrNotFound("card")
	}
	return card, nil
}

func (s *stubCardSvc) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Card, error) {
	var out []domain.Card
	for _, card := range s.cards {
		if card.OwnerID == ownerID {
			out = append(out, *card)
		}
	}
	return out, nil
}

func (s *stubCardSvc) FindByNumber(ctx context.Context, kind domain.CardKind, cardNumber string) (*domain.Card, error) {
	return nil, apperror.ErrNotFound("card")
}

func (s *stubCardSvc) RevealNumber(ctx context.Context, ownerID, cardID uuid.UUID) (string, error) {
	if s.revealErr != nil {
		return "", s.revealErr
	}
	return s.revealed, nil
}

func (s *stubCardSvc) TopUpFromWallet(ctx context.Context, kind domain.CardKind, cardNumber string, walletID uuid.UUID, amount decimal.Decimal) (*ports.CardTopUpResult, error) {
	if s.topUpErr != nil {
		return nil, s.topUpErr
	}
	return s.topUpResult, nil
}

func (s *stubCardSvc) ChargeToOrganization(ctx context.Context, kind domain.CardKind, cardNumber, orgSubtype string, amount decimal.Decimal) (*ports.CardChargeResult, error) {
	if s.chargeErr != nil {
		return nil, s.chargeErr
	}
	return s.chargeRes, nil
}

func (s *stubCardSvc) ListTransactions(ctx context.Context, cardID uuid.UUID) ([]domain.CardTransaction, error) {
	return nil, nil
}

type stubQRSvc struct {
	createResult  *ports.QRCreateResult
	createErr     error
	confirmResult *ports.SettlementResult
	confirmErr    error
	confirmations []ports.WebhookConfirmation
}

func (s *stubQRSvc) CreateQrRequest(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*ports.QRCreateResult, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createResult, nil
}

func (s *stubQRSvc) ConfirmWebhook(ctx context.Context, confirmation ports.WebhookConfirmation) (*ports.SettlementResult, error) {
	s.confirmations = append(s.confirmations, confirmation)
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	return s.confirmResult, nil
}

type stubChecker struct {
	name string
	err  error
}

func (s *stubChecker) Ping(ctx context.Context) error { return s.err }
func (s *stubChecker) Name() string                   { return s.name }

// --- Helpers ---

type routerFixture struct {
	engine    *gin.Engine
	userID    uuid.UUID
	ledgerSvc *stubLedgerSvc
	cardSvc   *stubCardSvc
	qrSvc     *stubQRSvc
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	userID := uuid.New()
	ledgerSvc := &stubLedgerSvc{wallets: map[uuid.UUID]*domain.Wallet{}}
	cardSvc := &stubCardSvc{cards: map[uuid.UUID]*domain.Card{}}
	qrSvc := &stubQRSvc{}

	engine := SetupRouter(RouterDeps{
		LedgerSvc: ledgerSvc,
		CardSvc:   cardSvc,
		QRSvc:     qrSvc,
		TokenSvc:  &stubTokenSvc{userID: userID},
		Logger:    zerolog.Nop(),
	})

	return &routerFixture{
		engine:    engine,
		userID:    userID,
		ledgerSvc: ledgerSvc,
		cardSvc:   cardSvc,
		qrSvc:     qrSvc,
	}
}

func (f *routerFixture) do(method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer good-token")
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func testWallet(ownerID uuid.UUID, balance string) *domain.Wallet {
	amount, _ := decimal.NewFromString(balance)
	return &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Kind:      domain.WalletKindIndividual,
		Balance:   amount,
		Status:    domain.WalletStatusActive,
		CreatedAt: time.Now(),
	}
}

// --- Wallet endpoints ---

func TestCreateWallet_Success(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodPost, "/api/v1/wallets", gin.H{"kind": "individual"}, true)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, f.userID.String(), data["owner_id"])
	assert.Equal(t, "individual", data["kind"])
	assert.Equal(t, "0.00", data["balance"])
}

func TestCreateWallet_InvalidKind(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodPost, "/api/v1/wallets", gin.H{"kind": "corporate"}, true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateWallet_Unauthenticated(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodPost, "/api/v1/wallets", gin.H{"kind": "individual"}, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetWallet_OtherOwnerReadsAsNotFound(t *testing.T) {
	f := newRouterFixture(t)
	other := testWallet(uuid.New(), "50.00")
	f.ledgerSvc.wallets[other.ID] = other

	w := f.do(http.MethodGet, "/api/v1/wallets/"+other.ID.String(), nil, true)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetWallet_Success(t *testing.T) {
	f := newRouterFixture(t)
	mine := testWallet(f.userID, "120.50")
	f.ledgerSvc.wallets[mine.ID] = mine

	w := f.do(http.MethodGet, "/api/v1/wallets/"+mine.ID.String(), nil, true)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, "120.50", data["balance"])
}

func TestTransfer_Success(t *testing.T) {
	f := newRouterFixture(t)
	from := testWallet(f.userID, "70.00")
	to := testWallet(uuid.New(), "130.00")
	f.ledgerSvc.wallets[from.ID] = from
	f.ledgerSvc.transferResult = &ports.TransferResult{
		FromWallet: from,
		ToWallet:   to,
		OutEntryID: uuid.New(),
		InEntryID:  uuid.New(),
	}

	w := f.do(http.MethodPost, "/api/v1/wallets/"+from.ID.String()+"/transfer", gin.H{
		"to_wallet_id": to.ID.String(),
		"amount":       "30.00",
	}, true)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.NotEmpty(t, data["out_entry_id"])
	assert.NotEmpty(t, data["in_entry_id"])
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	f := newRouterFixture(t)
	from := testWallet(f.userID, "1.00")
	f.ledgerSvc.wallets[from.ID] = from
	f.ledgerSvc.transferErr = apperror.ErrInsufficientFunds()

	w := f.do(http.MethodPost, "/api/v1/wallets/"+from.ID.String()+"/transfer", gin.H{
		"to_wallet_id": uuid.NewString(),
		"amount":       "30.00",
	}, true)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "LGR_001", resp["error_code"])
}

// --- Card endpoints ---

func TestIssueCard_ReturnsPlaintextOnce(t *testing.T) {
	f := newRouterFixture(t)
	card := &domain.Card{
		ID:        uuid.New(),
		OwnerID:   f.userID,
		Kind:      domain.CardKindMetro,
		MaskedNum: "•••• •••• •••• 0123",
		Balance:   decimal.Zero,
		Status:    domain.CardStatusActive,
		CreatedAt: time.Now(),
	}
	f.cardSvc.issueResult = &ports.CardIssueResult{Card: card, CardNumber: "01234567890123"}

	w := f.do(http.MethodPost, "/api/v1/cards", gin.H{"kind": "metro"}, true)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, "01234567890123", data["card_number"])
	cardData := data["card"].(map[string]interface{})
	assert.Equal(t, "•••• •••• •••• 0123", cardData["masked_number"])
}

func TestListCards_OmitsPlaintextNumber(t *testing.T) {
	f := newRouterFixture(t)
	card := &domain.Card{
		ID:          uuid.New(),
		OwnerID:     f.userID,
		Kind:        domain.CardKindInsurance,
		NumberToken: "opaque-token",
		LookupHash:  "deadbeef",
		MaskedNum:   "•••• •••• •••• 4242",
		Balance:     decimal.NewFromInt(10),
		Status:      domain.CardStatusActive,
	}
	f.cardSvc.cards[card.ID] = card

	w := f.do(http.MethodGet, "/api/v1/cards", nil, true)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, "opaque-token")
	assert.NotContains(t, body, "deadbeef")
	assert.Contains(t, body, "•••• •••• •••• 4242")
}

func TestRevealCard_Success(t *testing.T) {
	f := newRouterFixture(t)
	f.cardSvc.revealed = "01234567890123"

	w := f.do(http.MethodGet, "/api/v1/cards/"+uuid.NewString()+"/reveal", nil, true)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, "01234567890123", data["card_number"])
}

func TestRevealCard_IntegrityFailure(t *testing.T) {
	f := newRouterFixture(t)
	f.cardSvc.revealErr = apperror.ErrIntegrity(errors.New("authentication failed"))

	w := f.do(http.MethodGet, "/api/v1/cards/"+uuid.NewString()+"/reveal", nil, true)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CRY_001", resp["error_code"])
	assert.NotContains(t, w.Body.String(), "authentication failed")
}

func TestCardTopUp_WalletOwnershipEnforced(t *testing.T) {
	f := newRouterFixture(t)
	foreign := testWallet(uuid.New(), "500.00")
	f.ledgerSvc.wallets[foreign.ID] = foreign

	w := f.do(http.MethodPost, "/api/v1/cards/topup", gin.H{
		"kind":        "metro",
		"card_number": "01234567890123",
		"wallet_id":   foreign.ID.String(),
		"amount":      "25.00",
	}, true)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCardCharge_Success(t *testing.T) {
	f := newRouterFixture(t)
	card := &domain.Card{
		ID:        uuid.New(),
		OwnerID:   f.userID,
		Kind:      domain.CardKindInsurance,
		MaskedNum: "•••• •••• •••• 4242",
		Balance:   decimal.NewFromInt(75),
		Status:    domain.CardStatusActive,
	}
	orgWallet := testWallet(uuid.New(), "1000.00")
	f.cardSvc.chargeRes = &ports.CardChargeResult{
		Card:      card,
		OrgWallet: orgWallet,
		CardTxID:  uuid.New(),
	}

	w := f.do(http.MethodPost, "/api/v1/cards/charge", gin.H{
		"kind":        "insurance",
		"card_number": "INS-ABCD1234-000042",
		"org_subtype": "Healthcare",
		"amount":      "25.00",
	}, true)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.NotEmpty(t, data["card_transaction_id"])
}

func TestCardCharge_UnknownSubtypeRejected(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodPost, "/api/v1/cards/charge", gin.H{
		"kind":        "metro",
		"card_number": "01234567890123",
		"org_subtype": "Parking",
		"amount":      "25.00",
	}, true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- QR endpoints ---

func TestCreateQR_Success(t *testing.T) {
	f := newRouterFixture(t)
	amount := decimal.NewFromInt(150)
	f.qrSvc.createResult = &ports.QRCreateResult{
		Request: &domain.QRPaymentRequest{
			Ref1:   "A1B2C3D4E5F6A7B8C9D0",
			Ref2:   "B1B2C3D4E5F6A7B8C9D0",
			Ref3:   "CVL2C3D4E5F6A7B8C9D0",
			Amount: amount,
		},
		QRRawData: "raw-qr-payload",
		QRImage:   "base64-image",
	}

	w := f.do(http.MethodPost, "/api/v1/qr", gin.H{"amount": "150.00"}, true)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, "A1B2C3D4E5F6A7B8C9D0", data["ref1"])
	assert.Equal(t, "raw-qr-payload", data["qr_raw_data"])
	assert.Equal(t, "150.00", data["amount"])
}

func TestCreateQR_GatewayUnavailable(t *testing.T) {
	f := newRouterFixture(t)
	f.qrSvc.createErr = apperror.ErrGateway(nil)

	w := f.do(http.MethodPost, "/api/v1/qr", gin.H{"amount": "150.00"}, true)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// --- Webhook endpoint ---

func TestWebhook_Success(t *testing.T) {
	f := newRouterFixture(t)
	f.qrSvc.confirmResult = &ports.SettlementResult{
		Request: &domain.QRPaymentRequest{Ref1: "A1B2C3D4E5F6A7B8C9D0"},
		Wallet:  testWallet(uuid.New(), "175.00"),
	}

	w := f.do(http.MethodPost, "/webhooks/scb/confirm", gin.H{
		"transactionId":   "SCB-TX-001",
		"sendingBankCode": "014",
		"billPaymentRef1": "A1B2C3D4E5F6A7B8C9D0",
		"amount":          "150.00",
	}, false)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "00", resp["resCode"])
	assert.Equal(t, "SCB-TX-001", resp["transactionId"])

	require.Len(t, f.qrSvc.confirmations, 1)
	assert.Equal(t, "A1B2C3D4E5F6A7B8C9D0", f.qrSvc.confirmations[0].Ref1)
	assert.Equal(t, "014", f.qrSvc.confirmations[0].SendingBank)
}

func TestWebhook_DuplicateStillAcknowledged(t *testing.T) {
	f := newRouterFixture(t)
	f.qrSvc.confirmResult = &ports.SettlementResult{
		Request:   &domain.QRPaymentRequest{Ref1: "A1B2C3D4E5F6A7B8C9D0"},
		Duplicate: true,
	}

	w := f.do(http.MethodPost, "/webhooks/scb/confirm", gin.H{
		"billPaymentRef1": "A1B2C3D4E5F6A7B8C9D0",
	}, false)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "00", resp["resCode"])
}

func TestWebhook_UnknownReference(t *testing.T) {
	f := newRouterFixture(t)
	f.qrSvc.confirmErr = apperror.ErrNotFound("qr request")

	w := f.do(http.MethodPost, "/webhooks/scb/confirm", gin.H{
		"billPaymentRef1": "A1B2C3D4E5F6A7B8C9D0",
	}, false)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhook_MalformedRef1Rejected(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodPost, "/webhooks/scb/confirm", gin.H{
		"billPaymentRef1": "not a valid ref!",
	}, false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.qrSvc.confirmations)
}

func TestWebhook_EncryptedPayload(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
	decryptor, err := scb.NewPayloadCrypto("", string(privPEM))
	require.NoError(t, err)

	qrSvc := &stubQRSvc{confirmResult: &ports.SettlementResult{
		Request: &domain.QRPaymentRequest{Ref1: "A1B2C3D4E5F6A7B8C9D0"},
		Wallet:  testWallet(uuid.New(), "175.00"),
	}}
	engine := SetupRouter(RouterDeps{
		LedgerSvc: &stubLedgerSvc{},
		CardSvc:   &stubCardSvc{},
		QRSvc:     qrSvc,
		TokenSvc:  &stubTokenSvc{},
		Decryptor: decryptor,
		Logger:    zerolog.Nop(),
	})

	inner, _ := json.Marshal(gin.H{
		"transactionId":   "SCB-TX-002",
		"billPaymentRef1": "A1B2C3D4E5F6A7B8C9D0",
	})
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, &priv.PublicKey, inner, nil)
	require.NoError(t, err)
	outer, _ := json.Marshal(gin.H{
		"encryptedPayload": base64.StdEncoding.EncodeToString(ct),
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/scb/confirm", bytes.NewReader(outer))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, qrSvc.confirmations, 1)
	assert.Equal(t, "A1B2C3D4E5F6A7B8C9D0", qrSvc.confirmations[0].Ref1)
	assert.Equal(t, "SCB-TX-002", qrSvc.confirmations[0].TransactionRef)
}

func TestWebhook_EncryptedPayloadWithoutKeysRejected(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodPost, "/webhooks/scb/confirm", gin.H{
		"encryptedPayload": "Zm9yZ2Vk",
	}, false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.qrSvc.confirmations)
}

// --- Health endpoint ---

func TestHealthCheck_AllHealthy(t *testing.T) {
	r := gin.New()
	r.GET("/health", HealthCheck(&stubChecker{name: "postgresql"}, &stubChecker{name: "redis"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	r := gin.New()
	r.GET("/health", HealthCheck(
		&stubChecker{name: "postgresql"},
		&stubChecker{name: "redis", err: errors.New("connection refused")},
	))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}
