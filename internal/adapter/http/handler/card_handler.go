package handler

import (
	"civic-ledger/internal/adapter/http/dto"
	"civic-ledger/internal/adapter/http/middleware"
	"civic-ledger/internal/core/domain"
	"civic-ledger/internal/core/ports"
	"civic-ledger/pkg/apperror"
	"civic-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CardHandler handles tokenized card endpoints.
type CardHandler struct {
	cardSvc   ports.CardService
	ledgerSvc ports.LedgerService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardSvc ports.CardService, ledgerSvc ports.LedgerService) *CardHandler {
	return &CardHandler{cardSvc: cardSvc, ledgerSvc: ledgerSvc}
}

// Issue handles POST /api/v1/cards. The plaintext card number appears in
// this response and nowhere else.
func (h *CardHandler) Issue(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.IssueCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.cardSvc.IssueCard(c.Request.Context(), userID, domain.CardKind(req.Kind))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.IssueCardResponse{
		Card:       dto.FromCard(result.Card),
		CardNumber: result.CardNumber,
	})
}

// List handles GET /api/v1/cards.
func (h *CardHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	cards, err := h.cardSvc.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.CardResponse, 0, len(cards))
	for i := range cards {
		items = append(items, dto.FromCard(&cards[i]))
	}
	response.OK(c, items)
}

// Get handles GET /api/v1/cards/:id.
func (h *CardHandler) Get(c *gin.Context) {
	card, err := h.ownedCard(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromCard(card))
}

// Reveal handles GET /api/v1/cards/:id/reveal, the single authorized path
// that returns a stored card number in plaintext.
func (h *CardHandler) Reveal(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid card id"))
		return
	}

	number, err := h.cardSvc.RevealNumber(c.Request.Context(), userID, cardID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.RevealCardResponse{CardNumber: number})
}

// ListTransactions handles GET /api/v1/cards/:id/transactions.
func (h *CardHandler) ListTransactions(c *gin.Context) {
	card, err := h.ownedCard(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	txs, err := h.cardSvc.ListTransactions(c.Request.Context(), card.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.CardTransactionResponse, 0, len(txs))
	for i := range txs {
		items = append(items, dto.FromCardTransaction(&txs[i]))
	}
	response.OK(c, items)
}

// TopUp handles POST /api/v1/cards/topup. The card is addressed by number,
// the funding wallet must belong to the caller.
func (h *CardHandler) TopUp(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CardTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	wallet, err := h.ledgerSvc.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if wallet.OwnerID != userID {
		response.Error(c, apperror.ErrNotFound("wallet"))
		return
	}

	result, err := h.cardSvc.TopUpFromWallet(c.Request.Context(), domain.CardKind(req.Kind), req.CardNumber, walletID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.CardTopUpResponse{
		Card:          dto.FromCard(result.Card),
		Wallet:        dto.FromWallet(result.Wallet),
		WalletEntryID: result.WalletEntryID.String(),
		CardTxID:      result.CardTxID.String(),
	})
}

// Charge handles POST /api/v1/cards/charge, a service-point operation that
// debits a card and credits the matching organization wallet.
func (h *CardHandler) Charge(c *gin.Context) {
	var req dto.CardChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.cardSvc.ChargeToOrganization(c.Request.Context(), domain.CardKind(req.Kind), req.CardNumber, req.OrgSubtype, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.CardChargeResponse{
		Card:      dto.FromCard(result.Card),
		OrgWallet: dto.FromWallet(result.OrgWallet),
		CardTxID:  result.CardTxID.String(),
	})
}

// ownedCard resolves the :id path parameter to a card owned by the
// authenticated caller.
func (h *CardHandler) ownedCard(c *gin.Context) (*domain.Card, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return nil, apperror.ErrInvalidToken()
	}

	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, apperror.Validation("invalid card id")
	}

	card, err := h.cardSvc.GetCard(c.Request.Context(), cardID)
	if err != nil {
		return nil, err
	}
	if card.OwnerID != userID {
		return nil, apperror.ErrNotFound("card")
	}
	return card, nil
}
