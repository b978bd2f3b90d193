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

// WalletHandler handles wallet and ledger endpoints.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	subtype := ""
	if req.OrgSubtype != nil {
		subtype = *req.OrgSubtype
	}

	wallet, err := h.ledgerSvc.CreateWallet(c.Request.Context(), ports.CreateWalletRequest{
		OwnerID:    userID,
		Kind:       domain.WalletKind(req.Kind),
		OrgSubtype: subtype,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromWallet(wallet))
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallets, err := h.ledgerSvc.ListWalletsByOwner(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WalletResponse, 0, len(wallets))
	for i := range wallets {
		items = append(items, dto.FromWallet(&wallets[i]))
	}
	response.OK(c, items)
}

// Get handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	wallet, err := h.ownedWallet(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromWallet(wallet))
}

// TopUp handles POST /api/v1/wallets/:id/topup.
func (h *WalletHandler) TopUp(c *gin.Context) {
	wallet, err := h.ownedWallet(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.TopUpWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.ledgerSvc.TopUp(c.Request.Context(), nil, wallet.ID, req.Amount, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"wallet":   dto.FromWallet(result.Wallet),
		"entry_id": result.EntryID.String(),
	})
}

// Transfer handles POST /api/v1/wallets/:id/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	wallet, err := h.ownedWallet(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	toID, err := uuid.Parse(req.ToWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid destination wallet id"))
		return
	}

	result, err := h.ledgerSvc.Transfer(c.Request.Context(), nil, wallet.ID, toID, req.Amount, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TransferResponse{
		FromWallet: dto.FromWallet(result.FromWallet),
		ToWallet:   dto.FromWallet(result.ToWallet),
		OutEntryID: result.OutEntryID.String(),
		InEntryID:  result.InEntryID.String(),
	})
}

// ListEntries handles GET /api/v1/wallets/:id/entries.
func (h *WalletHandler) ListEntries(c *gin.Context) {
	wallet, err := h.ownedWallet(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	entries, err := h.ledgerSvc.ListEntries(c.Request.Context(), wallet.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.FromEntry(&entries[i]))
	}
	response.OK(c, items)
}

// ownedWallet resolves the :id path parameter to a wallet owned by the
// authenticated caller. A wallet belonging to someone else reads as not
// found.
func (h *WalletHandler) ownedWallet(c *gin.Context) (*domain.Wallet, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return nil, apperror.ErrInvalidToken()
	}

	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, apperror.Validation("invalid wallet id")
	}

	wallet, err := h.ledgerSvc.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		return nil, err
	}
	if wallet.OwnerID != userID {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}
