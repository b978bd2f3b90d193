package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"civic-ledger/internal/adapter/http/dto"
	"civic-ledger/internal/adapter/http/middleware"
	"civic-ledger/internal/core/ports"
	"civic-ledger/pkg/apperror"
	"civic-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// QRHandler handles QR top-up endpoints and the bank settlement callback.
type QRHandler struct {
	qrSvc     ports.QRService
	decryptor ports.PayloadDecryptor // nil = encrypted callbacks disabled
	log       zerolog.Logger
}

// NewQRHandler creates a new QRHandler.
func NewQRHandler(qrSvc ports.QRService, decryptor ports.PayloadDecryptor, log zerolog.Logger) *QRHandler {
	return &QRHandler{qrSvc: qrSvc, decryptor: decryptor, log: log}
}

// Create handles POST /api/v1/qr.
func (h *QRHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.qrSvc.CreateQrRequest(c.Request.Context(), userID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CreateQRResponse{
		Ref1:      result.Request.Ref1,
		Ref2:      result.Request.Ref2,
		Ref3:      result.Request.Ref3,
		Amount:    result.Request.Amount.StringFixed(2),
		QRRawData: result.QRRawData,
		QRImage:   result.QRImage,
	})
}

// ConfirmWebhook handles POST /webhooks/scb/confirm. The bank retries
// delivery, so the handler acknowledges duplicates the same as first
// confirmations.
func (h *QRHandler) ConfirmWebhook(c *gin.Context) {
	req, ok := h.bindConfirmation(c)
	if !ok {
		return
	}

	result, err := h.qrSvc.ConfirmWebhook(c.Request.Context(), ports.WebhookConfirmation{
		TransactionRef: req.TransactionID,
		SendingBank:    req.SendingBankCode,
		Ref1:           req.BillPaymentRef1,
	})
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			c.JSON(http.StatusNotFound, dto.WebhookResponse{
				ResCode: "02",
				ResDesc: "unknown reference",
			})
			return
		}
		h.log.Error().Err(err).Str("ref1", req.BillPaymentRef1).Msg("settlement failed")
		c.JSON(http.StatusInternalServerError, dto.WebhookResponse{
			ResCode: "99",
			ResDesc: "settlement error",
		})
		return
	}

	if result.Duplicate {
		h.log.Info().Str("ref1", req.BillPaymentRef1).Msg("duplicate settlement acknowledged")
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{
		ResCode:       "00",
		ResDesc:       "success",
		TransactionID: req.TransactionID,
	})
}

// bindConfirmation reads the callback body, unwrapping the RSA envelope
// when the gateway sends one, and validates the reference fields.
func (h *QRHandler) bindConfirmation(c *gin.Context) (dto.WebhookRequest, bool) {
	var req dto.WebhookRequest

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.rejectWebhook(c, "unreadable body", err)
		return req, false
	}

	var envelope dto.WebhookEnvelope
	if json.Unmarshal(body, &envelope) == nil && envelope.EncryptedPayload != "" {
		if h.decryptor == nil {
			h.rejectWebhook(c, "encrypted callback not configured", nil)
			return req, false
		}
		plain, err := h.decryptor.DecryptFromGateway(envelope.EncryptedPayload)
		if err != nil {
			h.rejectWebhook(c, "payload decryption failed", err)
			return req, false
		}
		body = plain
	}

	if err := json.Unmarshal(body, &req); err != nil {
		h.rejectWebhook(c, "malformed settlement webhook", err)
		return req, false
	}
	if !dto.ValidRef1(req.BillPaymentRef1) {
		h.rejectWebhook(c, "invalid reference", nil)
		return req, false
	}
	return req, true
}

func (h *QRHandler) rejectWebhook(c *gin.Context, reason string, err error) {
	h.log.Warn().Err(err).Msg(reason)
	c.JSON(http.StatusBadRequest, dto.WebhookResponse{
		ResCode: "01",
		ResDesc: "invalid payload",
	})
}
