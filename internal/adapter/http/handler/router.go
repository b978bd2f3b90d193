package handler

import (
	"civic-ledger/internal/adapter/http/middleware"
	"civic-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	CardSvc        ports.CardService
	QRSvc          ports.QRService
	TokenSvc       ports.TokenService
	Decryptor      ports.PayloadDecryptor // nil = encrypted callbacks disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	qrHandler := NewQRHandler(deps.QRSvc, deps.Decryptor, deps.Logger)

	// Bank settlement callback. Unauthenticated: the bank is the caller
	// and duplicates are handled idempotently downstream.
	r.POST("/webhooks/scb/confirm", qrHandler.ConfirmWebhook)

	// API v1 routes, all JWT-authenticated.
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", jwtAuth)

	walletHandler := NewWalletHandler(deps.LedgerSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", walletHandler.Create)
		wallets.GET("", walletHandler.List)
		wallets.GET("/:id", walletHandler.Get)
		wallets.POST("/:id/topup", walletHandler.TopUp)
		wallets.POST("/:id/transfer", walletHandler.Transfer)
		wallets.GET("/:id/entries", walletHandler.ListEntries)
	}

	cardHandler := NewCardHandler(deps.CardSvc, deps.LedgerSvc)
	cards := v1.Group("/cards")
	{
		cards.POST("", cardHandler.Issue)
		cards.GET("", cardHandler.List)
		cards.GET("/:id", cardHandler.Get)
		cards.GET("/:id/reveal", cardHandler.Reveal)
		cards.GET("/:id/transactions", cardHandler.ListTransactions)
		cards.POST("/topup", cardHandler.TopUp)
		cards.POST("/charge", cardHandler.Charge)
	}

	qr := v1.Group("/qr")
	{
		qr.POST("", qrHandler.Create)
	}

	return r
}
