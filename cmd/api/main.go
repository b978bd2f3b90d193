package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civic-ledger/config"
	scbGateway "civic-ledger/internal/adapter/gateway/scb"
	httpHandler "civic-ledger/internal/adapter/http/handler"
	pgStorage "civic-ledger/internal/adapter/storage/postgres"
	redisStorage "civic-ledger/internal/adapter/storage/redis"
	"civic-ledger/internal/core/ports"
	"civic-ledger/internal/service"
	"civic-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Civic Value Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	entryRepo := pgStorage.NewLedgerEntryRepo(pool)
	cardRepo := pgStorage.NewCardRepo(pool)
	cardTxRepo := pgStorage.NewCardTransactionRepo(pool)
	qrRepo := pgStorage.NewQRRequestRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Redis-backed settlement dedup
	settlementCache := redisStorage.NewSettlementCache(rdb)

	// Initialize core services
	cardCipher, err := service.NewGCMCardCipher(cfg.Cards.MasterKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize card cipher")
	}
	lookupHasher, err := service.NewHMACLookupHasher(cfg.Cards.MasterKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize lookup hasher")
	}
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Bank gateway client with cached OAuth credentials
	scbClient := scbGateway.NewClient(cfg.SCB, log)
	credCache := scbGateway.NewTokenCache(scbClient, log)
	payloadCrypto, err := scbGateway.NewPayloadCrypto(cfg.SCB.PublicKeyPEM, cfg.SCB.PrivateKeyPEM)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load gateway payload keys")
	}

	// Initialize business services
	ledgerSvc := service.NewLedgerService(walletRepo, entryRepo, transactor, log)
	cardSvc := service.NewCardService(cardRepo, cardTxRepo, walletRepo, ledgerSvc, cardCipher, lookupHasher, transactor, log)
	qrSvc := service.NewQRService(qrRepo, walletRepo, ledgerSvc, scbClient, credCache, settlementCache, transactor, cfg.SCB.Ref3Prefix, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		CardSvc:        cardSvc,
		QRSvc:          qrSvc,
		TokenSvc:       tokenSvc,
		Decryptor:      payloadCrypto,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
