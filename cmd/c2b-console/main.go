package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okoapay/c2b-console/internal/config"
	"github.com/okoapay/c2b-console/internal/daraja"
	"github.com/okoapay/c2b-console/internal/database"
	"github.com/okoapay/c2b-console/internal/logger"
	"github.com/okoapay/c2b-console/internal/redis"
	"github.com/okoapay/c2b-console/internal/router"
	"github.com/okoapay/c2b-console/internal/server"
	"github.com/okoapay/c2b-console/internal/shortcode"
	"github.com/okoapay/c2b-console/internal/transaction"
	"github.com/okoapay/c2b-console/internal/webhook"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.New(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	db, err := database.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	redisClient, err := redis.New(&log, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis client")
	}
	defer redisClient.Close()

	srv, err := server.NewServer(cfg, &log, loggerService, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	darajaClient := daraja.NewClient(&cfg.Daraja, redisClient)

	shortcodeRepo := shortcode.NewShortcodeRepository(db.Pool)
	transactionRepo := transaction.NewTransactionRepository(db.Pool)
	eventRepo := webhook.NewEventRepository(db.Pool)

	shortcodeService := shortcode.NewShortcodeService(shortcodeRepo, darajaClient, &cfg.Server)
	transactionService := transaction.NewTransactionService(transactionRepo)

	handlers := &router.Handlers{
		Shortcode:   shortcode.NewShortcodeHandler(shortcodeService),
		Transaction: transaction.NewTransactionHandler(transactionService),
		Webhook:     webhook.NewWebhookHandler(shortcodeRepo, transactionRepo, eventRepo, cfg.Server.TrustProxyHeaders),
	}

	r := router.NewRouter(srv, redisClient, handlers)

	srv.SetupHTTPServer(r)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
