package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okoapay/c2b-console/internal/config"
	"github.com/okoapay/c2b-console/internal/database"
	"github.com/okoapay/c2b-console/internal/kafka"
	"github.com/okoapay/c2b-console/internal/logger"
	"github.com/okoapay/c2b-console/internal/redis"
	"github.com/okoapay/c2b-console/internal/transaction"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.New(cfg.Observability)
	defer loggerService.Shutdown()
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	log.Info().Msg("Starting Confirmation Worker...")

	db, err := database.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	redisClient, err := redis.New(&log, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis")
	}
	defer redisClient.Close()

	consumer, err := kafka.NewConsumer(kafka.DefaultConfig(cfg.Kafka.Brokers), &log, kafka.GroupConfirmationWorker, kafka.TopicConfirmationReceived)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize kafka consumer")
	}
	defer consumer.Close()

	txnRepo := transaction.NewTransactionRepository(db.Pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Run(ctx, confirmationHandler(txnRepo, redisStore{redisClient}, &log)); err != nil {
			log.Error().Err(err).Msg("Consumer stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down Confirmation Worker...")
	cancel()

	log.Info().Msg("Confirmation Worker shutdown complete")
}
