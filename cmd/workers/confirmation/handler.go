package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/okoapay/c2b-console/internal/kafka"
	"github.com/okoapay/c2b-console/internal/redis"
	"github.com/okoapay/c2b-console/internal/transaction"
	"github.com/okoapay/c2b-console/pkg/constants"
	"github.com/okoapay/c2b-console/pkg/types"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

type releaser interface {
	Release(ctx context.Context) error
}

// dedupeStore is the Redis surface the worker needs.
type dedupeStore interface {
	SetIdempotencyKey(ctx context.Context, key string, ttl time.Duration) error
	MarkIdempotencyComplete(ctx context.Context, key string, response []byte, ttl time.Duration) error
	MarkIdempotencyFailed(ctx context.Context, key string) error
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (releaser, error)
}

// redisStore adapts *redis.Client to dedupeStore; only AcquireLock needs
// wrapping for its return type.
type redisStore struct {
	*redis.Client
}

func (s redisStore) AcquireLock(ctx context.Context, key string, ttl time.Duration) (releaser, error) {
	return s.Client.AcquireLock(ctx, key, ttl)
}

// confirmationHandler applies a queued confirmation callback to the
// transactions table. Daraja retries callbacks and the relay may republish,
// so the handler is idempotent on the event's idempotency key.
func confirmationHandler(txnRepo transaction.TransactionRepository, store dedupeStore, log *zerolog.Logger) kafka.Handler {
	return func(ctx context.Context, msg *kafka.Message) error {
		log.Info().Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("Processing confirmation")

		var event types.ConfirmationReceived
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal confirmation message")
			return err
		}

		shortcodeID, err := uuid.Parse(event.ShortcodeID)
		if err != nil {
			log.Error().Err(err).Str("shortcode_id", event.ShortcodeID).Msg("Confirmation with invalid shortcode id")
			return err
		}

		if err := store.SetIdempotencyKey(ctx, event.IdempotencyKey, idempotencyTTL); err != nil {
			if errors.Is(err, redis.ErrKeyExists) {
				log.Info().Str("idempotency_key", event.IdempotencyKey).Msg("Confirmation already processed, skipping")
				return nil
			}
			log.Error().Err(err).Msg("Failed idempotency check")
			return err
		}

		// Serialize concurrent confirmations for the same shortcode so the
		// upsert never races with itself.
		lock, err := store.AcquireLock(ctx, "shortcode:"+event.ShortcodeID, 10*time.Second)
		if err != nil {
			log.Error().Err(err).Str("shortcode_id", event.ShortcodeID).Msg("Failed to acquire shortcode lock")
			store.MarkIdempotencyFailed(ctx, event.IdempotencyKey)
			return err // Retry later
		}
		defer lock.Release(ctx)

		dec := json.NewDecoder(bytes.NewReader(event.Payload))
		dec.UseNumber()
		var payload map[string]any
		if err := dec.Decode(&payload); err != nil {
			log.Error().Err(err).Msg("Failed to decode confirmation payload")
			store.MarkIdempotencyFailed(ctx, event.IdempotencyKey)
			return err
		}

		txn := transaction.FromPayload(shortcodeID, payload, event.Payload, constants.TxStatusConfirmed)
		if err := txnRepo.Upsert(ctx, txn); err != nil {
			log.Error().Err(err).Msg("Failed to upsert confirmed transaction")
			store.MarkIdempotencyFailed(ctx, event.IdempotencyKey)
			return err
		}

		if err := store.MarkIdempotencyComplete(ctx, event.IdempotencyKey, []byte("done"), idempotencyTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to mark idempotency key complete")
		}

		log.Info().
			Str("shortcode_id", event.ShortcodeID).
			Str("idempotency_key", event.IdempotencyKey).
			Msg("Confirmation applied")
		return nil
	}
}
