package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okoapay/c2b-console/internal/kafka"
	"github.com/okoapay/c2b-console/internal/model"
	"github.com/rs/zerolog"
)

// maxPublishAttempts bounds how often a pending row is retried before it is
// parked as failed and left for an operator.
const maxPublishAttempts = 5

const (
	statusPending = "pending"
	statusFailed  = "failed"
)

// Publisher is the Kafka surface the relay needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Relay struct {
	db          *pgxpool.Pool
	kafkaClient Publisher
	logger      *zerolog.Logger
	batchSize   int
	interval    time.Duration
}

func NewRelay(db *pgxpool.Pool, kafkaClient Publisher, logger *zerolog.Logger) *Relay {
	return &Relay{
		db:          db,
		kafkaClient: kafkaClient,
		logger:      logger,
		batchSize:   100, // Process 100 events at a time
		interval:    10 * time.Second,
	}
}

func (r *Relay) Start(ctx context.Context) error {
	r.logger.Info().Msg("Starting Outbox Relay")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Stopping Outbox Relay")
			return nil
		case <-ticker.C:
			if err := r.processBatch(ctx); err != nil {
				r.logger.Error().Err(err).Msg("Failed to process batch")
			}
		}
	}
}

func (r *Relay) processBatch(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, event_type, payload, partition_key, retry_count
		FROM outbox_events
		WHERE status = 'pending'
		ORDER BY id ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batchSize)
	if err != nil {
		return err
	}

	var events []model.OutboxEvent
	for rows.Next() {
		var e model.OutboxEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.PartitionKey, &e.RetryCount); err != nil {
			rows.Close()
			return err
		}
		events = append(events, e)
	}
	rows.Close()

	if len(events) == 0 {
		return nil
	}

	r.logger.Info().Int("count", len(events)).Msg("Fetched outbox events")

	var processedIDs []int64
	for _, e := range events {
		topic := r.getTopicForEvent(e.EventType)
		err := r.kafkaClient.Publish(ctx, topic, []byte(e.PartitionKey), e.Payload)

		if err != nil {
			r.logger.Error().Err(err).Int64("event_id", e.ID).Str("event_type", e.EventType).Msg("Failed to publish event to Kafka")

			status := nextStatus(e.RetryCount + 1)
			if status == statusFailed {
				r.logger.Error().Int64("event_id", e.ID).Int("retry_count", e.RetryCount+1).Msg("Outbox event exhausted publish attempts")
			}
			_, uerr := tx.Exec(ctx, `
				UPDATE outbox_events
				SET retry_count = $2, last_error = $3, status = $4, updated_at = NOW()
				WHERE id = $1
			`, e.ID, e.RetryCount+1, err.Error(), status)
			if uerr != nil {
				return uerr
			}
			continue // Do not mark as processed
		}
		processedIDs = append(processedIDs, e.ID)
	}

	if len(processedIDs) > 0 {
		_, err = tx.Exec(ctx, `
			UPDATE outbox_events
			SET status = 'processed', updated_at = NOW()
			WHERE id = ANY($1)
		`, processedIDs)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// nextStatus decides where a row that just failed its attempt-th publish
// goes: back to pending for another pass, or failed for good once the
// attempt budget is spent.
func nextStatus(attempts int) string {
	if attempts >= maxPublishAttempts {
		return statusFailed
	}
	return statusPending
}

func (r *Relay) getTopicForEvent(eventType string) string {
	switch eventType {
	case kafka.EventConfirmationReceived:
		return kafka.TopicConfirmationReceived
	default:
		return kafka.TopicDLQ // Send unknown events to DLQ
	}
}
