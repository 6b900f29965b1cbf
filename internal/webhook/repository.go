package webhook

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okoapay/c2b-console/internal/model"
)

type EventRepository interface {
	RecordEvent(ctx context.Context, event *model.IncomingEvent) error
	RecordEventWithOutbox(ctx context.Context, event *model.IncomingEvent, outbox *model.OutboxEvent) error
}

type EventRepo struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepo {
	return &EventRepo{db: db}
}

const insertEventSQL = `INSERT INTO c2b_events
	(id, shortcode_id, event_type, idempotency_key, payload, headers, source_ip)
	VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))`

func (r *EventRepo) RecordEvent(ctx context.Context, event *model.IncomingEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, insertEventSQL,
		event.ID,
		event.ShortcodeID,
		event.EventType,
		event.IdempotencyKey,
		event.Payload,
		event.Headers,
		event.SourceIP,
	)
	if err != nil {
		return fmt.Errorf("failed to record incoming event: %w", err)
	}
	return nil
}

// RecordEventWithOutbox writes the event log row and the outbox row in one
// transaction, so a confirmation is either fully queued or not at all.
func (r *EventRepo) RecordEventWithOutbox(ctx context.Context, event *model.IncomingEvent, outbox *model.OutboxEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertEventSQL,
		event.ID,
		event.ShortcodeID,
		event.EventType,
		event.IdempotencyKey,
		event.Payload,
		event.Headers,
		event.SourceIP,
	)
	if err != nil {
		return fmt.Errorf("failed to record incoming event: %w", err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox_events (event_type, payload, partition_key, correlation_id, status)
		VALUES ($1, $2, $3, $4, 'pending')`,
		outbox.EventType,
		outbox.Payload,
		outbox.PartitionKey,
		outbox.CorrelationID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return tx.Commit(ctx)
}
