package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okoapay/c2b-console/internal/model"
)

// Row is a transaction joined with its shortcode number for display/export.
type Row struct {
	model.Transaction
	Shortcode string `json:"shortcode"`
}

type TransactionRepository interface {
	Upsert(ctx context.Context, txn *model.Transaction) error
	ListByDay(ctx context.Context, day time.Time, shortcodeID *uuid.UUID, limit int) ([]Row, error)
}

type TransactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{
		db: db,
	}
}

// Upsert applies a callback payload to the transactions table. With a
// transaction id the row is deduplicated on (shortcode_id, trans_id); without
// one there is nothing safe to dedupe on, so a fresh row is inserted.
func (tr *TransactionRepo) Upsert(ctx context.Context, txn *model.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	if txn.TransID == nil || *txn.TransID == "" {
		sql := `INSERT INTO c2b_transactions
			(id, shortcode_id, trans_id, trans_time, amount, msisdn, bill_ref_number,
			 first_name, middle_name, last_name, status, raw_last_payload)
			VALUES ($1, $2, NULL, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err := tr.db.Exec(ctx, sql,
			txn.ID,
			txn.ShortcodeID,
			txn.TransTime,
			txn.Amount,
			txn.Msisdn,
			txn.BillRefNumber,
			txn.FirstName,
			txn.MiddleName,
			txn.LastName,
			txn.Status,
			txn.RawPayload,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		return nil
	}

	sql := `INSERT INTO c2b_transactions
		(id, shortcode_id, trans_id, trans_time, amount, msisdn, bill_ref_number,
		 first_name, middle_name, last_name, status, raw_last_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (shortcode_id, trans_id) WHERE trans_id IS NOT NULL DO UPDATE
		SET trans_time = EXCLUDED.trans_time,
			amount = EXCLUDED.amount,
			msisdn = EXCLUDED.msisdn,
			bill_ref_number = EXCLUDED.bill_ref_number,
			first_name = EXCLUDED.first_name,
			middle_name = EXCLUDED.middle_name,
			last_name = EXCLUDED.last_name,
			status = EXCLUDED.status,
			raw_last_payload = EXCLUDED.raw_last_payload,
			updated_at = NOW()`
	_, err := tr.db.Exec(ctx, sql,
		txn.ID,
		txn.ShortcodeID,
		txn.TransID,
		txn.TransTime,
		txn.Amount,
		txn.Msisdn,
		txn.BillRefNumber,
		txn.FirstName,
		txn.MiddleName,
		txn.LastName,
		txn.Status,
		txn.RawPayload,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}

// ListByDay returns the daily view: trans_time's date when present, falling
// back to created_at's date for rows Daraja never timestamped.
func (tr *TransactionRepo) ListByDay(ctx context.Context, day time.Time, shortcodeID *uuid.UUID, limit int) ([]Row, error) {
	sql := `SELECT t.id, t.shortcode_id, s.shortcode, t.trans_id, t.trans_time, t.amount,
			t.msisdn, t.bill_ref_number, t.first_name, t.middle_name, t.last_name,
			t.status, t.created_at, t.updated_at
		FROM c2b_transactions t
		JOIN shortcodes s ON s.id = t.shortcode_id
		WHERE (t.trans_time::date = $1 OR (t.trans_time IS NULL AND t.created_at::date = $1))
			AND ($2::uuid IS NULL OR t.shortcode_id = $2)
		ORDER BY t.created_at DESC
		LIMIT $3`

	rows, err := tr.db.Query(ctx, sql, day, shortcodeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(
			&row.ID,
			&row.ShortcodeID,
			&row.Shortcode,
			&row.TransID,
			&row.TransTime,
			&row.Amount,
			&row.Msisdn,
			&row.BillRefNumber,
			&row.FirstName,
			&row.MiddleName,
			&row.LastName,
			&row.Status,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
