package transaction

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// listLimit caps the daily view; a busy paybill can see thousands of
// payments a day and the console is not a reporting tool.
const listLimit = 500

type TransactionService struct {
	repo TransactionRepository
}

func NewTransactionService(repo TransactionRepository) *TransactionService {
	return &TransactionService{
		repo: repo,
	}
}

func (ts *TransactionService) ListByDay(ctx context.Context, day time.Time, shortcodeID *uuid.UUID) ([]Row, error) {
	return ts.repo.ListByDay(ctx, day, shortcodeID, listLimit)
}

// ExportCSV streams the same daily view as CSV.
func (ts *TransactionService) ExportCSV(ctx context.Context, w io.Writer, day time.Time, shortcodeID *uuid.UUID) error {
	rows, err := ts.repo.ListByDay(ctx, day, shortcodeID, listLimit)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"shortcode", "trans_id", "amount", "msisdn", "bill_ref", "trans_time", "status", "created_at"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Shortcode,
			deref(row.TransID),
			formatAmount(row.Amount),
			deref(row.Msisdn),
			deref(row.BillRefNumber),
			formatTime(row.TransTime),
			row.Status,
			row.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// formatAmount renders minor units back into a decimal string.
func formatAmount(amount *int64) string {
	if amount == nil {
		return ""
	}
	units := *amount / 100
	cents := *amount % 100
	if cents < 0 {
		cents = -cents
	}
	return strconv.FormatInt(units, 10) + "." + fmt.Sprintf("%02d", cents)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
