package transaction

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/okoapay/c2b-console/internal/middleware"
)

type TransactionHandler struct {
	service *TransactionService
}

func NewTransactionHandler(service *TransactionService) *TransactionHandler {
	return &TransactionHandler{
		service: service,
	}
}

// parseFilters reads ?date=YYYY-MM-DD and ?shortcode=<uuid>. A bad or missing
// date falls back to today, matching the daily-view default.
func parseFilters(r *http.Request) (time.Time, *uuid.UUID) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			day = parsed
		}
	}

	var shortcodeID *uuid.UUID
	if raw := r.URL.Query().Get("shortcode"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			shortcodeID = &id
		}
	}
	return day, shortcodeID
}

func (th *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	day, shortcodeID := parseFilters(r)

	rows, err := th.service.ListByDay(ctx, day, shortcodeID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list transactions")
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []Row{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"date":         day.Format("2006-01-02"),
		"transactions": rows,
	})
}

func (th *TransactionHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	day, shortcodeID := parseFilters(r)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="transactions_%s.csv"`, day.Format("2006-01-02")))

	if err := th.service.ExportCSV(ctx, w, day, shortcodeID); err != nil {
		// Headers are already out; all we can do is log.
		logger.Error().Err(err).Msg("Failed to export transactions CSV")
	}
}
