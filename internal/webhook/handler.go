package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/okoapay/c2b-console/internal/kafka"
	"github.com/okoapay/c2b-console/internal/middleware"
	"github.com/okoapay/c2b-console/internal/model"
	"github.com/okoapay/c2b-console/internal/transaction"
	"github.com/okoapay/c2b-console/pkg/constants"
	"github.com/okoapay/c2b-console/pkg/types"
)

// ShortcodeSource is the read surface the webhook handlers need.
type ShortcodeSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Shortcode, error)
	GetRule(ctx context.Context, shortcodeID uuid.UUID) (*model.ValidationRule, error)
}

// TransactionSink applies callback payloads to the transactions table.
type TransactionSink interface {
	Upsert(ctx context.Context, txn *model.Transaction) error
}

type WebhookHandler struct {
	shortcodes   ShortcodeSource
	transactions TransactionSink
	events       EventRepository

	trustProxyHeaders bool
}

func NewWebhookHandler(shortcodes ShortcodeSource, transactions TransactionSink, events EventRepository, trustProxyHeaders bool) *WebhookHandler {
	return &WebhookHandler{
		shortcodes:        shortcodes,
		transactions:      transactions,
		events:            events,
		trustProxyHeaders: trustProxyHeaders,
	}
}

// resolveShortcode enforces the token gate. A missing shortcode, an inactive
// one, and a wrong token all produce the same 404 so the URL space leaks
// nothing about which shortcodes exist.
func (h *WebhookHandler) resolveShortcode(w http.ResponseWriter, r *http.Request) *model.Shortcode {
	notFound := func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Not found"})
	}

	id, err := uuid.Parse(chi.URLParam(r, "shortcodeID"))
	if err != nil {
		notFound()
		return nil
	}

	sc, err := h.shortcodes.GetByID(r.Context(), id)
	if err != nil || sc == nil || !sc.IsActive {
		notFound()
		return nil
	}

	token := chi.URLParam(r, "token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(sc.WebhookToken)) != 1 {
		notFound()
		return nil
	}
	return sc
}

// parsePayload decodes the body into a JSON object, preserving numeric
// precision (Daraja sends amounts both as strings and as numbers).
func parsePayload(r *http.Request) (map[string]any, []byte, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, raw, err
	}
	// A literal null decodes into a nil map without error.
	if payload == nil {
		return nil, raw, errors.New("payload is not a JSON object")
	}
	if dec.More() {
		return nil, raw, errors.New("trailing data after JSON object")
	}
	return payload, raw, nil
}

func writeResult(w http.ResponseWriter, code int, desc string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(types.CallbackResult{ResultCode: code, ResultDesc: desc})
}

func (h *WebhookHandler) sourceIP(r *http.Request) string {
	if h.trustProxyHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// First entry is the original client in standard XFF.
			return strings.TrimSpace(strings.Split(xff, ",")[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *WebhookHandler) buildEvent(r *http.Request, sc *model.Shortcode, eventType string, payload map[string]any, raw []byte) *model.IncomingEvent {
	headers, _ := json.Marshal(r.Header)
	return &model.IncomingEvent{
		ID:             uuid.New(),
		ShortcodeID:    sc.ID,
		EventType:      eventType,
		IdempotencyKey: model.MakeIdempotencyKey(payload),
		Payload:        raw,
		Headers:        headers,
		SourceIP:       h.sourceIP(r),
	}
}

// HandleValidation answers Daraja's pre-payment check synchronously: the
// verdict has to go back in this response.
func (h *WebhookHandler) HandleValidation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	sc := h.resolveShortcode(w, r)
	if sc == nil {
		return
	}

	payload, raw, err := parsePayload(r)
	if err != nil {
		logger.Warn().Err(err).Msg("Validation callback with invalid JSON")
		writeResult(w, 1, "Rejected: invalid JSON")
		return
	}

	event := h.buildEvent(r, sc, constants.EventTypeValidation, payload, raw)
	if err := h.events.RecordEvent(ctx, event); err != nil {
		logger.Error().Err(err).Msg("Failed to record validation event")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	rule, err := h.shortcodes.GetRule(ctx, sc.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load validation rule")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	accepted, desc := EvaluateRule(rule, payload)
	status := constants.TxStatusPending
	code := 0
	if !accepted {
		status = constants.TxStatusRejected
		code = 1
	}

	if err := h.transactions.Upsert(ctx, transaction.FromPayload(sc.ID, payload, raw, status)); err != nil {
		logger.Error().Err(err).Msg("Failed to upsert transaction from validation")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	logger.Info().
		Str("shortcode", sc.Shortcode).
		Bool("accepted", accepted).
		Msg("Validation callback processed")
	writeResult(w, code, desc)
}

// HandleConfirmation persists the event plus an outbox row in one DB
// transaction and acks immediately; the relay and worker apply the payment.
func (h *WebhookHandler) HandleConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	sc := h.resolveShortcode(w, r)
	if sc == nil {
		return
	}

	payload, raw, err := parsePayload(r)
	if err != nil {
		logger.Warn().Err(err).Msg("Confirmation callback with invalid JSON")
		writeResult(w, 1, "Rejected: invalid JSON")
		return
	}

	event := h.buildEvent(r, sc, constants.EventTypeConfirmation, payload, raw)

	outboxPayload, err := json.Marshal(types.ConfirmationReceived{
		ShortcodeID:    sc.ID.String(),
		IdempotencyKey: event.IdempotencyKey,
		Payload:        raw,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal confirmation outbox payload")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	outboxEvent := &model.OutboxEvent{
		EventType:     kafka.EventConfirmationReceived,
		Payload:       outboxPayload,
		PartitionKey:  sc.ID.String(),
		CorrelationID: middleware.GetRequestIDFromContext(ctx),
	}

	if err := h.events.RecordEventWithOutbox(ctx, event, outboxEvent); err != nil {
		logger.Error().Err(err).Msg("Failed to record confirmation event")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	logger.Info().
		Str("shortcode", sc.Shortcode).
		Str("idempotency_key", event.IdempotencyKey).
		Msg("Confirmation callback queued")
	writeResult(w, 0, "Accepted")
}
