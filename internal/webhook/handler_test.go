package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/okoapay/c2b-console/internal/kafka"
	"github.com/okoapay/c2b-console/internal/model"
	"github.com/okoapay/c2b-console/pkg/constants"
	"github.com/okoapay/c2b-console/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShortcodes struct {
	sc   *model.Shortcode
	rule *model.ValidationRule
}

func (f *fakeShortcodes) GetByID(ctx context.Context, id uuid.UUID) (*model.Shortcode, error) {
	if f.sc != nil && f.sc.ID == id {
		return f.sc, nil
	}
	return nil, errors.New("shortcode not found")
}

func (f *fakeShortcodes) GetRule(ctx context.Context, shortcodeID uuid.UUID) (*model.ValidationRule, error) {
	return f.rule, nil
}

type fakeSink struct {
	txns []*model.Transaction
}

func (f *fakeSink) Upsert(ctx context.Context, txn *model.Transaction) error {
	f.txns = append(f.txns, txn)
	return nil
}

type fakeEvents struct {
	events []*model.IncomingEvent
	outbox []*model.OutboxEvent
}

func (f *fakeEvents) RecordEvent(ctx context.Context, event *model.IncomingEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) RecordEventWithOutbox(ctx context.Context, event *model.IncomingEvent, outbox *model.OutboxEvent) error {
	f.events = append(f.events, event)
	f.outbox = append(f.outbox, outbox)
	return nil
}

func newTestShortcode() *model.Shortcode {
	return &model.Shortcode{
		ID:           uuid.New(),
		Name:         "Test Till",
		Shortcode:    "600999",
		Type:         constants.ShortcodeTypeTill,
		WebhookToken: strings.Repeat("ab", 32),
		IsActive:     true,
	}
}

func newTestRouter(h *WebhookHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/webhooks/c2b/{shortcodeID}/{token}", func(r chi.Router) {
		r.Post("/validation", h.HandleValidation)
		r.Post("/confirmation", h.HandleConfirmation)
	})
	return r
}

func postWebhook(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = "196.201.214.200:44552"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) types.CallbackResult {
	t.Helper()
	var result types.CallbackResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestWebhookTokenGate(t *testing.T) {
	sc := newTestShortcode()
	shortcodes := &fakeShortcodes{sc: sc}
	h := NewWebhookHandler(shortcodes, &fakeSink{}, &fakeEvents{}, false)
	r := newTestRouter(h)

	payload := `{"TransID":"RKTQDM7W6S"}`

	t.Run("unknown shortcode", func(t *testing.T) {
		rec := postWebhook(t, r, "/webhooks/c2b/"+uuid.NewString()+"/"+sc.WebhookToken+"/validation", payload)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"detail":"Not found"}`, rec.Body.String())
	})

	t.Run("malformed shortcode id", func(t *testing.T) {
		rec := postWebhook(t, r, "/webhooks/c2b/not-a-uuid/"+sc.WebhookToken+"/validation", payload)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		rec := postWebhook(t, r, "/webhooks/c2b/"+sc.ID.String()+"/"+strings.Repeat("cd", 32)+"/confirmation", payload)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"detail":"Not found"}`, rec.Body.String())
	})

	t.Run("inactive shortcode", func(t *testing.T) {
		inactive := newTestShortcode()
		inactive.IsActive = false
		h := NewWebhookHandler(&fakeShortcodes{sc: inactive}, &fakeSink{}, &fakeEvents{}, false)
		rec := postWebhook(t, newTestRouter(h), "/webhooks/c2b/"+inactive.ID.String()+"/"+inactive.WebhookToken+"/validation", payload)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleValidation(t *testing.T) {
	t.Run("accepts without a rule", func(t *testing.T) {
		sc := newTestShortcode()
		sink := &fakeSink{}
		events := &fakeEvents{}
		h := NewWebhookHandler(&fakeShortcodes{sc: sc}, sink, events, false)
		r := newTestRouter(h)

		body := `{"TransID":"RKTQDM7W6S","TransAmount":"100.00","MSISDN":"254708374149","BillRefNumber":"INV-1"}`
		rec := postWebhook(t, r, "/webhooks/c2b/"+sc.ID.String()+"/"+sc.WebhookToken+"/validation", body)

		assert.Equal(t, http.StatusOK, rec.Code)
		result := decodeResult(t, rec)
		assert.Equal(t, 0, result.ResultCode)
		assert.Equal(t, "Accepted", result.ResultDesc)

		require.Len(t, events.events, 1)
		assert.Equal(t, constants.EventTypeValidation, events.events[0].EventType)
		assert.Equal(t, "RKTQDM7W6S", events.events[0].IdempotencyKey)
		assert.Equal(t, "196.201.214.200", events.events[0].SourceIP)

		require.Len(t, sink.txns, 1)
		txn := sink.txns[0]
		assert.Equal(t, constants.TxStatusPending, txn.Status)
		require.NotNil(t, txn.TransID)
		assert.Equal(t, "RKTQDM7W6S", *txn.TransID)
		require.NotNil(t, txn.Amount)
		assert.Equal(t, int64(10000), *txn.Amount)
	})

	t.Run("rejects on rule and records the rejection", func(t *testing.T) {
		sc := newTestShortcode()
		sink := &fakeSink{}
		events := &fakeEvents{}
		min := int64(50000)
		h := NewWebhookHandler(&fakeShortcodes{sc: sc, rule: &model.ValidationRule{MinAmount: &min}}, sink, events, false)
		r := newTestRouter(h)

		body := `{"TransID":"RKTQDM7W6T","TransAmount":"100.00"}`
		rec := postWebhook(t, r, "/webhooks/c2b/"+sc.ID.String()+"/"+sc.WebhookToken+"/validation", body)

		assert.Equal(t, http.StatusOK, rec.Code)
		result := decodeResult(t, rec)
		assert.Equal(t, 1, result.ResultCode)
		assert.Equal(t, "Rejected: amount below minimum", result.ResultDesc)

		require.Len(t, sink.txns, 1)
		assert.Equal(t, constants.TxStatusRejected, sink.txns[0].Status)
		// The event is logged even for rejected payments.
		assert.Len(t, events.events, 1)
	})

	t.Run("invalid JSON is acknowledged with a rejection", func(t *testing.T) {
		sc := newTestShortcode()
		sink := &fakeSink{}
		events := &fakeEvents{}
		h := NewWebhookHandler(&fakeShortcodes{sc: sc}, sink, events, false)
		r := newTestRouter(h)

		for _, body := range []string{
			`{not json`,
			`null`,
			`[1,2,3]`,
			`"a string"`,
			`{"TransID":"RKTQDM7W6S"} trailing`,
			`{}{}`,
		} {
			rec := postWebhook(t, r, "/webhooks/c2b/"+sc.ID.String()+"/"+sc.WebhookToken+"/validation", body)

			assert.Equal(t, http.StatusOK, rec.Code, "body %q", body)
			result := decodeResult(t, rec)
			assert.Equal(t, 1, result.ResultCode, "body %q", body)
			assert.Equal(t, "Rejected: invalid JSON", result.ResultDesc, "body %q", body)
		}
		assert.Empty(t, sink.txns)
		assert.Empty(t, events.events)
	})

	t.Run("empty body is treated as an empty object", func(t *testing.T) {
		sc := newTestShortcode()
		sink := &fakeSink{}
		h := NewWebhookHandler(&fakeShortcodes{sc: sc}, sink, &fakeEvents{}, false)
		r := newTestRouter(h)

		rec := postWebhook(t, r, "/webhooks/c2b/"+sc.ID.String()+"/"+sc.WebhookToken+"/validation", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, decodeResult(t, rec).ResultCode)
		require.Len(t, sink.txns, 1)
		assert.Nil(t, sink.txns[0].TransID)
	})
}

func TestHandleConfirmation(t *testing.T) {
	sc := newTestShortcode()
	sink := &fakeSink{}
	events := &fakeEvents{}
	h := NewWebhookHandler(&fakeShortcodes{sc: sc}, sink, events, false)
	r := newTestRouter(h)

	body := `{"TransID":"RKTQDM7W6S","TransAmount":"250.00","MSISDN":"254708374149"}`
	rec := postWebhook(t, r, "/webhooks/c2b/"+sc.ID.String()+"/"+sc.WebhookToken+"/confirmation", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, 0, result.ResultCode)
	assert.Equal(t, "Accepted", result.ResultDesc)

	// Confirmations are applied asynchronously: no direct upsert, the event
	// and its outbox row go out in one transaction instead.
	assert.Empty(t, sink.txns)
	require.Len(t, events.events, 1)
	assert.Equal(t, constants.EventTypeConfirmation, events.events[0].EventType)

	require.Len(t, events.outbox, 1)
	outbox := events.outbox[0]
	assert.Equal(t, kafka.EventConfirmationReceived, outbox.EventType)
	assert.Equal(t, sc.ID.String(), outbox.PartitionKey)

	var queued types.ConfirmationReceived
	require.NoError(t, json.Unmarshal(outbox.Payload, &queued))
	assert.Equal(t, sc.ID.String(), queued.ShortcodeID)
	assert.Equal(t, "RKTQDM7W6S", queued.IdempotencyKey)
	assert.JSONEq(t, body, string(queued.Payload))
}

func TestSourceIPWithProxyHeaders(t *testing.T) {
	sc := newTestShortcode()
	events := &fakeEvents{}
	h := NewWebhookHandler(&fakeShortcodes{sc: sc}, &fakeSink{}, events, true)
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/c2b/"+sc.ID.String()+"/"+sc.WebhookToken+"/validation", strings.NewReader(`{}`))
	req.RemoteAddr = "10.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "196.201.214.200, 10.0.0.1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, events.events, 1)
	assert.Equal(t, "196.201.214.200", events.events[0].SourceIP)
}
