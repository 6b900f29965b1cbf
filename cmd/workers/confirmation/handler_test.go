package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okoapay/c2b-console/internal/kafka"
	"github.com/okoapay/c2b-console/internal/model"
	"github.com/okoapay/c2b-console/internal/redis"
	"github.com/okoapay/c2b-console/internal/transaction"
	"github.com/okoapay/c2b-console/pkg/constants"
	"github.com/okoapay/c2b-console/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	keys     map[string]string
	locked   []string
	released int
	lockErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: make(map[string]string)}
}

func (f *fakeStore) SetIdempotencyKey(ctx context.Context, key string, ttl time.Duration) error {
	if _, ok := f.keys[key]; ok {
		return redis.ErrKeyExists
	}
	f.keys[key] = "pending"
	return nil
}

func (f *fakeStore) MarkIdempotencyComplete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	f.keys[key] = string(response)
	return nil
}

func (f *fakeStore) MarkIdempotencyFailed(ctx context.Context, key string) error {
	delete(f.keys, key)
	return nil
}

func (f *fakeStore) AcquireLock(ctx context.Context, key string, ttl time.Duration) (releaser, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.locked = append(f.locked, key)
	return fakeLock{store: f}, nil
}

type fakeLock struct {
	store *fakeStore
}

func (l fakeLock) Release(ctx context.Context) error {
	l.store.released++
	return nil
}

type fakeTxnRepo struct {
	txns []*model.Transaction
	err  error
}

func (f *fakeTxnRepo) Upsert(ctx context.Context, txn *model.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.txns = append(f.txns, txn)
	return nil
}

func (f *fakeTxnRepo) ListByDay(ctx context.Context, day time.Time, shortcodeID *uuid.UUID, limit int) ([]transaction.Row, error) {
	return nil, nil
}

func confirmationMessage(t *testing.T, shortcodeID, key, payload string) *kafka.Message {
	t.Helper()
	value, err := json.Marshal(types.ConfirmationReceived{
		ShortcodeID:    shortcodeID,
		IdempotencyKey: key,
		Payload:        []byte(payload),
	})
	require.NoError(t, err)
	return &kafka.Message{Topic: kafka.TopicConfirmationReceived, Value: value}
}

var nopLogger = zerolog.Nop()

func TestConfirmationHandlerAppliesPayment(t *testing.T) {
	repo := &fakeTxnRepo{}
	store := newFakeStore()
	handler := confirmationHandler(repo, store, &nopLogger)

	shortcodeID := uuid.New()
	payload := `{"TransID":"RKTQDM7W6S","TransAmount":"250.00","MSISDN":"254708374149"}`
	msg := confirmationMessage(t, shortcodeID.String(), "RKTQDM7W6S", payload)

	require.NoError(t, handler(context.Background(), msg))

	require.Len(t, repo.txns, 1)
	txn := repo.txns[0]
	assert.Equal(t, shortcodeID, txn.ShortcodeID)
	assert.Equal(t, constants.TxStatusConfirmed, txn.Status)
	require.NotNil(t, txn.TransID)
	assert.Equal(t, "RKTQDM7W6S", *txn.TransID)
	require.NotNil(t, txn.Amount)
	assert.Equal(t, int64(25000), *txn.Amount)

	assert.Equal(t, []string{"shortcode:" + shortcodeID.String()}, store.locked)
	assert.Equal(t, 1, store.released)
	assert.Equal(t, "done", store.keys["RKTQDM7W6S"])
}

func TestConfirmationHandlerSkipsDuplicate(t *testing.T) {
	repo := &fakeTxnRepo{}
	store := newFakeStore()
	store.keys["RKTQDM7W6S"] = "done"
	handler := confirmationHandler(repo, store, &nopLogger)

	msg := confirmationMessage(t, uuid.NewString(), "RKTQDM7W6S", `{"TransID":"RKTQDM7W6S"}`)

	require.NoError(t, handler(context.Background(), msg))
	assert.Empty(t, repo.txns)
	assert.Empty(t, store.locked)
}

func TestConfirmationHandlerRetriesOnUpsertFailure(t *testing.T) {
	repo := &fakeTxnRepo{err: errors.New("db down")}
	store := newFakeStore()
	handler := confirmationHandler(repo, store, &nopLogger)

	msg := confirmationMessage(t, uuid.NewString(), "RKTQDM7W6S", `{"TransID":"RKTQDM7W6S"}`)

	require.Error(t, handler(context.Background(), msg))
	// The key is cleared so a redelivery gets a clean run.
	assert.NotContains(t, store.keys, "RKTQDM7W6S")
	assert.Equal(t, 1, store.released)
}

func TestConfirmationHandlerRetriesOnLockFailure(t *testing.T) {
	repo := &fakeTxnRepo{}
	store := newFakeStore()
	store.lockErr = errors.New("lock already held")
	handler := confirmationHandler(repo, store, &nopLogger)

	msg := confirmationMessage(t, uuid.NewString(), "RKTQDM7W6S", `{"TransID":"RKTQDM7W6S"}`)

	require.Error(t, handler(context.Background(), msg))
	assert.Empty(t, repo.txns)
	assert.NotContains(t, store.keys, "RKTQDM7W6S")
}

func TestConfirmationHandlerRejectsBadMessages(t *testing.T) {
	repo := &fakeTxnRepo{}
	store := newFakeStore()
	handler := confirmationHandler(repo, store, &nopLogger)

	t.Run("malformed envelope", func(t *testing.T) {
		msg := &kafka.Message{Topic: kafka.TopicConfirmationReceived, Value: []byte(`{not json`)}
		require.Error(t, handler(context.Background(), msg))
	})

	t.Run("invalid shortcode id", func(t *testing.T) {
		msg := confirmationMessage(t, "not-a-uuid", "KEY1", `{}`)
		require.Error(t, handler(context.Background(), msg))
		assert.Empty(t, repo.txns)
	})

	t.Run("unparseable payload", func(t *testing.T) {
		msg := confirmationMessage(t, uuid.NewString(), "KEY2", `[1,2,3]`)
		require.Error(t, handler(context.Background(), msg))
		assert.NotContains(t, store.keys, "KEY2")
	})
}
