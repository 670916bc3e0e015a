package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stockroom/internal/inventory/domain"
)

type failingStore struct {
	domain.ItemStore
	err   error
	calls int
}

func (s *failingStore) Get(ctx context.Context, id string) (*domain.Item, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Item{ID: id, Name: "Burger"}, nil
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{err: errors.New("connection refused")}
	breaker := NewCircuitBreaker("test", 2, time.Minute)
	store := NewBreakerItemStore(inner, breaker)

	for i := 0; i < 2; i++ {
		_, err := store.Get(ctx, "a")
		require.Error(t, err)
	}
	assert.Equal(t, StateOpen, breaker.State())

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Equal(t, 2, inner.calls, "open circuit must not reach the store")
}

func TestCircuitBreaker_NotFoundIsNotAFailure(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{err: domain.ErrNotFound}
	breaker := NewCircuitBreaker("test", 1, time.Minute)
	store := NewBreakerItemStore(inner, breaker)

	for i := 0; i < 3; i++ {
		_, err := store.Get(ctx, "a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, StateClosed, breaker.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{err: errors.New("timeout")}
	breaker := NewCircuitBreaker("test", 1, time.Second)
	now := time.Now()
	breaker.now = func() time.Time { return now }
	store := NewBreakerItemStore(inner, breaker)

	_, err := store.Get(ctx, "a")
	require.Error(t, err)
	require.Equal(t, StateOpen, breaker.State())

	now = now.Add(2 * time.Second)
	inner.err = nil

	for i := 0; i < halfOpenSuccesses; i++ {
		_, err := store.Get(ctx, "a")
		require.NoError(t, err)
	}
	assert.Equal(t, StateClosed, breaker.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{err: errors.New("timeout")}
	breaker := NewCircuitBreaker("test", 1, time.Second)
	now := time.Now()
	breaker.now = func() time.Time { return now }
	store := NewBreakerItemStore(inner, breaker)

	_, _ = store.Get(ctx, "a")
	now = now.Add(2 * time.Second)

	_, err := store.Get(ctx, "a")
	require.Error(t, err)
	assert.Equal(t, StateOpen, breaker.State())
}
