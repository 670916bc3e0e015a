package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tair/stockroom/internal/inventory/domain"
	"github.com/tair/stockroom/pkg/logger"
)

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"    // Normal operation
	StateOpen     CircuitState = "open"      // Failing fast
	StateHalfOpen CircuitState = "half-open" // Probing whether the store recovered
)

// halfOpenSuccesses closes a half-open circuit
const halfOpenSuccesses = 3

// CircuitBreaker trips after maxFailures consecutive remote failures and
// rejects calls until openTimeout has passed.
type CircuitBreaker struct {
	name            string
	maxFailures     int
	openTimeout     time.Duration
	state           CircuitState
	failures        int
	successCount    int
	lastFailureTime time.Time
	lastStateChange time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, maxFailures int, openTimeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	return &CircuitBreaker{
		name:            name,
		maxFailures:     maxFailures,
		openTimeout:     openTimeout,
		state:           StateClosed,
		lastStateChange: time.Now(),
		now:             time.Now,
	}
}

// Call runs fn unless the circuit is open. Only errors that are not part of
// the domain taxonomy (or are ErrRemoteUnavailable) count as failures.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen && cb.now().Sub(cb.lastStateChange) > cb.openTimeout {
		cb.state = StateHalfOpen
		cb.successCount = 0
		logger.Logger.Info().
			Str("circuit", cb.name).
			Msg("Circuit breaker transitioning to half-open")
	}
	currentState := cb.state
	cb.mu.Unlock()

	if currentState == StateOpen {
		return fmt.Errorf("circuit breaker is open for %s: %w", cb.name, domain.ErrRemoteUnavailable)
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if isRemoteFailure(err) {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	return err
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailureTime = cb.now()

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		cb.lastStateChange = cb.now()
		logger.Logger.Warn().
			Str("circuit", cb.name).
			Msg("Circuit breaker reopened after half-open failure")
	} else if cb.failures >= cb.maxFailures {
		cb.state = StateOpen
		cb.lastStateChange = cb.now()
		logger.Logger.Error().
			Str("circuit", cb.name).
			Int("failures", cb.failures).
			Int("threshold", cb.maxFailures).
			Msg("Circuit breaker opened")
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= halfOpenSuccesses {
			cb.state = StateClosed
			cb.failures = 0
			cb.successCount = 0
			cb.lastStateChange = cb.now()
			logger.Logger.Info().
				Str("circuit", cb.name).
				Msg("Circuit breaker closed after successful recovery")
		}
	case StateClosed:
		cb.failures = 0
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns circuit breaker statistics
func (cb *CircuitBreaker) Stats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"name":              cb.name,
		"state":             cb.state,
		"failures":          cb.failures,
		"max_failures":      cb.maxFailures,
		"last_failure_time": cb.lastFailureTime,
		"last_state_change": cb.lastStateChange,
	}
}

func isRemoteFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, domain.ErrRemoteUnavailable) || !domain.IsKnown(err)
}

// BreakerItemStore guards an ItemStore with a circuit breaker
type BreakerItemStore struct {
	next    domain.ItemStore
	breaker *CircuitBreaker
}

// NewBreakerItemStore creates a new store guarded by breaker
func NewBreakerItemStore(next domain.ItemStore, breaker *CircuitBreaker) *BreakerItemStore {
	return &BreakerItemStore{next: next, breaker: breaker}
}

func (s *BreakerItemStore) FetchAll(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	err := s.breaker.Call(func() (err error) {
		items, err = s.next.FetchAll(ctx)
		return err
	})
	return items, err
}

func (s *BreakerItemStore) Get(ctx context.Context, id string) (*domain.Item, error) {
	var item *domain.Item
	err := s.breaker.Call(func() (err error) {
		item, err = s.next.Get(ctx, id)
		return err
	})
	return item, err
}

func (s *BreakerItemStore) FindByName(ctx context.Context, name string) (*domain.Item, error) {
	var item *domain.Item
	err := s.breaker.Call(func() (err error) {
		item, err = s.next.FindByName(ctx, name)
		return err
	})
	return item, err
}

func (s *BreakerItemStore) Create(ctx context.Context, item *domain.Item) error {
	return s.breaker.Call(func() error {
		return s.next.Create(ctx, item)
	})
}

func (s *BreakerItemStore) SetStock(ctx context.Context, id string, stock int) (*domain.Item, error) {
	var item *domain.Item
	err := s.breaker.Call(func() (err error) {
		item, err = s.next.SetStock(ctx, id, stock)
		return err
	})
	return item, err
}

func (s *BreakerItemStore) CompareAndSetStock(ctx context.Context, id string, expected, stock int) (*domain.Item, bool, error) {
	var (
		item    *domain.Item
		swapped bool
	)
	err := s.breaker.Call(func() (err error) {
		item, swapped, err = s.next.CompareAndSetStock(ctx, id, expected, stock)
		return err
	})
	return item, swapped, err
}

func (s *BreakerItemStore) IncrementStock(ctx context.Context, id string, delta int) (*domain.Item, error) {
	var item *domain.Item
	err := s.breaker.Call(func() (err error) {
		item, err = s.next.IncrementStock(ctx, id, delta)
		return err
	})
	return item, err
}

func (s *BreakerItemStore) Delete(ctx context.Context, id string) error {
	return s.breaker.Call(func() error {
		return s.next.Delete(ctx, id)
	})
}
