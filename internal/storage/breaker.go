package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerSettings configures the circuit breaker around a remote store.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// DefaultBreakerSettings returns the settings used when none are configured.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
	}
}

// BreakerStore wraps a Store with a circuit breaker. A missing key is a
// normal answer and does not count as a failure.
type BreakerStore struct {
	inner   Store
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps inner with a circuit breaker.
func NewBreakerStore(inner Store, settings BreakerSettings, logger *logrus.Logger) *BreakerStore {
	if logger == nil {
		logger = logrus.New()
	}
	defaults := DefaultBreakerSettings()
	if settings.MaxRequests == 0 {
		settings.MaxRequests = defaults.MaxRequests
	}
	if settings.Interval <= 0 {
		settings.Interval = defaults.Interval
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaults.Timeout
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Driver(),
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"store": name,
				"from":  from.String(),
				"to":    to.String(),
			}).Warn("Storage circuit breaker changed state")
		},
	})

	return &BreakerStore{inner: inner, breaker: cb}
}

func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.Get(ctx, key)
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return result.([]byte), nil
}

func (s *BreakerStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.inner.Put(ctx, key, value)
	})
	return s.wrap(err)
}

func (s *BreakerStore) Delete(ctx context.Context, key string) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.inner.Delete(ctx, key)
	})
	return s.wrap(err)
}

func (s *BreakerStore) Driver() string { return s.inner.Driver() }

// State reports the breaker state.
func (s *BreakerStore) State() gobreaker.State { return s.breaker.State() }

func (s *BreakerStore) Close() error { return s.inner.Close() }

func (s *BreakerStore) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s store unavailable: %w", s.inner.Driver(), err)
	}
	return err
}
