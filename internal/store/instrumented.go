package store

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/metrics"
)

// Instrumented wraps a Store with operation metrics and, optionally, a circuit breaker.
type Instrumented struct {
	next    Store
	metrics *metrics.Metrics
	cb      *gobreaker.CircuitBreaker
}

// NewInstrumented wraps next. When withBreaker is set, three consecutive backend
// failures open the breaker for ten seconds and calls fail fast with gobreaker.ErrOpenState.
func NewInstrumented(next Store, m *metrics.Metrics, withBreaker bool) *Instrumented {
	s := &Instrumented{next: next, metrics: m}
	if withBreaker {
		s.cb = newBreaker("store", m)
	}
	return s
}

func newBreaker(name string, m *metrics.Metrics) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		Interval:    0,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			m.SetBreakerOpen(to == gobreaker.StateOpen)
		},
		// Domain outcomes mean the backend answered.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrAlreadyExists) ||
				errors.Is(err, ErrPermissionDenied) ||
				errors.Is(err, ErrConditionFailed) ||
				errors.Is(err, ErrInvalidPath) ||
				errors.Is(err, context.Canceled)
		},
	})
}

func (s *Instrumented) run(op, path string, fn func() (any, error)) (any, error) {
	start := time.Now()
	var (
		out any
		err error
	)
	if s.cb != nil {
		out, err = s.cb.Execute(fn)
	} else {
		out, err = fn()
	}
	s.metrics.RecordStoreOp(op, collectionOf(path), err, time.Since(start))
	return out, err
}

func (s *Instrumented) Get(ctx context.Context, path string) (*Document, error) {
	out, err := s.run("get", path, func() (any, error) {
		return s.next.Get(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return out.(*Document), nil
}

func (s *Instrumented) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	_, err := s.run("set", path, func() (any, error) {
		return nil, s.next.Set(ctx, path, data, merge)
	})
	return err
}

func (s *Instrumented) Create(ctx context.Context, path string, data map[string]any) error {
	_, err := s.run("create", path, func() (any, error) {
		return nil, s.next.Create(ctx, path, data)
	})
	return err
}

func (s *Instrumented) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	out, err := s.run("add", collection, func() (any, error) {
		return s.next.Add(ctx, collection, data)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (s *Instrumented) UpdateIf(ctx context.Context, path string, conds []Filter, data map[string]any) error {
	_, err := s.run("update_if", path, func() (any, error) {
		return nil, s.next.UpdateIf(ctx, path, conds, data)
	})
	return err
}

func (s *Instrumented) Delete(ctx context.Context, path string) error {
	_, err := s.run("delete", path, func() (any, error) {
		return nil, s.next.Delete(ctx, path)
	})
	return err
}

func (s *Instrumented) Query(ctx context.Context, collection string, q Query) ([]*Document, error) {
	out, err := s.run("query", collection, func() (any, error) {
		return s.next.Query(ctx, collection, q)
	})
	if err != nil {
		return nil, err
	}
	return out.([]*Document), nil
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}
