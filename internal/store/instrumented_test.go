package store

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairup/backend/internal/metrics"
)

type failingStore struct {
	*MemoryStore
	err error
}

func (f *failingStore) Get(ctx context.Context, path string) (*Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryStore.Get(ctx, path)
}

func TestInstrumented_PassesThrough(t *testing.T) {
	ctx := context.Background()
	s := NewInstrumented(NewMemoryStore(), metrics.New("test", prometheus.NewRegistry()), true)

	require.NoError(t, s.Set(ctx, "users/u1", map[string]any{"a": 1}, false))
	doc, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Data["a"])

	id, err := s.Add(ctx, "users/u1/ownEvents", map[string]any{})
	require.NoError(t, err)
	docs, err := s.Query(ctx, "users/u1/ownEvents", Query{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)
}

func TestInstrumented_NotFoundDoesNotTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInstrumented(NewMemoryStore(), nil, true)

	for i := 0; i < 5; i++ {
		_, err := s.Get(ctx, "users/missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, s.cb.State())
}

func TestInstrumented_BreakerOpensOnBackendFailures(t *testing.T) {
	ctx := context.Background()
	backend := &failingStore{MemoryStore: NewMemoryStore(), err: errors.New("unavailable")}
	s := NewInstrumented(backend, nil, true)

	for i := 0; i < 3; i++ {
		_, err := s.Get(ctx, "users/u1")
		assert.EqualError(t, err, "unavailable")
	}
	_, err := s.Get(ctx, "users/u1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestInstrumented_NoBreaker(t *testing.T) {
	ctx := context.Background()
	backend := &failingStore{MemoryStore: NewMemoryStore(), err: errors.New("unavailable")}
	s := NewInstrumented(backend, nil, false)

	for i := 0; i < 5; i++ {
		_, err := s.Get(ctx, "users/u1")
		assert.EqualError(t, err, "unavailable")
	}
}
