package counter

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a named atomic counter service. Counters are created on first use
// starting at 0, so the first IncrementAndGet for a name returns 1.
type Store interface {
	IncrementAndGet(ctx context.Context, name string) (int64, error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a Store backed by the counters table. The increment is a
// single upsert statement, so concurrent callers never observe the same value.
func NewPGStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) IncrementAndGet(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	return value, nil
}

// MemStore is an in-memory Store for tests and local development.
type MemStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]int64)}
}

func (s *MemStore) IncrementAndGet(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name]++
	return s.values[name], nil
}

// Peek returns the current value of a counter without incrementing it.
func (s *MemStore) Peek(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[name]
}
