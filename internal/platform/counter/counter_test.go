package counter

import (
	"context"
	"sync"
	"testing"
)

func TestMemStoreStartsAtOne(t *testing.T) {
	s := NewMemStore()
	v, err := s.IncrementAndGet(context.Background(), "LAB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1 {
		t.Errorf("expected first increment to return 1, got %d", v)
	}
}

func TestMemStoreIndependentCounters(t *testing.T) {
	s := NewMemStore()
	s.IncrementAndGet(context.Background(), "LAB")
	s.IncrementAndGet(context.Background(), "LAB")
	v, _ := s.IncrementAndGet(context.Background(), "USG")
	if v != 1 {
		t.Errorf("expected USG to start at 1, got %d", v)
	}
	if s.Peek("LAB") != 2 {
		t.Errorf("expected LAB at 2, got %d", s.Peek("LAB"))
	}
}

func TestMemStoreConcurrentIncrements(t *testing.T) {
	s := NewMemStore()
	const n = 500
	var wg sync.WaitGroup
	seen := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := s.IncrementAndGet(context.Background(), "LAB")
			seen <- v
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		if unique[v] {
			t.Fatalf("duplicate counter value %d", v)
		}
		unique[v] = true
	}
	if len(unique) != n {
		t.Errorf("expected %d distinct values, got %d", n, len(unique))
	}
}
