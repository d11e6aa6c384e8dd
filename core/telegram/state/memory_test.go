package state

import (
	"sync"
	"sync/atomic"
	"testing"
)

type counter struct{ n atomic.Int32 }

func TestMemoryStoreCreatesOncePerUser(t *testing.T) {
	var created atomic.Int32
	s := NewMemoryStore(func(int64) *counter { created.Add(1); return &counter{} })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Get(1).n.Add(1)
		}()
	}
	wg.Wait()

	if got := s.Get(1).n.Load(); got != 50 {
		t.Fatalf("n = %d, want 50", got)
	}
	if created.Load() != 1 {
		t.Fatalf("created = %d, want 1", created.Load())
	}
}

func TestMemoryStoreLenAndRange(t *testing.T) {
	s := NewMemoryStore(func(int64) *counter { return &counter{} })
	s.Get(9)
	s.Get(10)
	s.Get(9)
	if s.Len() != 2 {
		t.Fatalf("len = %d", s.Len())
	}

	seen := 0
	s.Range(func(int64, *counter) bool { seen++; return false })
	if seen != 1 {
		t.Fatalf("range visited %d after stop", seen)
	}
}
