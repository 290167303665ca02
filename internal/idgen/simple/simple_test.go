package simple

import (
	"context"
	"sync"
	"testing"
)

func TestGetIDUniqueUnderConcurrency(t *testing.T) {
	g := New()

	const workers = 50

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]struct{}, workers)
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			id, err := g.GetID(context.Background())
			if err != nil {
				t.Errorf("GetID: %v", err)

				return
			}

			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(ids) != workers {
		t.Fatalf("got %d unique ids, want %d", len(ids), workers)
	}

	if _, ok := ids[0]; ok {
		t.Fatal("ids must start at 1")
	}
}
