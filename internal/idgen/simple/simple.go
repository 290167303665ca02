package simple

import (
	"context"
	"sync"
)

// Generator hands out increasing ids starting at 1. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	counter int64
}

func New() *Generator {
	//nolint:exhaustruct
	return &Generator{}
}

func (g *Generator) GetID(_ context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter++

	return g.counter, nil
}
