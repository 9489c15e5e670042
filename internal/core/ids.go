package core

import (
	"sync"
	"time"
)

// IDGenerator hands out creation-time ids (unix milliseconds). Ids generated
// within the same millisecond, as happens when a recurring backlog is
// expanded, are bumped so they stay unique and increasing.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// Seed makes sure future ids are greater than id.
func (g *IDGenerator) Seed(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

func (g *IDGenerator) Next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
