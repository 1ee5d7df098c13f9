package testrun

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Gate is the bounded concurrency gate admitting row pipelines. Acquire
// suspends the caller until fewer than the fixed capacity of holders are
// active; Release hands the freed slot to the longest-waiting caller.
type Gate struct {
	capacity int64
	sem      *semaphore.Weighted
}

func newGate(capacity int64) *Gate {
	return &Gate{
		capacity: capacity,
		sem:      semaphore.NewWeighted(capacity),
	}
}

func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *Gate) Release() {
	g.sem.Release(1)
}

func (g *Gate) Capacity() int64 {
	return g.capacity
}

var (
	gatesMu sync.Mutex
	gates   = map[string]*Gate{}
)

// GateFor returns the process-wide gate for the given key, creating it with
// the given capacity on first lookup. Repeated lookups for one key share one
// gate; the capacity argument is ignored after the first. Entries are never
// evicted, so a long-lived process creating unbounded distinct run keys
// retains one gate per key.
func GateFor(key string, capacity int64) *Gate {
	gatesMu.Lock()
	defer gatesMu.Unlock()
	if gate, ok := gates[key]; ok {
		return gate
	}
	gate := newGate(capacity)
	gates[key] = gate
	return gate
}

func gateKey(workspaceID string, runName string, runID string) string {
	return fmt.Sprintf("%s:%s:%s", workspaceID, runName, runID)
}
