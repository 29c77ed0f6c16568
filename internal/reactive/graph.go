package reactive

import (
	"context"
	"strings"
	"sync"

	"github.com/vk/formweave/internal/ctxlog"
)

// maxFlushPasses bounds dirty-propagation to stop runaway invalidation
// cycles between mutually dependent computed fields.
const maxFlushPasses = 100

// Computation is one registered computed evaluation: a stable id, the
// statically extracted read-set (source keys), and the re-evaluation
// function. Run always executes on the graph's queue.
type Computation struct {
	ID    string
	Reads []string
	Run   func(ctx context.Context)
}

// Graph tracks which computations read which source keys and re-runs
// dependents after writes. Source keys are engine-chosen strings such as
// "data:price"; a key ending in ":" subscribes to every key of that prefix.
type Graph struct {
	queue *Queue

	mu         sync.Mutex
	comps      map[string]Computation
	dependents map[string]map[string]struct{}
	wildcards  map[string]map[string]struct{}
	dirty      []string
	dirtySet   map[string]struct{}
	flushing   bool
}

// NewGraph creates a graph flushing on the given queue.
func NewGraph(queue *Queue) *Graph {
	return &Graph{
		queue:      queue,
		comps:      map[string]Computation{},
		dependents: map[string]map[string]struct{}{},
		wildcards:  map[string]map[string]struct{}{},
		dirtySet:   map[string]struct{}{},
	}
}

// Queue exposes the underlying task queue.
func (g *Graph) Queue() *Queue { return g.queue }

// Register installs or replaces a computation. The previous read-set of a
// replaced computation is discarded.
func (g *Graph) Register(c Computation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(c.ID)
	g.comps[c.ID] = c
	for _, read := range c.Reads {
		bucket := g.dependents
		if strings.HasSuffix(read, ":") {
			bucket = g.wildcards
		}
		if bucket[read] == nil {
			bucket[read] = map[string]struct{}{}
		}
		bucket[read][c.ID] = struct{}{}
	}
}

// Unregister removes a computation and its subscriptions.
func (g *Graph) Unregister(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(id)
}

func (g *Graph) removeLocked(id string) {
	old, ok := g.comps[id]
	if !ok {
		return
	}
	delete(g.comps, id)
	for _, read := range old.Reads {
		delete(g.dependents[read], id)
		delete(g.wildcards[read], id)
	}
	delete(g.dirtySet, id)
}

// Invalidate marks every computation reading the source key dirty and
// schedules a flush on the queue. Safe to call from queue tasks; the flush
// runs as its own task, never inline.
func (g *Graph) Invalidate(ctx context.Context, sourceKey string) {
	g.mu.Lock()
	for id := range g.dependents[sourceKey] {
		g.markDirtyLocked(id)
	}
	for prefix, ids := range g.wildcards {
		if strings.HasPrefix(sourceKey, prefix) {
			for id := range ids {
				g.markDirtyLocked(id)
			}
		}
	}
	scheduled := g.scheduleFlushLocked(ctx)
	g.mu.Unlock()
	_ = scheduled
}

// Schedule marks a single computation dirty regardless of its read-set,
// used for the deferred first evaluation of computed fields.
func (g *Graph) Schedule(ctx context.Context, id string) {
	g.mu.Lock()
	g.markDirtyLocked(id)
	g.scheduleFlushLocked(ctx)
	g.mu.Unlock()
}

func (g *Graph) markDirtyLocked(id string) {
	if _, already := g.dirtySet[id]; already {
		return
	}
	if _, exists := g.comps[id]; !exists {
		return
	}
	g.dirtySet[id] = struct{}{}
	g.dirty = append(g.dirty, id)
}

func (g *Graph) scheduleFlushLocked(ctx context.Context) bool {
	if g.flushing || len(g.dirty) == 0 {
		return false
	}
	g.flushing = true
	g.queue.Enqueue(func() { g.flush(ctx) })
	return true
}

// flush drains the dirty set, re-running computations until it stabilizes
// or the pass budget is exhausted.
func (g *Graph) flush(ctx context.Context) {
	for pass := 0; ; pass++ {
		g.mu.Lock()
		if len(g.dirty) == 0 {
			g.flushing = false
			g.mu.Unlock()
			return
		}
		if pass >= maxFlushPasses {
			count := len(g.dirty)
			g.dirty = nil
			g.dirtySet = map[string]struct{}{}
			g.flushing = false
			g.mu.Unlock()
			ctxlog.FromContext(ctx).Warn("Reactive flush did not stabilize; dropping remaining dirty computations.",
				"dropped", count, "passes", maxFlushPasses)
			return
		}
		batch := g.dirty
		g.dirty = nil
		g.dirtySet = map[string]struct{}{}
		runs := make([]Computation, 0, len(batch))
		for _, id := range batch {
			if c, ok := g.comps[id]; ok {
				runs = append(runs, c)
			}
		}
		g.mu.Unlock()

		for _, c := range runs {
			c.Run(ctx)
		}
	}
}
