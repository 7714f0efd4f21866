// Package pathcache memoizes shortest cell paths over the terrain. Entries
// live until the terrain or graph obstruction state changes, then the whole
// cache is dropped: route-specific invalidation is not tracked.
package pathcache

import (
	"container/heap"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/anvoron/tacmap/internal/core"
	"github.com/anvoron/tacmap/internal/region"
	"github.com/anvoron/tacmap/internal/terrain"
)

// ErrNoPath is returned when no walkable route exists between two cells.
var ErrNoPath = errors.New("pathcache: no path")

type key struct {
	from, to core.Cell
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// Cache computes and stores shortest paths keyed by the ordered
// (origin, destination) pair. A path A to B is never reused for B to A.
type Cache struct {
	t      *terrain.Terrain
	g      *region.Graph
	logger *log.Logger

	entries map[key][]core.Cell
	hits    uint64
	misses  uint64

	terrainGen uint64
	graphGen   uint64
}

// New returns an empty cache bound to the terrain and graph whose obstruction
// generations it watches.
func New(t *terrain.Terrain, g *region.Graph, logger *log.Logger) *Cache {
	return &Cache{
		t:          t,
		g:          g,
		logger:     logger,
		entries:    make(map[key][]core.Cell),
		terrainGen: t.Generation(),
		graphGen:   g.Generation(),
	}
}

// Path returns the shortest walkable path between two cells, endpoints
// included, computing and storing it on first request. The returned slice is
// the caller's to keep.
func (c *Cache) Path(from, to core.Cell) ([]core.Cell, error) {
	c.checkGeneration()

	if !c.t.Passable(from) || !c.t.Passable(to) {
		return nil, fmt.Errorf("pathcache: endpoint not passable (from %v to %v): %w", from, to, ErrNoPath)
	}

	k := key{from, to}
	if p, ok := c.entries[k]; ok {
		c.hits++
		return slices.Clone(p), nil
	}
	c.misses++

	p := c.search(from, to)
	if p == nil {
		c.logger.Debug("no route between cells", "from", from, "to", to)
		return nil, fmt.Errorf("pathcache: from %v to %v: %w", from, to, ErrNoPath)
	}
	c.entries[k] = p
	return slices.Clone(p), nil
}

// Warm precomputes paths for a batch of cell pairs, returning how many
// resolved. Failures are skipped; Warm is a convenience, not a contract.
func (c *Cache) Warm(pairs [][2]core.Cell) int {
	n := 0
	for _, pair := range pairs {
		if _, err := c.Path(pair[0], pair[1]); err == nil {
			n++
		}
	}
	return n
}

// Invalidate drops every stored path. Statistics survive.
func (c *Cache) Invalidate() {
	if len(c.entries) > 0 {
		c.logger.Debug("path cache invalidated", "dropped", len(c.entries))
	}
	c.entries = make(map[key][]core.Cell)
}

// Stats returns the current hit/miss counters and entry count.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}

// checkGeneration drops the cache when the terrain or graph obstruction
// state moved since the last lookup.
func (c *Cache) checkGeneration() {
	tg, gg := c.t.Generation(), c.g.Generation()
	if tg != c.terrainGen || gg != c.graphGen {
		c.terrainGen, c.graphGen = tg, gg
		c.Invalidate()
	}
}

// search runs A* over 4-connected passable cells with a Euclidean heuristic.
// Equal priorities resolve by insertion order, keeping the result stable.
func (c *Cache) search(from, to core.Cell) []core.Cell {
	if from == to {
		return []core.Cell{from}
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &node{cell: from, cost: 0, priority: from.Dist(to)})

	costs := map[core.Cell]float64{from: 0}
	cameFrom := map[core.Cell]core.Cell{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.cell == to {
			return rebuild(cameFrom, from, to)
		}
		if cur.cost > costs[cur.cell] {
			continue // stale entry superseded by a cheaper visit
		}
		for _, d := range [4]core.Cell{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
			next := core.C(cur.cell.X+d.X, cur.cell.Y+d.Y)
			if !c.t.Passable(next) {
				continue
			}
			cost := cur.cost + 1
			if prev, seen := costs[next]; seen && cost >= prev {
				continue
			}
			costs[next] = cost
			cameFrom[next] = cur.cell
			heap.Push(open, &node{cell: next, cost: cost, priority: cost + next.Dist(to)})
		}
	}
	return nil
}

func rebuild(cameFrom map[core.Cell]core.Cell, from, to core.Cell) []core.Cell {
	path := []core.Cell{to}
	for cur := to; cur != from; {
		cur = cameFrom[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

type node struct {
	cell     core.Cell
	cost     float64
	priority float64
	seq      int // insertion order, breaks priority ties
}

type nodeHeap struct {
	nodes []*node
	next  int
}

func (h *nodeHeap) Len() int { return len(h.nodes) }

func (h *nodeHeap) Less(i, j int) bool {
	if h.nodes[i].priority != h.nodes[j].priority {
		return h.nodes[i].priority < h.nodes[j].priority
	}
	return h.nodes[i].seq < h.nodes[j].seq
}

func (h *nodeHeap) Swap(i, j int) { h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i] }

func (h *nodeHeap) Push(x any) {
	n := x.(*node)
	n.seq = h.next
	h.next++
	h.nodes = append(h.nodes, n)
}

func (h *nodeHeap) Pop() any {
	old := h.nodes
	n := old[len(old)-1]
	h.nodes = old[:len(old)-1]
	return n
}
