// Package decompose converts a loaded terrain into the region/ramp/choke
// aggregate consumed by the region graph. Decomposition runs once per map
// and is a deterministic pure function of the terrain and its tuning: the
// same map always yields the same canonical aggregate.
package decompose

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/anvoron/tacmap/internal/config"
	"github.com/anvoron/tacmap/internal/core"
	"github.com/anvoron/tacmap/internal/raycast"
	"github.com/anvoron/tacmap/internal/region"
	"github.com/anvoron/tacmap/internal/terrain"
)

// BaseLocator reports valid base-building positions with their resource
// clusters. The terrain itself satisfies this when the map file declares
// bases; a scouting layer can substitute its own.
type BaseLocator interface {
	Bases() []terrain.Base
}

var cardinal = [4]core.Cell{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}

// Decompose runs the full pipeline: ramp clustering, flood fill into
// regions, choke-point materialization, expand classification and noise
// collection. The returned aggregate is canonicalized and internally
// validated; a validation failure means a bug in the pipeline, not bad map
// data, and is returned as an error so callers can abort before persisting
// a corrupt snapshot.
func Decompose(t *terrain.Terrain, bases BaseLocator, cfg config.DecomposeConfig, logger *log.Logger) (*region.Data, error) {
	b := &builder{t: t, cfg: cfg, logger: logger, w: t.Width(), h: t.Height()}
	b.classifyRamps()
	b.classifyChokes()
	b.fillComponents()
	b.dropSmallComponents()
	b.resolveChokeClusters()

	data := b.finalize(bases)
	data.Canonicalize()

	if err := validate(t, data); err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}

	logger.Info("decomposition complete",
		"map", t.ID(),
		"regions", len(data.Regions),
		"ramps", len(data.Ramps),
		"chokes", len(data.ChokePoints),
		"noise", len(data.Noise))
	return data, nil
}

type builder struct {
	t      *terrain.Terrain
	cfg    config.DecomposeConfig
	logger *log.Logger
	w, h   int

	ramp  []bool // ramp-classified cells
	choke []bool // choke-classified cells, withheld from the flood fill
	comp  []int  // flat component label per cell, -1 none
	noise []bool // cells demoted to noise

	parent       []int // union-find over component labels
	rampClusters [][]core.Cell
	chokes       []*pendingChoke
}

type pendingChoke struct {
	cells      []core.Cell // the passage cells of the cluster
	rootA      int
	rootB      int
	start, end core.Cell
	length     float64
	edge       []core.Cell
}

func (b *builder) idx(c core.Cell) int { return c.Y*b.w + c.X }

// classifyRamps marks walkable cells whose neighborhood spans two height
// levels within the traversable step, then clusters them 8-connected.
// Clusters below the minimum size are demoted back to ordinary ground so the
// flood fill absorbs them.
func (b *builder) classifyRamps() {
	b.ramp = make([]bool, b.w*b.h)
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			c := core.C(x, y)
			if !b.t.Walkable(c) {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					n := core.C(x+dx, y+dy)
					if !b.t.Walkable(n) {
						continue
					}
					diff := b.t.HeightAt(n) - b.t.HeightAt(c)
					if diff < 0 {
						diff = -diff
					}
					if diff > 1e-9 && diff <= b.cfg.RampMaxStep {
						b.ramp[b.idx(c)] = true
					}
				}
			}
		}
	}

	visited := make([]bool, b.w*b.h)
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			seed := core.C(x, y)
			if !b.ramp[b.idx(seed)] || visited[b.idx(seed)] {
				continue
			}
			var cluster []core.Cell
			stack := []core.Cell{seed}
			visited[b.idx(seed)] = true
			for len(stack) > 0 {
				c := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cluster = append(cluster, c)
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						n := core.C(c.X+dx, c.Y+dy)
						if n.X < 0 || n.X >= b.w || n.Y < 0 || n.Y >= b.h {
							continue
						}
						if b.ramp[b.idx(n)] && !visited[b.idx(n)] {
							visited[b.idx(n)] = true
							stack = append(stack, n)
						}
					}
				}
			}
			if len(cluster) < b.cfg.MinRampSize {
				for _, c := range cluster {
					b.ramp[b.idx(c)] = false
				}
				continue
			}
			slices.SortFunc(cluster, core.CompareYX)
			b.rampClusters = append(b.rampClusters, cluster)
		}
	}
}

// classifyChokes marks walkable non-ramp cells pinched between unwalkable
// terrain: narrow along one axis, extended along the other. These cells are
// withheld from the flood fill, which is what separates the regions a
// passage connects.
func (b *builder) classifyChokes() {
	b.choke = make([]bool, b.w*b.h)
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			c := core.C(x, y)
			if !b.t.Walkable(c) || b.ramp[b.idx(c)] {
				continue
			}
			hspan := b.span(c, core.C(1, 0)) + b.span(c, core.C(-1, 0)) + 1
			vspan := b.span(c, core.C(0, 1)) + b.span(c, core.C(0, -1)) + 1
			narrow, wide := hspan, vspan
			if narrow > wide {
				narrow, wide = wide, narrow
			}
			// The open axis must dominate the pinched one, otherwise small
			// rooms and map-border strips would classify as passages.
			if narrow <= b.cfg.ChokeMaxWidth && wide > 2*narrow {
				b.choke[b.idx(c)] = true
			}
		}
	}
}

// span counts contiguous walkable cells from c (exclusive) along a direction.
func (b *builder) span(c, dir core.Cell) int {
	n := 0
	for {
		c = core.C(c.X+dir.X, c.Y+dir.Y)
		if !b.t.Walkable(c) {
			return n
		}
		n++
	}
}

// fillComponents flood-fills the remaining walkable cells 4-connected into
// maximal components, row-major, so labels are deterministic.
func (b *builder) fillComponents() {
	b.comp = make([]int, b.w*b.h)
	for i := range b.comp {
		b.comp[i] = -1
	}
	b.noise = make([]bool, b.w*b.h)

	next := 0
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			seed := core.C(x, y)
			if !b.fillable(seed) || b.comp[b.idx(seed)] != -1 {
				continue
			}
			label := next
			next++
			stack := []core.Cell{seed}
			b.comp[b.idx(seed)] = label
			for len(stack) > 0 {
				c := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, d := range cardinal {
					n := core.C(c.X+d.X, c.Y+d.Y)
					if n.X < 0 || n.X >= b.w || n.Y < 0 || n.Y >= b.h {
						continue
					}
					if b.fillable(n) && b.comp[b.idx(n)] == -1 {
						b.comp[b.idx(n)] = label
						stack = append(stack, n)
					}
				}
			}
		}
	}

	b.parent = make([]int, next)
	for i := range b.parent {
		b.parent[i] = i
	}
}

func (b *builder) fillable(c core.Cell) bool {
	i := b.idx(c)
	return b.t.Walkable(c) && !b.ramp[i] && !b.choke[i]
}

func (b *builder) find(label int) int {
	for b.parent[label] != label {
		b.parent[label] = b.parent[b.parent[label]]
		label = b.parent[label]
	}
	return label
}

// union merges two component labels, keeping the smaller root so merged
// regions stay deterministic.
func (b *builder) union(a, c int) {
	ra, rc := b.find(a), b.find(c)
	if ra == rc {
		return
	}
	if ra > rc {
		ra, rc = rc, ra
	}
	b.parent[rc] = ra
}

// dropSmallComponents demotes components under the minimum region size to
// noise before choke resolution, so a tiny pocket behind a passage does not
// anchor a choke point.
func (b *builder) dropSmallComponents() {
	sizes := make(map[int]int)
	for _, label := range b.comp {
		if label != -1 {
			sizes[label]++
		}
	}
	for i, label := range b.comp {
		if label != -1 && sizes[label] < b.cfg.MinRegionSize {
			b.comp[i] = -1
			b.noise[i] = true
		}
	}
}

// resolveChokeClusters clusters the withheld choke cells 4-connected and
// decides each cluster's fate: a passage between two components becomes a
// choke point, a dead-end pocket is absorbed into its only neighbor, and an
// isolated cluster is demoted to noise.
func (b *builder) resolveChokeClusters() {
	visited := make([]bool, b.w*b.h)
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			seed := core.C(x, y)
			if !b.choke[b.idx(seed)] || visited[b.idx(seed)] {
				continue
			}
			var cells []core.Cell
			stack := []core.Cell{seed}
			visited[b.idx(seed)] = true
			for len(stack) > 0 {
				c := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cells = append(cells, c)
				for _, d := range cardinal {
					n := core.C(c.X+d.X, c.Y+d.Y)
					if n.X < 0 || n.X >= b.w || n.Y < 0 || n.Y >= b.h {
						continue
					}
					if b.choke[b.idx(n)] && !visited[b.idx(n)] {
						visited[b.idx(n)] = true
						stack = append(stack, n)
					}
				}
			}
			slices.SortFunc(cells, core.CompareYX)
			b.resolveCluster(cells)
		}
	}
}

func (b *builder) resolveCluster(cells []core.Cell) {
	// Count adjacency contacts per neighboring component root.
	contacts := make(map[int]int)
	for _, c := range cells {
		for _, d := range cardinal {
			n := core.C(c.X+d.X, c.Y+d.Y)
			if n.X < 0 || n.X >= b.w || n.Y < 0 || n.Y >= b.h {
				continue
			}
			if label := b.comp[b.idx(n)]; label != -1 {
				contacts[b.find(label)]++
			}
		}
	}

	roots := make([]int, 0, len(contacts))
	for root := range contacts {
		roots = append(roots, root)
	}
	// Most contact first, then lower label: the two dominant neighbors carry
	// the passage.
	slices.SortFunc(roots, func(x, y int) int {
		if contacts[x] != contacts[y] {
			return contacts[y] - contacts[x]
		}
		return x - y
	})

	switch len(roots) {
	case 0:
		// A passage to nowhere. Large clusters stand as their own component,
		// fragments become noise.
		if len(cells) >= b.cfg.MinRegionSize {
			label := len(b.parent)
			b.parent = append(b.parent, label)
			for _, c := range cells {
				b.comp[b.idx(c)] = label
				b.choke[b.idx(c)] = false
			}
		} else {
			for _, c := range cells {
				b.noise[b.idx(c)] = true
				b.choke[b.idx(c)] = false
			}
		}
	case 1:
		// Dead end: not a real separation, absorb into the only neighbor.
		for _, c := range cells {
			b.comp[b.idx(c)] = roots[0]
			b.choke[b.idx(c)] = false
		}
	default:
		b.materializeChoke(cells, roots[0], roots[1])
	}
}

// materializeChoke casts a ray between the two components' anchor cells and
// records the choke point. An empty edge means the boundary is not a real
// separation: the choke is dropped and the components merged.
func (b *builder) materializeChoke(cells []core.Cell, rootA, rootB int) {
	centroid := clusterCentroid(cells)
	anchorA, okA := b.anchor(cells, rootA, centroid)
	anchorB, okB := b.anchor(cells, rootB, centroid)
	if !okA || !okB {
		b.logger.Warn("no anchor for choke cluster, absorbing", "near", cells[0])
		for _, c := range cells {
			b.comp[b.idx(c)] = rootA
			b.choke[b.idx(c)] = false
		}
		return
	}

	var edge []core.Cell
	for step := range raycast.Cast(anchorA.Center(), anchorB.Center(), nil) {
		if b.t.Passable(step.Cell) {
			edge = append(edge, step.Cell)
		}
	}

	if len(edge) == 0 {
		// The common boundary is not a passable separation; merge.
		b.logger.Warn("choke edge is empty, merging regions", "near", cells[0])
		b.union(rootA, rootB)
		root := b.find(rootA)
		for _, c := range cells {
			b.comp[b.idx(c)] = root
			b.choke[b.idx(c)] = false
		}
		return
	}

	b.chokes = append(b.chokes, &pendingChoke{
		cells:  cells,
		rootA:  rootA,
		rootB:  rootB,
		start:  edge[0],
		end:    edge[len(edge)-1],
		length: edge[0].Dist(edge[len(edge)-1]),
		edge:   edge,
	})
}

// anchor picks the component cell adjacent to the cluster nearest to the
// cluster centroid, preferring passable cells. Ties resolve y-then-x.
func (b *builder) anchor(cells []core.Cell, root int, centroid core.Point) (core.Cell, bool) {
	var best core.Cell
	bestDist := -1.0
	bestPassable := false
	for _, c := range cells {
		for _, d := range cardinal {
			n := core.C(c.X+d.X, c.Y+d.Y)
			if n.X < 0 || n.X >= b.w || n.Y < 0 || n.Y >= b.h {
				continue
			}
			label := b.comp[b.idx(n)]
			if label == -1 || b.find(label) != root {
				continue
			}
			passable := b.t.Passable(n)
			if passable != bestPassable {
				if !passable {
					continue
				}
				// First passable candidate beats any rocked one.
				best, bestDist, bestPassable = n, n.Center().Dist(centroid), true
				continue
			}
			dist := n.Center().Dist(centroid)
			if bestDist < 0 || dist < bestDist-1e-9 ||
				(dist < bestDist+1e-9 && core.LessYX(n, best)) {
				best, bestDist = n, dist
			}
		}
	}
	return best, bestDist >= 0
}

func clusterCentroid(cells []core.Cell) core.Point {
	var sx, sy float64
	for _, c := range cells {
		p := c.Center()
		sx += p.X
		sy += p.Y
	}
	n := float64(len(cells))
	return core.P(sx/n, sy/n)
}

// finalize assigns stable region ids in row-major first-cell order, builds
// the entities, attaches expand locations, and collects noise.
func (b *builder) finalize(bases BaseLocator) *region.Data {
	type groupKey struct {
		ramp  bool
		label int // component root or ramp cluster index
	}

	// Ramp cluster membership per cell.
	rampOf := make([]int, b.w*b.h)
	for i := range rampOf {
		rampOf[i] = -1
	}
	for ci, cluster := range b.rampClusters {
		for _, c := range cluster {
			rampOf[b.idx(c)] = ci
		}
	}

	ids := make(map[groupKey]int)
	var order []groupKey
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			i := y*b.w + x
			var key groupKey
			switch {
			case rampOf[i] != -1:
				key = groupKey{ramp: true, label: rampOf[i]}
			case b.comp[i] != -1:
				key = groupKey{label: b.find(b.comp[i])}
			default:
				continue
			}
			if _, ok := ids[key]; !ok {
				ids[key] = len(order)
				order = append(order, key)
			}
		}
	}

	cellsOf := make([][]core.Cell, len(order))
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			i := y*b.w + x
			switch {
			case rampOf[i] != -1:
				id := ids[groupKey{ramp: true, label: rampOf[i]}]
				cellsOf[id] = append(cellsOf[id], core.C(x, y))
			case b.comp[i] != -1:
				id := ids[groupKey{label: b.find(b.comp[i])}]
				cellsOf[id] = append(cellsOf[id], core.C(x, y))
			}
		}
	}

	// Kind is decided from a group's own cells, before passage cells are
	// attached: rocks standing in a passage obstruct the choke, not the
	// region that happens to own the passage cells.
	kinds := make([]region.Kind, len(order))
	data := &region.Data{}
	for id, key := range order {
		kinds[id] = region.KindOpenGround
		if key.ramp {
			kinds[id] = region.KindRamp
			data.Ramps = append(data.Ramps, region.Ramp{ID: id, Cells: slices.Clone(cellsOf[id])})
			continue
		}
		for _, c := range cellsOf[id] {
			if b.t.Rock(c) {
				kinds[id] = region.KindObstructed
				break
			}
		}
	}

	// Passage cells of materialized chokes belong to the lower-id region.
	for _, pc := range b.chokes {
		idA := ids[groupKey{label: b.find(pc.rootA)}]
		idB := ids[groupKey{label: b.find(pc.rootB)}]
		owner := min(idA, idB)
		cellsOf[owner] = append(cellsOf[owner], pc.cells...)
	}

	for id := range order {
		cells := cellsOf[id]
		data.Regions = append(data.Regions, &region.Region{
			ID:       id,
			Kind:     kinds[id],
			Cells:    cells,
			Centroid: clusterCentroid(cells),
		})
	}

	for _, pc := range b.chokes {
		idA := ids[groupKey{label: b.find(pc.rootA)}]
		idB := ids[groupKey{label: b.find(pc.rootB)}]
		if idA > idB {
			idA, idB = idB, idA
		}
		data.ChokePoints = append(data.ChokePoints, &region.ChokePoint{
			Start:   pc.start,
			End:     pc.end,
			Length:  pc.length,
			Edge:    pc.edge,
			Regions: [2]int{idA, idB},
		})
	}

	b.attachExpands(data, bases)

	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			c := core.C(x, y)
			if b.t.Walkable(c) && b.noise[b.idx(c)] {
				data.Noise = append(data.Noise, c)
			}
		}
	}

	return data
}

// attachExpands classifies regions containing a reported base position.
// Per-base failures are logged and skipped; an unplaceable base must not
// abort decomposition.
func (b *builder) attachExpands(data *region.Data, bases BaseLocator) {
	if bases == nil {
		return
	}
	byCell := make(map[core.Cell]*region.Region)
	for _, r := range data.Regions {
		for _, c := range r.Cells {
			byCell[c] = r
		}
	}
	for _, base := range bases.Bases() {
		r, ok := byCell[base.Cell()]
		if !ok {
			b.logger.Warn("base position is not inside any region, skipping", "base", base.Cell())
			continue
		}
		if r.Expand != nil {
			b.logger.Warn("region already has an expand location, skipping", "region", r.ID, "base", base.Cell())
			continue
		}
		if r.Kind == region.KindObstructed {
			b.logger.Warn("base inside obstructed region, keeping obstructed kind", "region", r.ID)
		} else {
			r.Kind = region.KindExpand
		}
		r.Expand = &region.ExpandLocation{
			Base:     base.Cell(),
			Minerals: convertResources(base.Minerals),
			Geysers:  convertResources(base.Geysers),
		}
	}
}

func convertResources(in []terrain.Resource) []region.Resource {
	out := make([]region.Resource, 0, len(in))
	for _, r := range in {
		out = append(out, region.Resource{Pos: r.Cell(), Amount: r.Amount})
	}
	return out
}

// validate enforces the decomposition invariants before the aggregate can be
// persisted: every walkable cell in exactly one of region or noise, no empty
// regions, no empty or impassable choke edges.
func validate(t *terrain.Terrain, data *region.Data) error {
	w, h := t.Width(), t.Height()
	owner := make([]int, w*h)
	for i := range owner {
		owner[i] = -1
	}
	for _, r := range data.Regions {
		if len(r.Cells) == 0 {
			return fmt.Errorf("region %d is empty", r.ID)
		}
		for _, c := range r.Cells {
			i := c.Y*w + c.X
			if owner[i] != -1 {
				return fmt.Errorf("cell %v assigned twice (regions %d and %d)", c, owner[i], r.ID)
			}
			owner[i] = r.ID
		}
	}
	for _, c := range data.Noise {
		i := c.Y*w + c.X
		if owner[i] != -1 {
			return fmt.Errorf("noise cell %v also belongs to region %d", c, owner[i])
		}
		owner[i] = -2
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := core.C(x, y)
			if t.Walkable(c) && owner[y*w+x] == -1 {
				return fmt.Errorf("walkable cell %v is unassigned", c)
			}
		}
	}
	for _, cp := range data.ChokePoints {
		if len(cp.Edge) == 0 {
			return fmt.Errorf("choke point at %v has an empty edge", cp.Start)
		}
		for _, c := range cp.Edge {
			if !t.Passable(c) {
				return fmt.Errorf("choke edge cell %v is not passable", c)
			}
		}
	}
	return nil
}
