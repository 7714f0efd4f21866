// Package atlas bundles the analyzed map into one explicitly constructed
// context object: terrain, region graph, evaluation board and path cache.
// There is no shared global instance; consumers receive an Atlas and a fresh
// game means a fresh Atlas, not a reset of a shared one.
package atlas

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/anvoron/tacmap/internal/config"
	"github.com/anvoron/tacmap/internal/core"
	"github.com/anvoron/tacmap/internal/decompose"
	"github.com/anvoron/tacmap/internal/eval"
	"github.com/anvoron/tacmap/internal/pathcache"
	"github.com/anvoron/tacmap/internal/region"
	"github.com/anvoron/tacmap/internal/terrain"
)

// ErrNotReady is returned for any query issued before Analyze or Restore has
// completed. The rejection is logged once, not on every premature call.
var ErrNotReady = errors.New("atlas: map not analyzed yet")

// Atlas is the complete spatial analysis of one loaded map.
type Atlas struct {
	cfg    config.Config
	logger *log.Logger

	terrain *terrain.Terrain
	graph   *region.Graph
	board   *eval.Board
	cache   *pathcache.Cache

	ready          bool
	notReadyLogged bool
}

// New binds an atlas to a loaded terrain. Analyze or Restore must complete
// before any query is served.
func New(t *terrain.Terrain, cfg config.Config, logger *log.Logger) *Atlas {
	return &Atlas{cfg: cfg, logger: logger, terrain: t}
}

// Terrain returns the underlying terrain.
func (a *Atlas) Terrain() *terrain.Terrain { return a.terrain }

// Ready reports whether the atlas can serve queries.
func (a *Atlas) Ready() bool { return a.ready }

// Analyze decomposes the terrain from scratch and builds the graph,
// evaluators and path cache. Returns the aggregate so the caller can
// persist it.
func (a *Atlas) Analyze() (*region.Data, error) {
	data, err := decompose.Decompose(a.terrain, a.terrain, a.cfg.Decompose, a.logger)
	if err != nil {
		return nil, fmt.Errorf("atlas: %w", err)
	}
	if err := a.build(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Restore builds the atlas from a previously persisted aggregate, skipping
// decomposition entirely.
func (a *Atlas) Restore(data *region.Data) error {
	return a.build(data)
}

func (a *Atlas) build(data *region.Data) error {
	g, err := region.NewGraph(data, a.terrain.Width(), a.terrain.Height())
	if err != nil {
		return fmt.Errorf("atlas: %w", err)
	}
	a.graph = g
	a.board = eval.NewBoard(a.cfg.Eval, a.logger)
	a.board.Init(g)
	a.cache = pathcache.New(a.terrain, g, a.logger)
	a.ready = true
	a.notReadyLogged = false
	a.logger.Info("atlas ready",
		"map", a.terrain.ID(),
		"regions", len(g.Regions()),
		"chokes", len(g.ChokePoints()))
	return nil
}

// guard rejects queries on an unanalyzed atlas, logging the first rejection.
func (a *Atlas) guard() error {
	if a.ready {
		return nil
	}
	if !a.notReadyLogged {
		a.notReadyLogged = true
		a.logger.Warn("query before analysis, rejecting", "map", a.terrain.ID())
	}
	return ErrNotReady
}

// Tick applies one unit snapshot to the evaluation board.
func (a *Atlas) Tick(snap eval.Snapshot) error {
	if err := a.guard(); err != nil {
		return err
	}
	return a.board.Update(snap)
}

// ClearObstruction removes the rocks standing in a region and restores the
// traversability of its links. Path cache entries are dropped on the next
// lookup through the generation counters. Returns true when anything changed.
func (a *Atlas) ClearObstruction(regionID int) (bool, error) {
	if err := a.guard(); err != nil {
		return false, err
	}
	r := a.graph.Region(regionID)
	if r == nil {
		return false, fmt.Errorf("atlas: unknown region %d", regionID)
	}
	changed := false
	for _, c := range r.Cells {
		if a.terrain.ClearRock(c) {
			changed = true
		}
	}
	if a.graph.SetObstructed(regionID, false) {
		changed = true
	}
	if changed {
		a.logger.Info("obstruction cleared", "region", regionID)
	}
	return changed, nil
}

// RegionOf returns the region owning a cell, or nil for noise and unwalkable
// ground.
func (a *Atlas) RegionOf(c core.Cell) (*region.Region, error) {
	if err := a.guard(); err != nil {
		return nil, err
	}
	return a.graph.RegionOf(c), nil
}

// ReachableNeighborsOf returns the currently traversable neighbors of a
// region.
func (a *Atlas) ReachableNeighborsOf(regionID int) ([]*region.Region, error) {
	if err := a.guard(); err != nil {
		return nil, err
	}
	r := a.graph.Region(regionID)
	if r == nil {
		return nil, fmt.Errorf("atlas: unknown region %d", regionID)
	}
	return a.graph.ReachableNeighborsOf(r), nil
}

// Force returns a region's force score for a side.
func (a *Atlas) Force(regionID int, side eval.Side, normalized bool) (float64, error) {
	if err := a.guard(); err != nil {
		return 0, err
	}
	return a.board.Force(regionID, side, normalized)
}

// Value returns a region's economic value score for a side.
func (a *Atlas) Value(regionID int, side eval.Side, normalized bool) (float64, error) {
	if err := a.guard(); err != nil {
		return 0, err
	}
	return a.board.Value(regionID, side, normalized)
}

// Threat returns a region's threat score for a side.
func (a *Atlas) Threat(regionID int, side eval.Side, normalized bool) (float64, error) {
	if err := a.guard(); err != nil {
		return 0, err
	}
	return a.board.Threat(regionID, side, normalized)
}

// Path returns the shortest walkable cell path between two cells.
func (a *Atlas) Path(from, to core.Cell) ([]core.Cell, error) {
	if err := a.guard(); err != nil {
		return nil, err
	}
	return a.cache.Path(from, to)
}

// PathStats exposes the path cache counters.
func (a *Atlas) PathStats() (pathcache.Stats, error) {
	if err := a.guard(); err != nil {
		return pathcache.Stats{}, err
	}
	return a.cache.Stats(), nil
}

// Graph exposes the region graph for read-only traversal.
func (a *Atlas) Graph() (*region.Graph, error) {
	if err := a.guard(); err != nil {
		return nil, err
	}
	return a.graph, nil
}

// Board exposes the evaluation board.
func (a *Atlas) Board() (*eval.Board, error) {
	if err := a.guard(); err != nil {
		return nil, err
	}
	return a.board, nil
}
