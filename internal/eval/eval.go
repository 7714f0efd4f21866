// Package eval scores every region for both sides, every tick: military
// force, economic value, and a derived threat level. Scores are recomputed
// from scratch on each update; the board never carries state between ticks
// beyond the last computed records.
package eval

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/anvoron/tacmap/internal/config"
	"github.com/anvoron/tacmap/internal/core"
	"github.com/anvoron/tacmap/internal/region"
)

// ErrNotReady is returned for any query issued before Init and the first
// Update have both completed.
var ErrNotReady = errors.New("eval: board is not ready")

// Side identifies one of the two opposing players.
type Side uint8

const (
	SideSelf Side = iota
	SideEnemy
)

func (s Side) String() string {
	if s == SideSelf {
		return "self"
	}
	return "enemy"
}

// Opponent returns the other side.
func (s Side) Opponent() Side { return 1 - s }

// ClassBase is the unit class that unlocks the resource bonus of an expand
// region for its side.
const ClassBase = "base"

// Unit is one live unit as reported by the host simulation.
type Unit struct {
	Pos      core.Cell
	Side     Side
	Class    string
	Combat   float64 // effective combat power
	Economic float64 // economic worth
}

// Snapshot is the per-tick view of all live units.
type Snapshot struct {
	Tick  int64
	Units []Unit
}

// Scores is one side's complete evaluation record for a tick. Values are
// indexed by region position in the graph's id order, not by region id.
type Scores struct {
	Force  []float64
	Value  []float64
	Threat []float64

	maxForce  float64
	maxValue  float64
	maxThreat float64
}

// Board owns the per-side score records and recomputes them once per tick.
type Board struct {
	cfg    config.EvalConfig
	logger *log.Logger

	graph   *region.Graph
	regions []*region.Region
	index   map[int]int // region id -> slice position

	sides [2]Scores
	tick  int64
	ready bool
}

// NewBoard returns an empty board. Init must run before the first Update.
func NewBoard(cfg config.EvalConfig, logger *log.Logger) *Board {
	return &Board{cfg: cfg, logger: logger}
}

// Init seeds zero state for every region of the graph. Any previous scores
// are discarded.
func (b *Board) Init(g *region.Graph) {
	b.graph = g
	b.regions = g.Regions()
	b.index = make(map[int]int, len(b.regions))
	for i, r := range b.regions {
		b.index[r.ID] = i
	}
	for s := range b.sides {
		b.sides[s] = Scores{
			Force:  make([]float64, len(b.regions)),
			Value:  make([]float64, len(b.regions)),
			Threat: make([]float64, len(b.regions)),
		}
	}
	b.ready = false
}

// Update recomputes both sides' records from the unit snapshot. Units that
// cannot be placed are skipped and logged, never fatal: one bad unit must not
// cost the tick.
func (b *Board) Update(snap Snapshot) error {
	if b.graph == nil {
		return fmt.Errorf("eval: update before init: %w", ErrNotReady)
	}
	b.tick = snap.Tick

	self := b.accumulate(snap, SideSelf)
	enemy := b.accumulate(snap, SideEnemy)
	self.Threat, self.maxThreat = b.threat(&self, &enemy)
	enemy.Threat, enemy.maxThreat = b.threat(&enemy, &self)

	b.sides[SideSelf] = self
	b.sides[SideEnemy] = enemy
	b.ready = true
	return nil
}

// accumulate is the pure force/value pass for one side: each unit lands in
// exactly one region and contributes additively, no cross-region smoothing.
func (b *Board) accumulate(snap Snapshot, side Side) Scores {
	s := Scores{
		Force: make([]float64, len(b.regions)),
		Value: make([]float64, len(b.regions)),
	}
	hasBase := make([]bool, len(b.regions))

	for _, u := range snap.Units {
		if u.Side != side {
			continue
		}
		r := b.graph.RegionOf(u.Pos)
		if r == nil {
			b.logger.Warn("unit outside any region, skipping",
				"tick", snap.Tick, "pos", u.Pos, "side", side, "class", u.Class)
			continue
		}
		i := b.index[r.ID]
		w := b.cfg.ClassWeight(u.Class)
		s.Force[i] += u.Combat * w
		s.Value[i] += u.Economic * w
		if u.Class == ClassBase {
			hasBase[i] = true
		}
	}

	// A side holding a base in an expand region also counts the remaining
	// resources as value.
	for i, r := range b.regions {
		if hasBase[i] && r.Expand != nil {
			s.Value[i] += b.cfg.ResourceWeight * float64(r.Expand.TotalResources())
		}
	}

	for i := range b.regions {
		s.maxForce = max(s.maxForce, s.Force[i])
		s.maxValue = max(s.maxValue, s.Value[i])
	}
	return s
}

// threat composes the opponent's force with this side's own value: how
// dangerous a region is to hold, not a raw military tally. Enemy force is
// attenuated by centroid distance; regions the side values are weighted up.
func (b *Board) threat(own, opp *Scores) ([]float64, float64) {
	out := make([]float64, len(b.regions))
	var maxThreat float64
	for i, r := range b.regions {
		var pressure float64
		for j, q := range b.regions {
			if opp.Force[j] == 0 {
				continue
			}
			d := r.Centroid.Dist(q.Centroid)
			pressure += opp.Force[j] / (1 + b.cfg.ThreatFalloff*d)
		}
		valueNorm := 0.0
		if own.maxValue > 0 {
			valueNorm = own.Value[i] / own.maxValue
		}
		out[i] = pressure * (1 + valueNorm)
		maxThreat = max(maxThreat, out[i])
	}
	return out, maxThreat
}

// Force returns a region's force score for a side, raw or max-normalized.
func (b *Board) Force(regionID int, side Side, normalized bool) (float64, error) {
	return b.score(regionID, side, normalized, func(s *Scores) ([]float64, float64) {
		return s.Force, s.maxForce
	})
}

// Value returns a region's economic value score for a side.
func (b *Board) Value(regionID int, side Side, normalized bool) (float64, error) {
	return b.score(regionID, side, normalized, func(s *Scores) ([]float64, float64) {
		return s.Value, s.maxValue
	})
}

// Threat returns a region's threat score for a side.
func (b *Board) Threat(regionID int, side Side, normalized bool) (float64, error) {
	return b.score(regionID, side, normalized, func(s *Scores) ([]float64, float64) {
		return s.Threat, s.maxThreat
	})
}

func (b *Board) score(regionID int, side Side, normalized bool, pick func(*Scores) ([]float64, float64)) (float64, error) {
	if !b.ready {
		return 0, ErrNotReady
	}
	i, ok := b.index[regionID]
	if !ok {
		return 0, fmt.Errorf("eval: unknown region %d", regionID)
	}
	values, maxValue := pick(&b.sides[side])
	if !normalized {
		return values[i], nil
	}
	if maxValue == 0 {
		return 0, nil
	}
	return values[i] / maxValue, nil
}

// Tick returns the tick of the last applied update.
func (b *Board) Tick() int64 { return b.tick }

// Ready reports whether at least one update has been applied.
func (b *Board) Ready() bool { return b.ready }

// Label buckets a raw force score into a presentation tier.
func (b *Board) Label(force float64) string {
	switch {
	case force >= b.cfg.Labels.Lethal:
		return "Lethal"
	case force >= b.cfg.Labels.Strong:
		return "Strong"
	case force >= b.cfg.Labels.Weak:
		return "Neutral"
	default:
		return "Weak"
	}
}
