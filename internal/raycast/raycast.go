// Package raycast walks rays across grid cells using a digital differential
// analyzer. Choke-point construction and vision checks are built on it, so
// the traversal must be exactly reproducible: same inputs, same cells, every
// call.
package raycast

import (
	"iter"
	"math"

	"github.com/anvoron/tacmap/internal/core"
)

// epsilon bounds all floating comparisons in the traversal. Ties between the
// two axis steps are resolved inside this band, never by raw float equality.
const epsilon = 1e-9

// Step is one traversal result: the cell the ray entered and the exact point
// where the ray crossed that cell's boundary (the origin point for the first
// step).
type Step struct {
	Cell core.Cell
	Hit  core.Point
}

// Predicate inspects a traversed cell; returning true stops the ray after
// the current step is delivered.
type Predicate func(core.Cell) bool

// Cast traverses from one point toward another, yielding every cell the ray
// passes through, destination cell included. The walk ends at the
// destination cell or as soon as stop returns true.
func Cast(from, to core.Point, stop Predicate) iter.Seq[Step] {
	return func(yield func(Step) bool) {
		target := to.Cell()
		walk(from, to.X-from.X, to.Y-from.Y, func(s Step) bool {
			if !yield(s) {
				return false
			}
			if s.Cell == target {
				return false
			}
			if stop != nil && stop(s.Cell) {
				return false
			}
			return true
		}, 1+epsilon)
	}
}

// CastDir traverses from a point along a fixed angle until the ray leaves
// the w x h map bounds or stop returns true. Cells outside the bounds are
// never yielded.
func CastDir(from core.Point, angle float64, w, h int, stop Predicate) iter.Seq[Step] {
	return func(yield func(Step) bool) {
		walk(from, math.Cos(angle), math.Sin(angle), func(s Step) bool {
			if s.Cell.X < 0 || s.Cell.X >= w || s.Cell.Y < 0 || s.Cell.Y >= h {
				return false
			}
			if !yield(s) {
				return false
			}
			if stop != nil && stop(s.Cell) {
				return false
			}
			return true
		}, math.Inf(1))
	}
}

// walk runs the DDA core. dx/dy span the full ray (destination mode) or a
// unit direction (angle mode); tLimit caps the traversal parameter. visit
// returns false to end the walk.
func walk(from core.Point, dx, dy float64, visit func(Step) bool, tLimit float64) {
	cur := from.Cell()
	if !visit(Step{Cell: cur, Hit: from}) {
		return
	}
	if dx == 0 && dy == 0 {
		return
	}

	stepX, tMaxX, tDeltaX := axisSetup(from.X, dx)
	stepY, tMaxY, tDeltaY := axisSetup(from.Y, dy)

	for {
		var t float64
		switch {
		case tMaxX < tMaxY-epsilon:
			t = tMaxX
			cur.X += stepX
			tMaxX += tDeltaX
		case tMaxY < tMaxX-epsilon:
			t = tMaxY
			cur.Y += stepY
			tMaxY += tDeltaY
		default:
			// Exact corner tie: step the axis with more remaining travel, so
			// the ray stays on the side closer to the destination line.
			t = tMaxX
			if math.Abs(dx) >= math.Abs(dy) {
				cur.X += stepX
				tMaxX += tDeltaX
			} else {
				t = tMaxY
				cur.Y += stepY
				tMaxY += tDeltaY
			}
		}
		if t > tLimit {
			return
		}
		hit := core.P(from.X+dx*t, from.Y+dy*t)
		if !visit(Step{Cell: cur, Hit: hit}) {
			return
		}
	}
}

// axisSetup computes the DDA parameters for one axis: the step direction,
// the traversal parameter at the first boundary crossing, and the parameter
// distance between crossings.
func axisSetup(origin, d float64) (step int, tMax, tDelta float64) {
	if d > 0 {
		next := math.Floor(origin) + 1
		return 1, (next - origin) / d, 1 / d
	}
	if d < 0 {
		prev := math.Floor(origin)
		if prev == origin {
			prev--
		}
		return -1, (prev - origin) / d, -1 / d
	}
	return 0, math.Inf(1), math.Inf(1)
}
