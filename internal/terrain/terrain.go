// Package terrain wraps the raw walkability and height field of a map.
// It is the leaf dependency of the analyzer: no state beyond the loaded map
// and the destructible-obstruction flags.
package terrain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/anvoron/tacmap/internal/core"
)

// Resource is a mineral field or gas geyser belonging to a base location.
type Resource struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Amount int `yaml:"amount"`
}

// Cell returns the resource's grid position.
func (r Resource) Cell() core.Cell {
	return core.C(r.X, r.Y)
}

// Base is a town-hall-sized build position with its resource cluster.
type Base struct {
	X        int        `yaml:"x"`
	Y        int        `yaml:"y"`
	Minerals []Resource `yaml:"minerals"`
	Geysers  []Resource `yaml:"geysers"`
}

// Cell returns the base's grid position.
func (b Base) Cell() core.Cell {
	return core.C(b.X, b.Y)
}

// Terrain is the loaded map: per-cell walkability and height, plus the
// destructible rocks that block otherwise walkable ground until cleared.
// Rocks are the only mutable state; every change bumps the generation so
// downstream caches can detect staleness.
type Terrain struct {
	id     string
	name   string
	w, h   int
	walk   []bool    // row-major, static walkability
	height []float64 // row-major
	rock   []bool    // row-major, true while a destructible rock stands
	bases  []Base

	gen  uint64
	hash string
}

// ID returns the map identifier.
func (t *Terrain) ID() string { return t.id }

// Name returns the human-readable map name.
func (t *Terrain) Name() string { return t.name }

// Width returns the map width in cells.
func (t *Terrain) Width() int { return t.w }

// Height returns the map height in cells.
func (t *Terrain) Height() int { return t.h }

// Bases returns the base locations declared by the map.
func (t *Terrain) Bases() []Base { return t.bases }

// InBounds reports whether the cell lies inside the map.
func (t *Terrain) InBounds(c core.Cell) bool {
	return c.X >= 0 && c.X < t.w && c.Y >= 0 && c.Y < t.h
}

// Walkable reports the static walkability of a cell. Out of bounds is not
// walkable. Rocks do not affect this; they sit on walkable ground.
func (t *Terrain) Walkable(c core.Cell) bool {
	if !t.InBounds(c) {
		return false
	}
	return t.walk[c.Y*t.w+c.X]
}

// Passable reports whether a cell can be traversed right now: walkable and
// not currently blocked by a destructible rock.
func (t *Terrain) Passable(c core.Cell) bool {
	if !t.InBounds(c) {
		return false
	}
	i := c.Y*t.w + c.X
	return t.walk[i] && !t.rock[i]
}

// Rock reports whether a destructible rock still stands on the cell.
func (t *Terrain) Rock(c core.Cell) bool {
	if !t.InBounds(c) {
		return false
	}
	return t.rock[c.Y*t.w+c.X]
}

// HeightAt returns the ground height of a cell, or 0 out of bounds.
func (t *Terrain) HeightAt(c core.Cell) float64 {
	if !t.InBounds(c) {
		return 0
	}
	return t.height[c.Y*t.w+c.X]
}

// ClearRock removes the rock on a cell, if any. Returns true when the
// obstruction state actually changed; the generation is bumped only then.
func (t *Terrain) ClearRock(c core.Cell) bool {
	if !t.InBounds(c) {
		return false
	}
	i := c.Y*t.w + c.X
	if !t.rock[i] {
		return false
	}
	t.rock[i] = false
	t.gen++
	return true
}

// Generation returns a counter that increases on every obstruction change.
func (t *Terrain) Generation() uint64 { return t.gen }

// Hash returns a stable content hash of the loaded map: dimensions,
// walkability, heights, initial rocks and bases. Two loads of the same map
// file hash identically, which is what snapshot validity checks rely on.
func (t *Terrain) Hash() string { return t.hash }

func (t *Terrain) computeHash() string {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(t.w))
	binary.LittleEndian.PutUint32(buf[4:], uint32(t.h))
	h.Write(buf[:])
	for i := range t.walk {
		var b byte
		if t.walk[i] {
			b |= 1
		}
		if t.rock[i] {
			b |= 2
		}
		h.Write([]byte{b})
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(t.height[i]))
		h.Write(buf[:])
	}
	for _, base := range t.bases {
		binary.LittleEndian.PutUint32(buf[:4], uint32(base.X))
		binary.LittleEndian.PutUint32(buf[4:], uint32(base.Y))
		h.Write(buf[:])
		for _, res := range append(append([]Resource{}, base.Minerals...), base.Geysers...) {
			binary.LittleEndian.PutUint32(buf[:4], uint32(res.X))
			binary.LittleEndian.PutUint32(buf[4:], uint32(res.Y))
			h.Write(buf[:])
			binary.LittleEndian.PutUint64(buf[:], uint64(res.Amount))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
