// Package snapshot persists decomposition results so a map is decomposed
// once and reloaded across runs. The on-disk format is zstd-compressed JSON
// with a terrain hash header; decoding validates against an embedded schema
// and the decomposition invariants before producing typed entities, so there
// is no way to construct an aggregate that bypasses validation.
package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/anvoron/tacmap/internal/core"
	"github.com/anvoron/tacmap/internal/region"
	"github.com/anvoron/tacmap/internal/terrain"
)

// Version is the current snapshot format version.
const Version = 1

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("tacmap.schema.json", schemaJSON)

// File is the complete persisted snapshot: the decomposition aggregate plus
// the identity of the terrain it was computed from.
type File struct {
	Version     int          `json:"version"`
	MapID       string       `json:"mapId"`
	TerrainHash string       `json:"terrainHash"`
	Data        *region.Data `json:"data"`
}

// Encode canonicalizes the aggregate and serializes it. Two encodes of the
// same snapshot produce byte-identical output.
func Encode(f *File) ([]byte, error) {
	if f.Data == nil {
		return nil, fmt.Errorf("snapshot: encoding nil data")
	}
	f.Data.Canonicalize()

	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// Decode validates and deserializes an encoded snapshot. Schema validation
// runs before unmarshaling into typed entities, invariant validation after,
// so a corrupt or hand-edited file is rejected rather than loaded partially.
func Decode(b []byte) (*File, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd reader: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decompress: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("snapshot: schema: %w", err)
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	if f.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", f.Version)
	}
	if err := validate(f.Data); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &f, nil
}

// validate enforces the structural invariants the schema cannot express:
// strictly increasing region ids and the mandatory sort order of every
// collection.
func validate(d *region.Data) error {
	prev := -1
	for _, r := range d.Regions {
		if r.ID <= prev {
			return fmt.Errorf("region ids not strictly increasing at %d", r.ID)
		}
		prev = r.ID
		if !sortedYX(r.Cells) {
			return fmt.Errorf("region %d cells not sorted", r.ID)
		}
	}
	for _, rp := range d.Ramps {
		if !sortedYX(rp.Cells) {
			return fmt.Errorf("ramp %d cells not sorted", rp.ID)
		}
	}
	if !sortedYX(d.Noise) {
		return fmt.Errorf("noise cells not sorted")
	}
	for i := 1; i < len(d.ChokePoints); i++ {
		if core.CompareYX(d.ChokePoints[i-1].Start, d.ChokePoints[i].Start) > 0 {
			return fmt.Errorf("choke points not sorted by start cell")
		}
	}
	for _, cp := range d.ChokePoints {
		if cp.Regions[0] >= cp.Regions[1] {
			return fmt.Errorf("choke at %v region pair %v not ordered", cp.Start, cp.Regions)
		}
	}
	return nil
}

func sortedYX(cells []core.Cell) bool {
	for i := 1; i < len(cells); i++ {
		if core.CompareYX(cells[i-1], cells[i]) > 0 {
			return false
		}
	}
	return true
}

// SnapshotPath returns the snapshot file path for a map id under dir.
func SnapshotPath(dir, mapID string) string {
	return filepath.Join(dir, mapID+".tacmap.zst")
}

// ImagePath returns the companion raster path for a map id under dir.
func ImagePath(dir, mapID string) string {
	return filepath.Join(dir, mapID+".png")
}

// Save writes the snapshot and its companion raster image for the terrain's
// map id. Returns the snapshot path.
func Save(dir string, t *terrain.Terrain, data *region.Data) (string, error) {
	b, err := Encode(&File{
		Version:     Version,
		MapID:       t.ID(),
		TerrainHash: t.Hash(),
		Data:        data,
	})
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot: creating %s: %w", dir, err)
	}
	path := SnapshotPath(dir, t.ID())
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("snapshot: writing %s: %w", path, err)
	}

	var img bytes.Buffer
	if err := WriteImage(&img, data, t.Width(), t.Height()); err != nil {
		return "", err
	}
	if err := os.WriteFile(ImagePath(dir, t.ID()), img.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("snapshot: writing raster: %w", err)
	}
	return path, nil
}

// Load reads and validates the snapshot for the terrain's map id. A snapshot
// computed from a different version of the map is rejected: staleness is
// detected by terrain hash, not by timestamps.
func Load(dir string, t *terrain.Terrain) (*region.Data, error) {
	path := SnapshotPath(dir, t.ID())
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading %s: %w", path, err)
	}
	f, err := Decode(b)
	if err != nil {
		return nil, err
	}
	if f.TerrainHash != t.Hash() {
		return nil, fmt.Errorf("snapshot: %s is stale (terrain hash mismatch)", path)
	}
	return f.Data, nil
}
