package snapshot

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"

	"github.com/anvoron/tacmap/internal/config"
	"github.com/anvoron/tacmap/internal/decompose"
	"github.com/anvoron/tacmap/internal/region"
	"github.com/anvoron/tacmap/internal/terrain"
)

const wallGapMap = `
id: wall-gap
name: Wall Gap
size: {w: 10, h: 10}
rows:
  - ".....#...."
  - ".....#...."
  - ".....#...."
  - ".....#...."
  - ".........."
  - ".....#...."
  - ".....#...."
  - ".....#...."
  - ".....#...."
  - ".....#...."
`

func testFixture(t *testing.T) (*terrain.Terrain, *region.Data) {
	t.Helper()
	tr, err := terrain.Parse([]byte(wallGapMap))
	if err != nil {
		t.Fatalf("parsing map: %v", err)
	}
	data, err := decompose.Decompose(tr, tr, config.DefaultConfig().Decompose, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	return tr, data
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tr, data := testFixture(t)
	f := &File{Version: Version, MapID: tr.ID(), TerrainHash: tr.Hash(), Data: data}

	b, err := Encode(f)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.MapID != tr.ID() || back.TerrainHash != tr.Hash() {
		t.Errorf("header mismatch: %s / %s", back.MapID, back.TerrainHash)
	}
	if !data.Equal(back.Data) {
		t.Fatal("decoded aggregate differs from the original")
	}
}

func TestEncodeIsByteIdentical(t *testing.T) {
	tr, data := testFixture(t)
	f := &File{Version: Version, MapID: tr.ID(), TerrainHash: tr.Hash(), Data: data}

	a, err := Encode(f)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode(f)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("two encodes of the same snapshot differ")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tr, data := testFixture(t)
	dir := t.TempDir()

	path, err := Save(dir, tr, data)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(path, "wall-gap.tacmap.zst") {
		t.Errorf("unexpected snapshot path %s", path)
	}

	back, err := Load(dir, tr)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !data.Equal(back) {
		t.Fatal("loaded aggregate differs from the saved one")
	}
}

func TestLoadRejectsStaleSnapshot(t *testing.T) {
	tr, data := testFixture(t)
	dir := t.TempDir()
	if _, err := Save(dir, tr, data); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Same id, different geometry: the hash must not match.
	changed, err := terrain.Parse([]byte(strings.Replace(wallGapMap, `".........."`, `".....#...."`, 1)))
	if err != nil {
		t.Fatalf("parsing changed map: %v", err)
	}
	if _, err := Load(dir, changed); err == nil || !strings.Contains(err.Error(), "stale") {
		t.Fatalf("Load of stale snapshot: err = %v, want stale rejection", err)
	}
}

// rawEncode serializes without canonicalization or validation, for building
// corrupt payloads.
func rawEncode(t *testing.T, f *File) []byte {
	t.Helper()
	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil)
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	tr, _ := testFixture(t)
	valid := func() *File {
		_, d := testFixture(t)
		return &File{Version: Version, MapID: tr.ID(), TerrainHash: tr.Hash(), Data: d}
	}

	cases := map[string][]byte{
		"garbage bytes": []byte("not a snapshot"),
		"unsorted region cells": rawEncode(t, func() *File {
			f := valid()
			cells := f.Data.Regions[0].Cells
			cells[0], cells[1] = cells[1], cells[0]
			return f
		}()),
		"non-increasing region ids": rawEncode(t, func() *File {
			f := valid()
			f.Data.Regions[1].ID = f.Data.Regions[0].ID
			return f
		}()),
		"empty region cells": rawEncode(t, func() *File {
			f := valid()
			f.Data.Regions[0].Cells = nil
			return f
		}()),
		"empty choke edge": rawEncode(t, func() *File {
			f := valid()
			f.Data.ChokePoints[0].Edge = nil
			return f
		}()),
		"missing terrain hash": rawEncode(t, func() *File {
			f := valid()
			f.TerrainHash = ""
			return f
		}()),
		"unsupported version": rawEncode(t, func() *File {
			f := valid()
			f.Version = 99
			return f
		}()),
	}
	for name, payload := range cases {
		if _, err := Decode(payload); err == nil {
			t.Errorf("%s: decode succeeded, want rejection", name)
		}
	}
}

func TestWriteImage(t *testing.T) {
	tr, data := testFixture(t)
	var buf bytes.Buffer
	if err := WriteImage(&buf, data, tr.Width(), tr.Height()); err != nil {
		t.Fatalf("WriteImage: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding raster: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Fatalf("raster is %v, want 10x10", img.Bounds())
	}

	// The two halves are neighbors through the choke and must differ; the
	// wall stays the void color.
	west := img.At(1, 1)
	east := img.At(8, 1)
	wall := img.At(5, 1)
	if west == east {
		t.Error("neighboring regions share a color")
	}
	if wall == west || wall == east {
		t.Error("wall pixel should not take a region color")
	}
}
