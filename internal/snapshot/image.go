package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/anvoron/tacmap/internal/region"
)

var (
	voidColor  = color.RGBA{R: 18, G: 18, B: 18, A: 255}
	noiseColor = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

// WriteImage renders the companion raster: one pixel per cell, one flat color
// per region, every region distinguishable from all of its neighbors. The
// image is a human-auditable side artifact; nothing reads it back.
func WriteImage(w io.Writer, data *region.Data, width, height int) error {
	owner := make([]int, width*height)
	for i := range owner {
		owner[i] = -1
	}
	index := make(map[int]int, len(data.Regions)) // region id -> position
	for pos, r := range data.Regions {
		index[r.ID] = pos
		for _, c := range r.Cells {
			if c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height {
				owner[c.Y*width+c.X] = pos
			}
		}
	}

	colors := assignColors(data, owner, index, width, height)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch pos := owner[y*width+x]; pos {
			case -1:
				img.SetRGBA(x, y, voidColor)
			default:
				img.SetRGBA(x, y, colors[pos])
			}
		}
	}
	for _, c := range data.Noise {
		if c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height {
			img.SetRGBA(c.X, c.Y, noiseColor)
		}
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("snapshot: encoding raster: %w", err)
	}
	return nil
}

// assignColors greedy-colors the region adjacency graph: each region takes
// the first palette slot no already-colored neighbor holds.
func assignColors(data *region.Data, owner []int, index map[int]int, width, height int) []color.RGBA {
	n := len(data.Regions)
	adjacent := make([]map[int]bool, n)
	for i := range adjacent {
		adjacent[i] = make(map[int]bool)
	}
	link := func(a, b int) {
		if a != b && a != -1 && b != -1 {
			adjacent[a][b] = true
			adjacent[b][a] = true
		}
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cur := owner[y*width+x]
			if x+1 < width {
				link(cur, owner[y*width+x+1])
			}
			if y+1 < height {
				link(cur, owner[(y+1)*width+x])
			}
		}
	}
	for _, cp := range data.ChokePoints {
		a, okA := index[cp.Regions[0]]
		b, okB := index[cp.Regions[1]]
		if okA && okB {
			link(a, b)
		}
	}

	slots := make([]int, n)
	colors := make([]color.RGBA, n)
	for pos := range data.Regions {
		used := make(map[int]bool)
		for nb := range adjacent[pos] {
			if nb < pos {
				used[slots[nb]] = true
			}
		}
		slot := 0
		for used[slot] {
			slot++
		}
		slots[pos] = slot
		colors[pos] = paletteColor(slot)
	}
	return colors
}

// paletteColor spreads hues by the golden angle so arbitrarily many slots
// stay visually distinct.
func paletteColor(slot int) color.RGBA {
	hue := math.Mod(float64(slot)*137.508, 360)
	return hsv(hue, 0.65, 0.95)
}

func hsv(h, s, v float64) color.RGBA {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.RGBA{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
		A: 255,
	}
}
