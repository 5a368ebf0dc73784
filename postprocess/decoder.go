package postprocess

import (
	"fmt"

	"github.com/gridseq/go-gridseq"
)

// Decoder converts raw per-cell, per-step model regressions into absolute
// image-coordinate rectangles
type Decoder struct {
	// Cfg is the grid configuration the model was built with
	Cfg *gridseq.GridConfig
}

// NewDecoder returns a Decoder for the given grid configuration
func NewDecoder(cfg *gridseq.GridConfig) *Decoder {
	return &Decoder{Cfg: cfg}
}

// DecodeGrid converts the raw outputs for one image into a grid of rectangle
// proposals indexed [y][x], each cell holding one proposal per sequence
// step.  Box centers are placed relative to the geometric center of their
// cell; width and height pass through unchanged; the confidence is the
// foreground probability of the softmax normalised 2-way confidence output.
func (d *Decoder) DecodeGrid(out *gridseq.Outputs) ([][][]Rect, error) {

	if out.Config() == nil || *out.Config() != *d.Cfg {
		return nil, fmt.Errorf("outputs were produced for a different grid " +
			"configuration")
	}

	pixPerW := d.Cfg.PixelsPerCellW()
	pixPerH := d.Cfg.PixelsPerCellH()

	grid := make([][][]Rect, d.Cfg.GridHeight)

	for y := 0; y < d.Cfg.GridHeight; y++ {
		grid[y] = make([][]Rect, d.Cfg.GridWidth)

		for x := 0; x < d.Cfg.GridWidth; x++ {

			cell := y*d.Cfg.GridWidth + x
			rects := make([]Rect, 0, d.Cfg.MaxLen)

			for step := 0; step < d.Cfg.MaxLen; step++ {

				box := out.CellBox(cell, step)
				conf := softmax2(out.CellConfidence(cell, step))

				absCX := pixPerW/2 + pixPerW*float32(x) + box[0]
				absCY := pixPerH/2 + pixPerH*float32(y) + box[1]

				rects = append(rects, NewRect(absCX, absCY, box[2], box[3], conf))
			}

			grid[y][x] = rects
		}
	}

	return grid, nil
}
