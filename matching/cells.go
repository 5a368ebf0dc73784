package matching

import (
	"github.com/gridseq/go-gridseq"
	"github.com/gridseq/go-gridseq/postprocess"
)

// CellTruth holds one image's ground truth binned into fixed-shape per-cell
// arrays, the form the matching loss consumes.
//
// Boxes has Cells entries of length MaxLen*4, each slot holding a center
// form [cx, cy, w, h] box with cx/cy relative to the owning cell's geometric
// center.  Flags has Cells entries of length MaxLen in unary (thermometer)
// encoding: flags[k] == 1 for k < the number of real boxes in the cell and
// 0 for the padding slots after them.
type CellTruth struct {
	Boxes [][]float32
	Flags [][]int
	// Truncated counts ground truth boxes dropped because their cell
	// already held MaxLen boxes
	Truncated int
}

// BinTruth bins an image's corner form ground truth boxes into per-cell
// slots.  Each box belongs to the cell containing its center; boxes outside
// the image are clamped onto the border cells.  Boxes are binned in
// annotation order, and when a cell receives more than MaxLen boxes the
// later ones are dropped deterministically and counted in Truncated.
func BinTruth(cfg *gridseq.GridConfig, truth []postprocess.Truth) CellTruth {

	cells := cfg.Cells()

	ct := CellTruth{
		Boxes: make([][]float32, cells),
		Flags: make([][]int, cells),
	}

	for i := 0; i < cells; i++ {
		ct.Boxes[i] = make([]float32, cfg.MaxLen*4)
		ct.Flags[i] = make([]int, cfg.MaxLen)
	}

	pixPerW := cfg.PixelsPerCellW()
	pixPerH := cfg.PixelsPerCellH()

	for _, t := range truth {

		cx := (t.X1 + t.X2) / 2
		cy := (t.Y1 + t.Y2) / 2

		x := clampCell(int(cx/pixPerW), cfg.GridWidth)
		y := clampCell(int(cy/pixPerH), cfg.GridHeight)

		cell := y*cfg.GridWidth + x

		// next free slot in this cell
		slot := 0

		for slot < cfg.MaxLen && ct.Flags[cell][slot] == 1 {
			slot++
		}

		if slot == cfg.MaxLen {
			ct.Truncated++
			continue
		}

		cellCX := pixPerW/2 + pixPerW*float32(x)
		cellCY := pixPerH/2 + pixPerH*float32(y)

		ct.Boxes[cell][slot*4+0] = cx - cellCX
		ct.Boxes[cell][slot*4+1] = cy - cellCY
		ct.Boxes[cell][slot*4+2] = t.X2 - t.X1
		ct.Boxes[cell][slot*4+3] = t.Y2 - t.Y1
		ct.Flags[cell][slot] = 1
	}

	return ct
}

// clampCell restricts a cell index to the valid grid range
func clampCell(idx, cells int) int {

	if idx < 0 {
		return 0
	}

	if idx >= cells {
		return cells - 1
	}

	return idx
}
