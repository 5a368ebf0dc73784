package postprocess

import (
	"math"
	"testing"

	"github.com/gridseq/go-gridseq"
)

// testConfig returns the 2x2 grid over a 20x20 image used throughout the
// decode and stitch tests (10 pixels per cell)
func testConfig(maxLen int) gridseq.GridConfig {
	return gridseq.GridConfig{
		GridWidth:  2,
		GridHeight: 2,
		ImgWidth:   20,
		ImgHeight:  20,
		MaxLen:     maxLen,
		RegionSize: 10,
	}
}

// foregroundLogit returns a 2-way logit pair whose softmax foreground
// probability equals p
func foregroundLogit(p float64) []float32 {
	return []float32{0, float32(math.Log(p / (1 - p)))}
}

// makeOutputs builds zeroed raw buffers for the config and applies the
// given per cell, per step box and foreground probability values
func makeOutputs(t *testing.T, cfg *gridseq.GridConfig,
	set func(boxes, confs [][]float32)) *gridseq.Outputs {

	t.Helper()

	boxes := make([][]float32, cfg.MaxLen)
	confs := make([][]float32, cfg.MaxLen)

	for i := 0; i < cfg.MaxLen; i++ {
		boxes[i] = make([]float32, cfg.Cells()*4)
		confs[i] = make([]float32, cfg.Cells()*2)
	}

	if set != nil {
		set(boxes, confs)
	}

	out, err := gridseq.NewOutputs(cfg, boxes, confs)

	if err != nil {
		t.Fatalf("unexpected error building outputs: %v", err)
	}

	return out
}

func TestDecodeGridCellCenters(t *testing.T) {

	cfg := testConfig(2)
	out := makeOutputs(t, &cfg, nil)

	grid, err := NewDecoder(&cfg).DecodeGrid(out)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// with zero offset regression every decoded center must sit on its
	// cell's geometric center
	for y := 0; y < cfg.GridHeight; y++ {
		for x := 0; x < cfg.GridWidth; x++ {

			wantCX := 10 * (float32(x) + 0.5)
			wantCY := 10 * (float32(y) + 0.5)

			for step, r := range grid[y][x] {
				if !almostEqual(r.CX, wantCX, 1e-5) || !almostEqual(r.CY, wantCY, 1e-5) {
					t.Errorf("cell (%d,%d) step %d: expected center (%f,%f), got (%f,%f)",
						x, y, step, wantCX, wantCY, r.CX, r.CY)
				}
			}
		}
	}
}

func TestDecodeGridOffsetsAndConfidence(t *testing.T) {

	cfg := testConfig(1)

	out := makeOutputs(t, &cfg, func(boxes, confs [][]float32) {
		// cell 3 is grid position (1,1)
		copy(boxes[0][3*4:], []float32{2, -3, 8, 6})
		copy(confs[0][3*2:], foregroundLogit(0.95))
	})

	grid, err := NewDecoder(&cfg).DecodeGrid(out)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := grid[1][1][0]

	if !almostEqual(r.CX, 17, 1e-5) || !almostEqual(r.CY, 12, 1e-5) {
		t.Errorf("expected center (17,12), got (%f,%f)", r.CX, r.CY)
	}

	if r.Width != 8 || r.Height != 6 {
		t.Errorf("expected size 8x6, got %fx%f", r.Width, r.Height)
	}

	if !almostEqual(r.Confidence, 0.95, 1e-4) {
		t.Errorf("expected confidence 0.95, got %f", r.Confidence)
	}

	// zero logits normalise to an even split
	if !almostEqual(grid[0][0][0].Confidence, 0.5, 1e-6) {
		t.Errorf("expected confidence 0.5 for zero logits, got %f",
			grid[0][0][0].Confidence)
	}
}

func TestDecodeGridConfigMismatch(t *testing.T) {

	cfg := testConfig(1)
	out := makeOutputs(t, &cfg, nil)

	other := testConfig(1)
	other.GridWidth = 4

	_, err := NewDecoder(&other).DecodeGrid(out)

	if err == nil {
		t.Errorf("expected error decoding outputs for a different configuration")
	}
}
