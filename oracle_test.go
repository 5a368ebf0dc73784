package gridseq

import (
	"testing"
)

// testConfig returns a small grid configuration used across the output
// shape tests
func testConfig() GridConfig {
	return GridConfig{
		GridWidth:  2,
		GridHeight: 2,
		ImgWidth:   20,
		ImgHeight:  20,
		MaxLen:     2,
		RegionSize: 10,
	}
}

// makeBuffers returns correctly shaped zero buffers for the given config
func makeBuffers(cfg *GridConfig) ([][]float32, [][]float32) {

	boxes := make([][]float32, cfg.MaxLen)
	confs := make([][]float32, cfg.MaxLen)

	for i := 0; i < cfg.MaxLen; i++ {
		boxes[i] = make([]float32, cfg.Cells()*4)
		confs[i] = make([]float32, cfg.Cells()*2)
	}

	return boxes, confs
}

func TestNewOutputs(t *testing.T) {

	cfg := testConfig()

	t.Run("Valid shapes", func(t *testing.T) {
		boxes, confs := makeBuffers(&cfg)

		out, err := NewOutputs(&cfg, boxes, confs)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if out.Config() != &cfg {
			t.Errorf("outputs do not reference the config they were validated against")
		}
	})

	t.Run("Wrong step count", func(t *testing.T) {
		boxes, confs := makeBuffers(&cfg)

		_, err := NewOutputs(&cfg, boxes[:1], confs)

		if err == nil {
			t.Errorf("expected error for missing box regression step")
		}
	})

	t.Run("Wrong box buffer length", func(t *testing.T) {
		boxes, confs := makeBuffers(&cfg)
		boxes[1] = boxes[1][:7]

		_, err := NewOutputs(&cfg, boxes, confs)

		if err == nil {
			t.Errorf("expected error for truncated box buffer")
		}
	})

	t.Run("Wrong confidence buffer length", func(t *testing.T) {
		boxes, confs := makeBuffers(&cfg)
		confs[0] = append(confs[0], 0)

		_, err := NewOutputs(&cfg, boxes, confs)

		if err == nil {
			t.Errorf("expected error for oversized confidence buffer")
		}
	})

	t.Run("Invalid config rejected", func(t *testing.T) {
		bad := cfg
		bad.MaxLen = 0

		_, err := NewOutputs(&bad, nil, nil)

		if err == nil {
			t.Errorf("expected error for invalid config")
		}
	})
}

func TestOutputsCellAccess(t *testing.T) {

	cfg := testConfig()
	boxes, confs := makeBuffers(&cfg)

	// cell 3 (x=1, y=1), step 1
	cell := 3
	copy(boxes[1][cell*4:], []float32{1, 2, 3, 4})
	copy(confs[1][cell*2:], []float32{-1, 5})

	out, err := NewOutputs(&cfg, boxes, confs)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	box := out.CellBox(cell, 1)

	for i, want := range []float32{1, 2, 3, 4} {
		if box[i] != want {
			t.Errorf("expected box[%d] = %f, got %f", i, want, box[i])
		}
	}

	conf := out.CellConfidence(cell, 1)

	if conf[0] != -1 || conf[1] != 5 {
		t.Errorf("expected confidence [-1 5], got %v", conf)
	}
}
