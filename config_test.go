package gridseq

import (
	"math"
	"testing"
)

// almostEqual checks if two float32 values are approximately equal
func almostEqual(a, b, tolerance float32) bool {
	return float32(math.Abs(float64(a)-float64(b))) <= tolerance
}

func TestGridConfigValidate(t *testing.T) {

	t.Run("Brainwash defaults are valid", func(t *testing.T) {
		cfg := BrainwashConfig()

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got error: %v", err)
		}
	})

	t.Run("Zero grid dimension", func(t *testing.T) {
		cfg := BrainwashConfig()
		cfg.GridWidth = 0

		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for zero grid width")
		}
	})

	t.Run("Negative image dimension", func(t *testing.T) {
		cfg := BrainwashConfig()
		cfg.ImgHeight = -480

		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for negative image height")
		}
	})

	t.Run("Zero sequence length", func(t *testing.T) {
		cfg := BrainwashConfig()
		cfg.MaxLen = 0

		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for zero max length")
		}
	})
}

func TestGridConfigDerived(t *testing.T) {

	cfg := BrainwashConfig()

	if cfg.Cells() != 300 {
		t.Errorf("expected 300 cells, got %d", cfg.Cells())
	}

	if !almostEqual(cfg.PixelsPerCellW(), 32, 1e-6) {
		t.Errorf("expected 32 pixels per cell width, got %f", cfg.PixelsPerCellW())
	}

	if !almostEqual(cfg.PixelsPerCellH(), 32, 1e-6) {
		t.Errorf("expected 32 pixels per cell height, got %f", cfg.PixelsPerCellH())
	}
}
