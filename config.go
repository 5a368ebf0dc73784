package gridseq

import (
	"fmt"
)

// GridConfig defines the geometry of the detection grid laid over the input
// image and the fixed length of the per-cell box sequence.  It is shared
// read-only between the oracle, decoder, stitcher and matching loss and must
// not be mutated once in use.
type GridConfig struct {
	// GridWidth is the number of grid cells across the image
	GridWidth int `json:"grid_width"`
	// GridHeight is the number of grid cells down the image
	GridHeight int `json:"grid_height"`
	// ImgWidth is the pixel width of the input image the model was
	// trained on
	ImgWidth int `json:"img_width"`
	// ImgHeight is the pixel height of the input image the model was
	// trained on
	ImgHeight int `json:"img_height"`
	// MaxLen is the maximum number of boxes the sequence head emits per
	// grid cell
	MaxLen int `json:"max_len"`
	// RegionSize is the receptive field in pixels each cell is responsible
	// for when binning ground truth annotations
	RegionSize int `json:"region_size"`
}

// BrainwashConfig returns an instance of GridConfig configured with the
// values used by the reference model trained on the Brainwash dataset
// featuring:
//   - Input image size: 640x480
//   - Grid: 20x15 cells (32 pixels per cell)
//   - Sequence length: 5 boxes per cell
func BrainwashConfig() GridConfig {
	return GridConfig{
		GridWidth:  20,
		GridHeight: 15,
		ImgWidth:   640,
		ImgHeight:  480,
		MaxLen:     5,
		RegionSize: 32,
	}
}

// Validate checks the configuration values are usable
func (c *GridConfig) Validate() error {

	if c.GridWidth <= 0 || c.GridHeight <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d",
			c.GridWidth, c.GridHeight)
	}

	if c.ImgWidth <= 0 || c.ImgHeight <= 0 {
		return fmt.Errorf("image dimensions must be positive, got %dx%d",
			c.ImgWidth, c.ImgHeight)
	}

	if c.MaxLen <= 0 {
		return fmt.Errorf("max sequence length must be positive, got %d",
			c.MaxLen)
	}

	return nil
}

// Cells returns the total number of grid cells
func (c *GridConfig) Cells() int {
	return c.GridWidth * c.GridHeight
}

// PixelsPerCellW returns the pixel width one grid cell covers
func (c *GridConfig) PixelsPerCellW() float32 {
	return float32(c.ImgWidth) / float32(c.GridWidth)
}

// PixelsPerCellH returns the pixel height one grid cell covers
func (c *GridConfig) PixelsPerCellH() float32 {
	return float32(c.ImgHeight) / float32(c.GridHeight)
}
