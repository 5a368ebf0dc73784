package gridseq

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Oracle is the sequence-prediction model contract.  An implementation runs
// whatever model runtime it likes and returns the raw per-step regression
// and confidence buffers for one image.  Implementations must be safe to
// call repeatedly from a single goroutine; use a Pool to run several images
// in parallel, one Oracle per worker.
type Oracle interface {
	// Forward runs the model on the given image and returns its raw outputs
	Forward(img gocv.Mat) (*Outputs, error)
	// Close releases any resources held by the model runtime
	Close() error
}

// Outputs holds the raw model output buffers for one image.
//
// Boxes has MaxLen entries, one per sequence step.  Each entry is a
// cell-major buffer of length Cells*4 holding the box regression
// [dx, dy, w, h] for every grid cell: dx/dy are the pixel offsets of the box
// center from the cell center (already passed through the model's x100
// regression scaling), w/h are the box dimensions in pixels.
//
// Confidences has MaxLen entries of length Cells*2 holding the raw 2-way
// confidence logits [background, foreground] for every grid cell.
//
// Cells are indexed y*GridWidth + x.
type Outputs struct {
	Boxes       [][]float32
	Confidences [][]float32
	cfg         *GridConfig
}

// NewOutputs wraps raw model buffers in an Outputs after validating their
// shapes against the grid configuration.  A shape mismatch is a programming
// contract violation between the oracle and its consumers, so it is reported
// as an error immediately rather than surfacing later as a bounds fault.
func NewOutputs(cfg *GridConfig, boxes, confidences [][]float32) (*Outputs, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid config: %w", err)
	}

	if len(boxes) != cfg.MaxLen {
		return nil, fmt.Errorf("expected %d box regression steps, got %d",
			cfg.MaxLen, len(boxes))
	}

	if len(confidences) != cfg.MaxLen {
		return nil, fmt.Errorf("expected %d confidence steps, got %d",
			cfg.MaxLen, len(confidences))
	}

	cells := cfg.Cells()

	for step, buf := range boxes {
		if len(buf) != cells*4 {
			return nil, fmt.Errorf("box regression step %d has %d values, "+
				"expected %d (%d cells x 4)", step, len(buf), cells*4, cells)
		}
	}

	for step, buf := range confidences {
		if len(buf) != cells*2 {
			return nil, fmt.Errorf("confidence step %d has %d values, "+
				"expected %d (%d cells x 2)", step, len(buf), cells*2, cells)
		}
	}

	return &Outputs{
		Boxes:       boxes,
		Confidences: confidences,
		cfg:         cfg,
	}, nil
}

// Config returns the grid configuration the outputs were validated against
func (o *Outputs) Config() *GridConfig {
	return o.cfg
}

// CellBox returns the [dx, dy, w, h] regression for the given cell and
// sequence step
func (o *Outputs) CellBox(cell, step int) []float32 {
	return o.Boxes[step][cell*4 : cell*4+4]
}

// CellConfidence returns the raw 2-way confidence logits for the given cell
// and sequence step
func (o *Outputs) CellConfidence(cell, step int) []float32 {
	return o.Confidences[step][cell*2 : cell*2+2]
}
