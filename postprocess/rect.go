// Package postprocess turns the raw outputs of a grid-based sequential
// detector into final detections and scores them against ground truth.
package postprocess

// Rect is a detection candidate in center form.  Confidence is the raw
// per-proposal foreground probability from the model; TrueConfidence is the
// consolidated score assigned by the Stitcher and is zero until a rect has
// been through stitching.
type Rect struct {
	// CX, CY are the box center in absolute image pixel coordinates
	CX float32
	CY float32
	// Width and Height of the box in pixels
	Width  float32
	Height float32
	// Confidence is the raw foreground probability of this proposal
	Confidence float32
	// TrueConfidence is the consolidated confidence set by the Stitcher
	TrueConfidence float32
}

// NewRect creates a Rect with the given center form dimensions and raw
// confidence
func NewRect(cx, cy, width, height, confidence float32) Rect {
	return Rect{
		CX:         cx,
		CY:         cy,
		Width:      width,
		Height:     height,
		Confidence: confidence,
	}
}

// Corners returns the rectangle as opposite corners (x1, y1, x2, y2)
func (r *Rect) Corners() (float32, float32, float32, float32) {
	return r.CX - r.Width/2, r.CY - r.Height/2,
		r.CX + r.Width/2, r.CY + r.Height/2
}

// RectFromCorners creates a Rect from opposite corner coordinates
func RectFromCorners(x1, y1, x2, y2, confidence float32) Rect {
	return NewRect((x1+x2)/2, (y1+y2)/2, x2-x1, y2-y1, confidence)
}

// Truth is a ground truth box in corner form as supplied by dataset
// annotations
type Truth struct {
	X1 float32 `json:"x1"`
	Y1 float32 `json:"y1"`
	X2 float32 `json:"x2"`
	Y2 float32 `json:"y2"`
}

// OverlapUnion works out the Intersection over Union (IoU) value of two
// boxes given as opposite corners.  Boxes that do not intersect score 0, as
// do degenerate boxes whose union has no area.
func OverlapUnion(x1, y1, x2, y2, x3, y3, x4, y4 float32) float32 {

	iw := minf(x2, x4) - maxf(x1, x3)
	ih := minf(y2, y4) - maxf(y1, y3)

	if iw < 0 {
		iw = 0
	}

	if ih < 0 {
		ih = 0
	}

	intersection := iw * ih
	union := (x2-x1)*(y2-y1) + (x4-x3)*(y4-y3) - intersection

	if union <= 0 {
		return 0.0
	}

	return intersection / union
}

// OverlapUnionRects works out the IoU of two center form rectangles
func OverlapUnionRects(a, b *Rect) float32 {
	ax1, ay1, ax2, ay2 := a.Corners()
	bx1, by1, bx2, by2 := b.Corners()
	return OverlapUnion(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2)
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
