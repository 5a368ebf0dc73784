package postprocess

// EvaluatorParams defines the thresholds used when scoring stitched
// detections against ground truth
type EvaluatorParams struct {
	// ConfidenceThreshold is the minimum consolidated (true) confidence a
	// stitched detection needs to take part in scoring
	ConfidenceThreshold float32
	// CoverageThreshold is the minimum IoU between a detection and a ground
	// truth box for the ground truth to count as covered
	CoverageThreshold float32
}

// DefaultEvaluatorParams returns an instance of EvaluatorParams with the
// reference policy values of:
//   - Confidence Threshold: 0.9
//   - Coverage Threshold: 0.5
func DefaultEvaluatorParams() EvaluatorParams {
	return EvaluatorParams{
		ConfidenceThreshold: 0.9,
		CoverageThreshold:   0.5,
	}
}

// Evaluator scores one image's stitched detections against its ground truth
// annotations
type Evaluator struct {
	// Params are the evaluation thresholds
	Params EvaluatorParams
}

// NewEvaluator returns an instance of the coverage Evaluator
func NewEvaluator(p EvaluatorParams) *Evaluator {
	return &Evaluator{
		Params: p,
	}
}

// CoverageCount is the numerator/denominator pair for a recall style
// coverage metric.  It is not normalised so counts from many images can be
// summed before dividing.
type CoverageCount struct {
	// Covered is the number of ground truth boxes covered by a confident
	// detection
	Covered int
	// Total is the number of ground truth boxes
	Total int
}

// Add accumulates another image's counts
func (c *CoverageCount) Add(other CoverageCount) {
	c.Covered += other.Covered
	c.Total += other.Total
}

// Recall returns the coverage ratio, or 0 when there was no ground truth
func (c *CoverageCount) Recall() float64 {

	if c.Total == 0 {
		return 0
	}

	return float64(c.Covered) / float64(c.Total)
}

// Coverage counts how many ground truth boxes are covered by stitched
// detections.  Each detection with TrueConfidence at or above the confidence
// threshold is tested against the ground truth boxes in order and scores on
// the first one it overlaps by at least the coverage threshold.  Detections
// below the confidence threshold are ignored entirely.
//
// The first-match sweep means two confident detections sitting on the same
// ground truth box both score it; this mirrors the reference evaluation and
// callers wanting a strict recall should de-duplicate upstream via the
// Stitcher's overlap threshold.
func (e *Evaluator) Coverage(detections []Rect, truth []Truth) CoverageCount {

	count := CoverageCount{
		Total: len(truth),
	}

	for i := range detections {

		if detections[i].TrueConfidence < e.Params.ConfidenceThreshold {
			continue
		}

		x1, y1, x2, y2 := detections[i].Corners()

		for _, t := range truth {
			if OverlapUnion(x1, y1, x2, y2, t.X1, t.Y1, t.X2, t.Y2) >= e.Params.CoverageThreshold {
				count.Covered++
				break
			}
		}
	}

	return count
}
