package postprocess

import (
	"testing"
)

// stitched builds a detection with its consolidated confidence set, as the
// Stitcher would produce
func stitched(cx, cy, w, h, trueConf float32) Rect {
	r := NewRect(cx, cy, w, h, trueConf)
	r.TrueConfidence = trueConf
	return r
}

func TestCoverage(t *testing.T) {

	e := NewEvaluator(DefaultEvaluatorParams())

	truth := []Truth{{X1: 11, Y1: 11, X2: 19, Y2: 19}}

	t.Run("Exact cover counts", func(t *testing.T) {

		count := e.Coverage([]Rect{stitched(15, 15, 8, 8, 1.0)}, truth)

		if count.Covered != 1 || count.Total != 1 {
			t.Errorf("expected (1,1), got (%d,%d)", count.Covered, count.Total)
		}
	})

	t.Run("Below confidence threshold is ignored", func(t *testing.T) {

		count := e.Coverage([]Rect{stitched(15, 15, 8, 8, 0.5)}, truth)

		if count.Covered != 0 || count.Total != 1 {
			t.Errorf("expected (0,1), got (%d,%d)", count.Covered, count.Total)
		}
	})

	t.Run("Insufficient overlap does not count", func(t *testing.T) {

		count := e.Coverage([]Rect{stitched(40, 40, 8, 8, 1.0)}, truth)

		if count.Covered != 0 || count.Total != 1 {
			t.Errorf("expected (0,1), got (%d,%d)", count.Covered, count.Total)
		}
	})

	t.Run("Empty ground truth", func(t *testing.T) {

		count := e.Coverage([]Rect{stitched(15, 15, 8, 8, 1.0)}, nil)

		if count.Covered != 0 || count.Total != 0 {
			t.Errorf("expected (0,0), got (%d,%d)", count.Covered, count.Total)
		}

		if count.Recall() != 0 {
			t.Errorf("expected recall 0 with no ground truth, got %f", count.Recall())
		}
	})

	t.Run("Detection scores only its first match", func(t *testing.T) {

		twoTruth := []Truth{
			{X1: 11, Y1: 11, X2: 19, Y2: 19},
			{X1: 31, Y1: 11, X2: 39, Y2: 19},
		}

		dets := []Rect{
			stitched(15, 15, 8, 8, 1.0),
			stitched(35, 15, 8, 8, 1.0),
		}

		count := e.Coverage(dets, twoTruth)

		if count.Covered != 2 || count.Total != 2 {
			t.Errorf("expected (2,2), got (%d,%d)", count.Covered, count.Total)
		}
	})
}

func TestCoverageCountAggregation(t *testing.T) {

	var total CoverageCount

	total.Add(CoverageCount{Covered: 1, Total: 2})
	total.Add(CoverageCount{Covered: 2, Total: 2})

	if total.Covered != 3 || total.Total != 4 {
		t.Errorf("expected (3,4), got (%d,%d)", total.Covered, total.Total)
	}

	if total.Recall() != 0.75 {
		t.Errorf("expected recall 0.75, got %f", total.Recall())
	}
}
