package postprocess

import (
	clipper "github.com/ctessum/go.clipper"
)

// MergeMode selects how a cluster of overlapping proposals is reduced to a
// single representative rectangle
type MergeMode int

const (
	// MergeHighest keeps the highest confidence member of the cluster
	MergeHighest MergeMode = iota
	// MergeUnion synthesizes the bounding rectangle of the polygon union
	// of all cluster members
	MergeUnion
)

// clipperScale converts float pixel coordinates to the integer space the
// clipper library operates in
const clipperScale = 1000.0

// StitchParams defines the parameters controlling how per-cell proposals
// are consolidated into final detections
type StitchParams struct {
	// OverlapThreshold is the minimum Intersection over Union (IoU) between
	// two proposals for them to be considered duplicates of the same object
	OverlapThreshold float32
	// Merge selects the cluster representative policy
	Merge MergeMode
	// MaxDetections is the maximum number of detections returned, zero
	// means unlimited
	MaxDetections int
}

// DefaultStitchParams returns an instance of StitchParams configured with
// default values of:
//   - Overlap Threshold: 0.5
//   - Merge Mode: MergeHighest
//   - Maximum Detections: 64
func DefaultStitchParams() StitchParams {
	return StitchParams{
		OverlapThreshold: 0.5,
		Merge:            MergeHighest,
		MaxDetections:    64,
	}
}

// Stitcher consolidates the redundant, overlapping rectangle proposals the
// grid cells emit into a de-duplicated detection list.
//
// The clustering rule is a greedy confidence-descending sweep: the highest
// confidence unclaimed proposal seeds a cluster and claims every remaining
// proposal whose overlap with it meets OverlapThreshold.  The cluster
// representative carries a TrueConfidence equal to the highest raw
// confidence among its members.  The sweep order makes the result
// deterministic, and because every survivor is pairwise below the overlap
// threshold, stitching an already stitched list changes nothing.
type Stitcher struct {
	// Params are the stitching configuration parameters
	Params StitchParams
}

// NewStitcher returns an instance of the proposal Stitcher
func NewStitcher(p StitchParams) *Stitcher {
	return &Stitcher{
		Params: p,
	}
}

// Stitch consolidates a grid of per-cell proposal lists, as produced by
// Decoder.DecodeGrid, into the final detection list
func (s *Stitcher) Stitch(grid [][][]Rect) []Rect {

	// flatten the grid, row major then step order so input order is defined
	var all []Rect

	for _, row := range grid {
		for _, cell := range row {
			all = append(all, cell...)
		}
	}

	return s.StitchList(all)
}

// StitchList consolidates a flat proposal list.  A stitched detection list
// is a fixed point of this function.
func (s *Stitcher) StitchList(rects []Rect) []Rect {

	n := len(rects)

	if n == 0 {
		return nil
	}

	// sort indices by confidence, highest first
	confs := make([]float32, n)
	order := make([]int, n)

	for i, r := range rects {
		confs[i] = r.Confidence
		order[i] = i
	}

	quickSortIndiceInverse(confs, 0, n-1, order)

	claimed := make([]bool, n)
	out := make([]Rect, 0)

	for i := 0; i < n; i++ {

		seedIdx := order[i]

		if claimed[seedIdx] {
			continue
		}

		claimed[seedIdx] = true
		seed := rects[seedIdx]
		cluster := []Rect{seed}

		// claim every unclaimed proposal overlapping the seed
		for j := i + 1; j < n; j++ {

			m := order[j]

			if claimed[m] {
				continue
			}

			if OverlapUnionRects(&seed, &rects[m]) >= s.Params.OverlapThreshold {
				claimed[m] = true
				cluster = append(cluster, rects[m])
			}
		}

		rep := s.represent(seed, cluster)

		// cluster members are in descending confidence order so the seed
		// carries the maximum
		rep.TrueConfidence = seed.Confidence

		out = append(out, rep)

		if s.Params.MaxDetections > 0 && len(out) >= s.Params.MaxDetections {
			break
		}
	}

	return out
}

// represent reduces a cluster to its representative rectangle according to
// the configured merge mode
func (s *Stitcher) represent(seed Rect, cluster []Rect) Rect {

	if s.Params.Merge != MergeUnion || len(cluster) == 1 {
		return seed
	}

	return unionRect(cluster, seed.Confidence)
}

// unionRect returns the bounding rectangle of the polygon union of the
// cluster members
func unionRect(cluster []Rect, confidence float32) Rect {

	c := clipper.NewClipper(clipper.IoNone)

	for i := range cluster {

		x1, y1, x2, y2 := cluster[i].Corners()

		path := clipper.Path{
			&clipper.IntPoint{X: clipper.CInt(x1 * clipperScale), Y: clipper.CInt(y1 * clipperScale)},
			&clipper.IntPoint{X: clipper.CInt(x2 * clipperScale), Y: clipper.CInt(y1 * clipperScale)},
			&clipper.IntPoint{X: clipper.CInt(x2 * clipperScale), Y: clipper.CInt(y2 * clipperScale)},
			&clipper.IntPoint{X: clipper.CInt(x1 * clipperScale), Y: clipper.CInt(y2 * clipperScale)},
		}

		c.AddPath(path, clipper.PtSubject, true)
	}

	solution, ok := c.Execute1(clipper.CtUnion, clipper.PftNonZero, clipper.PftNonZero)

	if !ok || len(solution) == 0 {
		// degenerate member geometry, fall back to the seed
		return cluster[0]
	}

	minX := solution[0][0].X
	minY := solution[0][0].Y
	maxX := minX
	maxY := minY

	for _, path := range solution {
		for _, pt := range path {
			if pt.X < minX {
				minX = pt.X
			}
			if pt.X > maxX {
				maxX = pt.X
			}
			if pt.Y < minY {
				minY = pt.Y
			}
			if pt.Y > maxY {
				maxY = pt.Y
			}
		}
	}

	return RectFromCorners(
		float32(minX)/clipperScale, float32(minY)/clipperScale,
		float32(maxX)/clipperScale, float32(maxY)/clipperScale,
		confidence)
}
