package matching

import (
	"fmt"
	"math"

	"github.com/gridseq/go-gridseq"
	"gonum.org/v1/gonum/mat"
)

// LossParams defines the parameters controlling the assignment search
type LossParams struct {
	// MatchRatio controls assignment stability: when permuting, the optimal
	// assignment replaces the fixed left-to-right pairing only if its total
	// cost is below MatchRatio times the left-to-right cost.  This stops
	// the assignment flickering between near-equal pairings across
	// training iterations.
	MatchRatio float64
	// PermuteMatches enables the full minimum-cost assignment search.  When
	// false the predicted steps pair left-to-right with the real ground
	// truth slots.
	PermuteMatches bool
}

// DefaultLossParams returns an instance of LossParams with the reference
// training values of:
//   - Match Ratio: 0.5
//   - Permute Matches: true
func DefaultLossParams() LossParams {
	return LossParams{
		MatchRatio:     0.5,
		PermuteMatches: true,
	}
}

// Loss computes the permutation-invariant matching loss for the sequence
// head of a grid detector.  For every cell it pairs predicted steps with
// real ground truth slots, sums the regression cost over the matched pairs
// and emits a binary confidence target per step for the downstream
// classification loss.
type Loss struct {
	// Params are the assignment search parameters
	Params LossParams
}

// NewLoss returns an instance of the matching Loss
func NewLoss(p LossParams) *Loss {
	return &Loss{
		Params: p,
	}
}

// CellResult is the matching outcome for a single cell
type CellResult struct {
	// Loss is the summed regression cost of the matched pairs
	Loss float64
	// Assignment maps each predicted step to its ground truth slot, or -1
	// for steps assigned to background
	Assignment []int
	// ConfTargets holds 1 for steps matched to a real ground truth box and
	// 0 for background steps
	ConfTargets []int
}

// Result is the matching outcome for a whole image
type Result struct {
	// Loss is the total regression loss over all cells
	Loss float64
	// ConfTargets holds the per-cell confidence target vectors, indexed the
	// same way as the oracle's cells
	ConfTargets [][]int
}

// Forward computes the matching loss for one image from the oracle's raw
// outputs and the binned ground truth
func (l *Loss) Forward(out *gridseq.Outputs, truth CellTruth) (Result, error) {

	cfg := out.Config()
	cells := cfg.Cells()

	if len(truth.Boxes) != cells || len(truth.Flags) != cells {
		return Result{}, fmt.Errorf("ground truth covers %d cells, grid has %d",
			len(truth.Boxes), cells)
	}

	res := Result{
		ConfTargets: make([][]int, cells),
	}

	pred := make([]float32, cfg.MaxLen*4)

	for cell := 0; cell < cells; cell++ {

		for step := 0; step < cfg.MaxLen; step++ {
			copy(pred[step*4:step*4+4], out.CellBox(cell, step))
		}

		cellRes, err := l.ForwardCell(cfg.MaxLen, pred, truth.Boxes[cell],
			truth.Flags[cell])

		if err != nil {
			return Result{}, fmt.Errorf("cell %d: %w", cell, err)
		}

		res.Loss += cellRes.Loss
		res.ConfTargets[cell] = cellRes.ConfTargets
	}

	return res, nil
}

// ForwardCell computes the matching loss for a single cell.  pred and
// gtBoxes hold maxLen center form [dx, dy, w, h] slots; flags is the unary
// encoding of how many gtBoxes slots are real.
func (l *Loss) ForwardCell(maxLen int, pred, gtBoxes []float32, flags []int) (CellResult, error) {

	if len(pred) != maxLen*4 {
		return CellResult{}, fmt.Errorf("expected %d prediction values, got %d",
			maxLen*4, len(pred))
	}

	if len(gtBoxes) != maxLen*4 {
		return CellResult{}, fmt.Errorf("expected %d ground truth values, got %d",
			maxLen*4, len(gtBoxes))
	}

	numReal, err := realBoxCount(maxLen, flags)

	if err != nil {
		return CellResult{}, err
	}

	res := CellResult{
		Assignment:  make([]int, maxLen),
		ConfTargets: make([]int, maxLen),
	}

	for i := range res.Assignment {
		res.Assignment[i] = -1
	}

	// nothing to match, every step targets background
	if numReal == 0 {
		return res, nil
	}

	// pairing cost between every predicted step and every slot.  Padding
	// slots cost nothing so they act as background sinks for the unmatched
	// steps.
	cost := mat.NewDense(maxLen, maxLen, nil)

	for i := 0; i < maxLen; i++ {
		for j := 0; j < numReal; j++ {
			cost.Set(i, j, boxCost(pred[i*4:i*4+4], gtBoxes[j*4:j*4+4]))
		}
	}

	assignment, err := l.assign(maxLen, numReal, cost)

	if err != nil {
		return CellResult{}, err
	}

	for i, j := range assignment {
		if j < 0 {
			continue
		}

		res.Assignment[i] = j
		res.ConfTargets[i] = 1
		res.Loss += cost.At(i, j)
	}

	return res, nil
}

// assign selects the step to slot pairing, honouring the permutation and
// stability parameters.  The returned slice maps steps to real slot indices
// with -1 for background.
func (l *Loss) assign(maxLen, numReal int, cost *mat.Dense) ([]int, error) {

	identity := make([]int, maxLen)

	for i := range identity {
		if i < numReal {
			identity[i] = i
		} else {
			identity[i] = -1
		}
	}

	if !l.Params.PermuteMatches {
		return identity, nil
	}

	rowToCol := make([]int, maxLen)
	colToRow := make([]int, maxLen)

	if err := solveDense(maxLen, cost, rowToCol, colToRow); err != nil {
		return nil, fmt.Errorf("assignment solve failed: %w", err)
	}

	permuted := make([]int, maxLen)

	for i, j := range rowToCol {
		if j < numReal {
			permuted[i] = j
		} else {
			permuted[i] = -1
		}
	}

	// only adopt the permuted assignment when it beats the stable
	// left-to-right pairing by the configured ratio
	if assignmentCost(permuted, cost) < l.Params.MatchRatio*assignmentCost(identity, cost) {
		return permuted, nil
	}

	return identity, nil
}

// assignmentCost sums the cost of the matched pairs in an assignment
func assignmentCost(assignment []int, cost *mat.Dense) float64 {

	total := 0.0

	for i, j := range assignment {
		if j >= 0 {
			total += cost.At(i, j)
		}
	}

	return total
}

// boxCost is the smooth L1 regression cost between a predicted and a ground
// truth box over the four box parameters
func boxCost(pred, gt []float32) float64 {

	total := 0.0

	for k := 0; k < 4; k++ {
		total += smoothL1(float64(pred[k]) - float64(gt[k]))
	}

	return total
}

// smoothL1 is quadratic near zero and linear beyond, keeping the cost
// robust to large regression errors
func smoothL1(d float64) float64 {

	ad := math.Abs(d)

	if ad < 1 {
		return 0.5 * d * d
	}

	return ad - 0.5
}

// realBoxCount validates the unary flag vector and returns the number of
// real ground truth slots it encodes
func realBoxCount(maxLen int, flags []int) (int, error) {

	if len(flags) != maxLen {
		return 0, fmt.Errorf("expected %d box flags, got %d", maxLen, len(flags))
	}

	n := 0

	for i, f := range flags {

		switch f {
		case 1:
			if i != n {
				return 0, fmt.Errorf("box flags are not in unary form: %v", flags)
			}
			n++

		case 0:
			// padding

		default:
			return 0, fmt.Errorf("box flag %d is %d, must be 0 or 1", i, f)
		}
	}

	return n, nil
}
