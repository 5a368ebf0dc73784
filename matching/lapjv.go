// Package matching computes the permutation-invariant assignment loss for
// grid-based sequential detectors: per grid cell it pairs the predicted box
// sequence with the real ground truth slots by solving a minimum-cost
// bipartite assignment, and emits the per-step confidence targets consumed
// by the downstream classification loss.
package matching

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

const (
	large = 1000000.0
)

// solveDense solves the dense Linear Assignment Problem with the
// Jonker-Volgenant algorithm.  cost is an n x n matrix; on return
// rowToCol[i] is the column assigned to row i and colToRow[j] the inverse.
func solveDense(n int, cost *mat.Dense, rowToCol, colToRow []int) error {

	freeRows := make([]int, n)
	v := make([]float64, n)

	ret := columnReduction(n, cost, freeRows, rowToCol, colToRow, v)

	i := 0

	for ret > 0 && i < 2 {
		ret = augmentingRowReduction(n, cost, ret, freeRows, rowToCol, colToRow, v)
		i++
	}

	if ret > 0 {
		if err := augment(n, cost, ret, freeRows, rowToCol, colToRow, v); err != nil {
			return err
		}
	}

	return nil
}

// columnReduction performs column reduction and reduction transfer for a
// dense cost matrix
func columnReduction(n int, cost *mat.Dense, freeRows, x, y []int, v []float64) int {

	unique := make([]bool, n)

	for i := 0; i < n; i++ {
		x[i] = -1
		v[i] = large
		y[i] = 0
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := cost.At(i, j)
			if c < v[j] {
				v[j] = c
				y[j] = i
			}
		}
	}

	for i := 0; i < n; i++ {
		unique[i] = true
	}

	j := n

	for j > 0 {
		j--
		i := y[j]
		if x[i] < 0 {
			x[i] = j
		} else {
			unique[i] = false
			y[j] = -1
		}
	}

	nFreeRows := 0

	for i := 0; i < n; i++ {

		if x[i] < 0 {
			freeRows[nFreeRows] = i
			nFreeRows++

		} else if unique[i] {

			j := x[i]
			minVal := large

			for j2 := 0; j2 < n; j2++ {
				if j2 == j {
					continue
				}

				c := cost.At(i, j2) - v[j2]

				if c < minVal {
					minVal = c
				}
			}

			v[j] -= minVal
		}
	}

	return nFreeRows
}

// augmentingRowReduction performs augmenting row reduction for a dense cost
// matrix
func augmentingRowReduction(n int, cost *mat.Dense, nFreeRows int, freeRows,
	x, y []int, v []float64) int {

	current := 0
	newFreeRows := 0
	rrCnt := 0

	for current < nFreeRows {

		rrCnt++
		freeI := freeRows[current]
		current++

		j1 := 0
		v1 := cost.At(freeI, 0) - v[0]
		j2 := -1
		v2 := large

		for j := 1; j < n; j++ {
			c := cost.At(freeI, j) - v[j]
			if c < v2 {
				if c >= v1 {
					v2 = c
					j2 = j
				} else {
					v2 = v1
					v1 = c
					j2 = j1
					j1 = j
				}
			}
		}

		i0 := y[j1]
		v1New := v[j1] - (v2 - v1)
		v1Lowers := v1New < v[j1]

		if rrCnt < current*n {
			if v1Lowers {
				v[j1] = v1New
			} else if i0 >= 0 && j2 >= 0 {
				j1 = j2
				i0 = y[j2]
			}

			if i0 >= 0 {
				if v1Lowers {
					current--
					freeRows[current] = i0
				} else {
					freeRows[newFreeRows] = i0
					newFreeRows++
				}
			}
		} else {
			if i0 >= 0 {
				freeRows[newFreeRows] = i0
				newFreeRows++
			}
		}

		x[freeI] = j1
		y[j1] = freeI
	}

	return newFreeRows
}

// findColumns finds columns with minimum d[j] and puts them on the SCAN list
func findColumns(n int, lo int, d []float64, cols []int) int {

	hi := lo + 1
	mind := d[cols[lo]]

	for k := hi; k < n; k++ {

		j := cols[k]

		if d[j] <= mind {
			if d[j] < mind {
				hi = lo
				mind = d[j]
			}

			cols[k] = cols[hi]
			cols[hi] = j
			hi++
		}
	}

	return hi
}

// scanColumns scans all columns in TODO starting from an arbitrary column in
// SCAN and tries to decrease d of the TODO columns using the SCAN column
func scanColumns(n int, cost *mat.Dense, lo, hi *int, d []float64,
	cols, pred, y []int, v []float64) int {

	for *lo != *hi {

		j := cols[*lo]
		*lo++
		i := y[j]
		mind := d[j]
		h := cost.At(i, j) - v[j] - mind

		for k := *hi; k < n; k++ {
			j = cols[k]
			credIJ := cost.At(i, j) - v[j] - h

			if credIJ < d[j] {
				d[j] = credIJ
				pred[j] = i

				if credIJ == mind {
					if y[j] < 0 {
						return j
					}

					cols[k] = cols[*hi]
					cols[*hi] = j
					(*hi)++
				}
			}
		}
	}

	return -1
}

// shortestPath performs a single iteration of the modified Dijkstra shortest
// path algorithm as explained in the JV paper, for a dense cost matrix
func shortestPath(n int, cost *mat.Dense, startI int, y []int, v []float64,
	pred []int) int {

	lo := 0
	hi := 0
	finalJ := -1
	nReady := 0
	cols := make([]int, n)
	d := make([]float64, n)

	for i := 0; i < n; i++ {
		cols[i] = i
		pred[i] = startI
		d[i] = cost.At(startI, i) - v[i]
	}

	for finalJ == -1 {
		// no columns left on the SCAN list
		if lo == hi {
			nReady = lo
			hi = findColumns(n, lo, d, cols)

			for k := lo; k < hi; k++ {
				j := cols[k]

				if y[j] < 0 {
					finalJ = j
				}
			}
		}

		if finalJ == -1 {
			finalJ = scanColumns(n, cost, &lo, &hi, d, cols, pred, y, v)
		}
	}

	mind := d[cols[lo]]

	for k := 0; k < nReady; k++ {
		j := cols[k]
		v[j] += d[j] - mind
	}

	return finalJ
}

// augment performs augmentation for a dense cost matrix
func augment(n int, cost *mat.Dense, nFreeRows int, freeRows,
	x, y []int, v []float64) error {

	pred := make([]int, n)

	for _, freeI := range freeRows[:nFreeRows] {

		i := -1
		k := 0

		j := shortestPath(n, cost, freeI, y, v, pred)

		if j < 0 {
			return errors.New("assignment augmentation failed: j < 0")
		}

		if j >= n {
			return errors.New("assignment augmentation failed: j >= n")
		}

		for i != freeI {

			i = pred[j]
			y[j] = i
			j, x[i] = x[i], j
			k++

			if k >= n {
				return errors.New("assignment augmentation failed: k >= n")
			}
		}
	}

	return nil
}
