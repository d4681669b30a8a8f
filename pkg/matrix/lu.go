package matrix

import "math"

// Factor reduces a in place to its LU factors with partial pivoting.
// Below the diagonal a holds the multipliers of L (unit diagonal implied),
// the diagonal and above hold U. Rows are swapped physically; the returned
// permutation maps each factored row to its original row, so P·A = L·U.
func Factor(a *Dense) ([]int, error) {
	n := a.n

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	for k := 0; k < n; k++ {
		// Pivot: largest magnitude in column k, first row wins ties
		pivotRow := k
		maxAbs := 0.0
		for i := k; i < n; i++ {
			if v := math.Abs(a.At(i, k)); v > maxAbs {
				maxAbs = v
				pivotRow = i
			}
		}
		if maxAbs == 0 {
			return nil, ErrSingular
		}

		a.SwapRows(k, pivotRow)
		perm[k], perm[pivotRow] = perm[pivotRow], perm[k]

		// Elimination
		pivot := a.At(k, k)
		rowK := a.Row(k)
		for i := k + 1; i < n; i++ {
			rowI := a.Row(i)
			if rowI[k] == 0 {
				continue
			}
			m := rowI[k] / pivot
			rowI[k] = m
			for j := k + 1; j < n; j++ {
				rowI[j] -= m * rowK[j]
			}
		}
	}

	return perm, nil
}

// SolveLU solves A·x = b given the output of Factor.
func SolveLU(lu *Dense, perm []int, b []float64) ([]float64, error) {
	n := lu.n
	if len(perm) != n || len(b) != n {
		return nil, ErrDimensionMismatch
	}

	// Forward substitution, L has a unit diagonal
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[perm[i]]
		row := lu.Row(i)
		for j := 0; j < i; j++ {
			sum -= row[j] * y[j]
		}
		y[i] = sum
	}

	// Back substitution
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		row := lu.Row(i)
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= row[j] * x[j]
		}
		if row[i] == 0 {
			return nil, ErrSingular
		}
		x[i] = sum / row[i]
	}

	return x, nil
}

// LinearSolve solves A·x = b without modifying a.
func LinearSolve(a *Dense, b []float64) ([]float64, error) {
	if len(b) != a.n {
		return nil, ErrDimensionMismatch
	}
	lu := a.Clone()
	perm, err := Factor(lu)
	if err != nil {
		return nil, err
	}
	return SolveLU(lu, perm, b)
}
