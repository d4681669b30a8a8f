package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

func sparseConfig() *sparse.Configuration {
	return &sparse.Configuration{
		Real:                    true,
		Complex:                 false,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}
}

// SolveSparse solves the live system with the sparse solver instead of the
// dense LU. The result has the same layout as Solution: removed unknowns are 0.
// The receiver is not modified.
func (m *CircuitMatrix) SolveSparse() ([]float64, error) {
	idx := m.liveIndices()
	size := len(idx)
	if size == 0 {
		return nil, fmt.Errorf("sparse factorization failed: %w", ErrInvalidDimensions)
	}

	mat, err := sparse.Create(int64(size), sparseConfig())
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}
	defer mat.Destroy()

	// sparse is 1-based: rhs[0] and solution[0] are unused
	rhs := make([]float64, size+1)
	for a, i := range idx {
		rhs[a+1] = m.rhs[i]
		for b, j := range idx {
			if v := m.matrix.At(i, j); v != 0 {
				mat.GetElement(int64(a+1), int64(b+1)).Real += v
			}
		}
	}

	if err := mat.Factor(); err != nil {
		return nil, fmt.Errorf("sparse factorization failed: %w", err)
	}
	x, err := mat.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("sparse solve failed: %w", err)
	}

	out := make([]float64, m.Size)
	for a, i := range idx {
		out[i] = x[a+1]
	}
	return out, nil
}
