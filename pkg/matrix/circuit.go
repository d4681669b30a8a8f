package matrix

import (
	"fmt"
	"io"
	"log"
)

// CircuitMatrix is the full-size working system A·x = b of one circuit.
// Indices can be removed (row and column together); Solve works on the
// remaining ones and reports removed unknowns as 0.
type CircuitMatrix struct {
	Size     int
	matrix   *Dense
	rhs      []float64
	solution []float64
	live     []bool
	numLive  int
}

func NewMatrix(size int) (*CircuitMatrix, error) {
	mat, err := NewDense(size)
	if err != nil {
		return nil, fmt.Errorf("creating circuit matrix: %w", err)
	}

	live := make([]bool, size)
	for i := range live {
		live[i] = true
	}

	return &CircuitMatrix{
		Size:     size,
		matrix:   mat,
		rhs:      make([]float64, size),
		solution: make([]float64, size),
		live:     live,
		numLive:  size,
	}, nil
}

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if i < 0 || j < 0 || i >= m.Size || j >= m.Size {
		log.Printf("Warning: Matrix index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size)
		return
	}
	m.matrix.Add(i, j, value)
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if i < 0 || i >= m.Size {
		log.Printf("Warning: RHS index out of bounds (i=%d, size=%d)", i, m.Size)
		return
	}
	m.rhs[i] += value
}

// Remove drops row i and column i from every later Solve.
func (m *CircuitMatrix) Remove(i int) {
	if i < 0 || i >= m.Size || !m.live[i] {
		return
	}
	m.live[i] = false
	m.numLive--
}

func (m *CircuitMatrix) IsLive(i int) bool {
	return i >= 0 && i < m.Size && m.live[i]
}

func (m *CircuitMatrix) LiveCount() int { return m.numLive }

// Solve copies the live part of the system into a scratch buffer, factors
// it and scatters the result back into the full-size solution.
func (m *CircuitMatrix) Solve() error {
	idx := m.liveIndices()
	if len(idx) == 0 {
		return fmt.Errorf("matrix factorization failed: %w", ErrInvalidDimensions)
	}

	work, err := m.matrix.Induced(idx)
	if err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}
	b := make([]float64, len(idx))
	for a, i := range idx {
		b[a] = m.rhs[i]
	}

	perm, err := Factor(work)
	if err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}
	x, err := SolveLU(work, perm, b)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %w", err)
	}

	for i := range m.solution {
		m.solution[i] = 0
	}
	for a, i := range idx {
		m.solution[i] = x[a]
	}

	return nil
}

func (m *CircuitMatrix) liveIndices() []int {
	idx := make([]int, 0, m.numLive)
	for i, ok := range m.live {
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m *CircuitMatrix) At(i, j int) float64 { return m.matrix.At(i, j) }

func (m *CircuitMatrix) RHS() []float64 { return m.rhs }

func (m *CircuitMatrix) Solution() []float64 { return m.solution }

// PrintSystem writes the live equations, one per row, followed by the RHS.
func (m *CircuitMatrix) PrintSystem(w io.Writer) {
	fmt.Fprintf(w, "\nCircuit Equations (%dx%d, %d live):\n", m.Size, m.Size, m.numLive)
	fmt.Fprintln(w, "Branch equations first, followed by node (KCL) equations")

	for i := 0; i < m.Size; i++ {
		if !m.live[i] {
			fmt.Fprintf(w, "Equation %d: removed\n", i)
			continue
		}
		fmt.Fprintf(w, "Equation %d:", i)
		for j := 0; j < m.Size; j++ {
			if !m.live[j] {
				continue
			}
			if v := m.matrix.At(i, j); v != 0 {
				fmt.Fprintf(w, "  %+g*x%d", v, j)
			}
		}
		fmt.Fprintf(w, "  = %g\n", m.rhs[i])
	}
}
