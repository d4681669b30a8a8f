package matrix

import (
	"fmt"
	"strings"
)

// Dense is a square row-major matrix. Element (i, j) lives at data[i*n+j].
type Dense struct {
	n    int
	data []float64
}

func NewDense(n int) (*Dense, error) {
	if n <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &Dense{n: n, data: make([]float64, n*n)}, nil
}

// NewDenseFrom copies rows into a new matrix. Every row must have len(rows) entries.
func NewDenseFrom(rows [][]float64) (*Dense, error) {
	n := len(rows)
	m, err := NewDense(n)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d entries, want %d: %w", i, len(row), n, ErrNonSquare)
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	return m, nil
}

func (m *Dense) N() int { return m.n }

func (m *Dense) At(i, j int) float64 { return m.data[i*m.n+j] }

func (m *Dense) Set(i, j int, v float64) { m.data[i*m.n+j] = v }

func (m *Dense) Add(i, j int, v float64) { m.data[i*m.n+j] += v }

// Row returns row i as a slice sharing the matrix storage.
func (m *Dense) Row(i int) []float64 { return m.data[i*m.n : (i+1)*m.n] }

func (m *Dense) SwapRows(a, b int) {
	if a == b {
		return
	}
	ra, rb := m.Row(a), m.Row(b)
	for j := range ra {
		ra[j], rb[j] = rb[j], ra[j]
	}
}

func (m *Dense) Clone() *Dense {
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return &Dense{n: m.n, data: data}
}

// Induced copies the submatrix made of the given rows and the same columns,
// in the given order, into a fresh buffer.
func (m *Dense) Induced(idx []int) (*Dense, error) {
	out, err := NewDense(len(idx))
	if err != nil {
		return nil, err
	}
	for a, i := range idx {
		src := m.Row(i)
		dst := out.Row(a)
		for b, j := range idx {
			dst[b] = src[j]
		}
	}
	return out, nil
}

// MulVec returns m·x.
func (m *Dense) MulVec(x []float64) ([]float64, error) {
	if len(x) != m.n {
		return nil, ErrDimensionMismatch
	}
	y := make([]float64, m.n)
	for i := 0; i < m.n; i++ {
		sum := 0.0
		for j, a := range m.Row(i) {
			sum += a * x[j]
		}
		y[i] = sum
	}
	return y, nil
}

func (m *Dense) String() string {
	var sb strings.Builder
	for i := 0; i < m.n; i++ {
		sb.WriteString("[")
		for j, v := range m.Row(i) {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%g", v)
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
