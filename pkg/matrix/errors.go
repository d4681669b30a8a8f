package matrix

import "errors"

var (
	// ErrSingular is returned when no non-zero pivot exists for a column.
	ErrSingular = errors.New("matrix: singular matrix")

	// ErrNonSquare is returned when a square matrix was required.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrDimensionMismatch is returned when vector and matrix sizes disagree.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrInvalidDimensions is returned for non-positive sizes.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")
)
