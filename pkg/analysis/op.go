package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-dcop/pkg/circuit"
	"github.com/edp1096/toy-dcop/pkg/device"
	"github.com/edp1096/toy-dcop/pkg/matrix"
)

// Solution of one operating point.
type Solution struct {
	Voltages   []float64 // index = node id, Voltages[0] is ground
	Currents   []float64 // one per component, in circuit order; 0 for open diodes
	Conducting []bool    // diode state per component; false for non-diodes
	Iterations int       // factor+solve cycles used
	CrossCheck float64   // max |x_dense - x_sparse|, set by WithCrossCheck
}

type OperatingPoint struct {
	BaseAnalysis
	solution *Solution
}

func NewOP(opts ...Option) *OperatingPoint {
	return &OperatingPoint{
		BaseAnalysis: *NewBaseAnalysis(opts...),
	}
}

func (op *OperatingPoint) Setup(ckt *circuit.Circuit) error {
	if err := op.validate(); err != nil {
		return err
	}
	if err := ckt.Validate(); err != nil {
		return err
	}
	op.Circuit = ckt
	op.solution = nil
	return nil
}

func (op *OperatingPoint) Execute() error {
	if op.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}

	sol, err := op.solve(op.Circuit)
	if err != nil {
		return err
	}

	op.solution = sol
	op.storeSolution(sol)
	return nil
}

// Solution returns the result of the last successful Execute.
func (op *OperatingPoint) Solution() *Solution {
	return op.solution
}

// solve runs the diode state loop. Every diode starts conducting; a diode
// that would need reverse current is opened and its row and column are
// removed for the rest of the call. Open diodes are never closed again.
func (op *OperatingPoint) solve(ckt *circuit.Circuit) (*Solution, error) {
	mat, err := ckt.Assemble()
	if err != nil {
		return nil, err
	}

	devices := ckt.Devices()

	for iter := range op.convergence.maxIter {
		if err := mat.Solve(); err != nil {
			return nil, fmt.Errorf("matrix solve error at iteration %d: %w", iter+1, err)
		}
		x := mat.Solution()

		// A diode conducts for as long as its branch is live.
		opened := 0
		for i, p := range devices {
			branch := ckt.BranchIndex(i)
			if p.C.Kind() != device.KindDiode || !mat.IsLive(branch) {
				continue
			}
			if x[branch] < -op.convergence.abstol {
				mat.Remove(branch)
				opened++
				op.logger.Printf("iteration %d: %s opened (I=%g), %d of %d unknowns live",
					iter+1, p.Name, x[branch], mat.LiveCount(), mat.Size)
			}
		}

		if opened == 0 {
			op.logger.Printf("converged after %d iteration(s)", iter+1)
			sol := op.collect(ckt, mat, iter+1)
			if op.crossCheck {
				if sol.CrossCheck, err = crossCheck(mat); err != nil {
					return nil, err
				}
				op.logger.Printf("sparse cross-check: max |dx| = %g", sol.CrossCheck)
			}
			return sol, nil
		}
	}

	return nil, fmt.Errorf("%w in %d iterations", ErrNoConvergence, op.convergence.maxIter)
}

func (op *OperatingPoint) collect(ckt *circuit.Circuit, mat *matrix.CircuitMatrix, iterations int) *Solution {
	x := mat.Solution()
	sol := &Solution{
		Voltages:   make([]float64, ckt.NumNodes()+1),
		Currents:   make([]float64, ckt.Len()),
		Conducting: make([]bool, ckt.Len()),
		Iterations: iterations,
	}
	for n := 1; n <= ckt.NumNodes(); n++ {
		sol.Voltages[n] = x[ckt.NodeIndex(n)]
	}
	for i, p := range ckt.Devices() {
		branch := ckt.BranchIndex(i)
		sol.Currents[i] = x[branch]
		sol.Conducting[i] = p.C.Kind() == device.KindDiode && mat.IsLive(branch)
	}
	return sol
}

func crossCheck(mat *matrix.CircuitMatrix) (float64, error) {
	xs, err := mat.SolveSparse()
	if err != nil {
		return 0, fmt.Errorf("cross-check: %w", err)
	}
	return floats.Distance(mat.Solution(), xs, math.Inf(1)), nil
}

// Solve computes the DC operating point of the placed components.
//
// Errors match circuit.ErrEmptyCircuit, circuit.ErrInvalidNode,
// device.ErrInvalidValue, matrix.ErrSingular or ErrNoConvergence.
func Solve(placed []device.Placed, opts ...Option) (*Solution, error) {
	return SolveCircuit(circuit.New("", placed...), opts...)
}

func SolveCircuit(ckt *circuit.Circuit, opts ...Option) (*Solution, error) {
	op := NewOP(opts...)
	if err := op.Setup(ckt); err != nil {
		return nil, err
	}
	if err := op.Execute(); err != nil {
		return nil, err
	}
	return op.Solution(), nil
}

// IsSingular reports whether err comes from a singular system.
func IsSingular(err error) bool {
	return errors.Is(err, matrix.ErrSingular)
}
