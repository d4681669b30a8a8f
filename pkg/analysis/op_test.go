package analysis_test

import (
	"bytes"
	"fmt"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/edp1096/toy-dcop/internal/consts"
	"github.com/edp1096/toy-dcop/pkg/analysis"
	"github.com/edp1096/toy-dcop/pkg/circuit"
	"github.com/edp1096/toy-dcop/pkg/device"
	"github.com/edp1096/toy-dcop/pkg/matrix"
)

const tol = 1e-9

// cascade needs three passes: Da opens first, which turns Db around.
func cascade() []device.Placed {
	return []device.Placed{
		device.V(3, 0, 1),
		{Name: "Db", C: device.Diode{Vd: 0.7}, P: 1, Q: 2},
		device.R(1000, 2, 0),
		{Name: "Da", C: device.Diode{Vd: 0.7}, P: 3, Q: 2},
		device.R(10, 3, 0),
		device.V(5, 0, 4),
		device.R(100, 4, 2),
	}
}

// OperatingPointSuite checks solved circuits against hand calculations.
type OperatingPointSuite struct {
	suite.Suite
}

func TestOperatingPointSuite(t *testing.T) {
	suite.Run(t, new(OperatingPointSuite))
}

// TestSingleResistor: 3 V across 220 Ω.
func (s *OperatingPointSuite) TestSingleResistor() {
	sol, err := analysis.Solve([]device.Placed{
		device.V(3, 0, 1),
		device.R(220, 1, 0),
	})
	require.NoError(s.T(), err)

	require.Equal(s.T(), 1, sol.Iterations)
	require.Len(s.T(), sol.Voltages, 2)
	require.Zero(s.T(), sol.Voltages[0], "ground")
	require.InDelta(s.T(), 3.0, sol.Voltages[1], tol)
	require.InDelta(s.T(), 3.0/220, sol.Currents[0], tol)
	require.InDelta(s.T(), 3.0/220, sol.Currents[1], tol)
}

// TestSeriesResistors: two equal resistors halve the source.
func (s *OperatingPointSuite) TestSeriesResistors() {
	sol, err := analysis.Solve([]device.Placed{
		device.V(3, 0, 1),
		device.R(220, 1, 2),
		device.R(220, 2, 0),
	})
	require.NoError(s.T(), err)

	require.InDelta(s.T(), 3.0, sol.Voltages[1], tol)
	require.InDelta(s.T(), 1.5, sol.Voltages[2], tol)
	for i, c := range sol.Currents {
		require.InDelta(s.T(), 3.0/440, c, tol, "current %d", i)
	}
}

// TestVoltageDivider: 100 Ω over 200 Ω from 3 V.
func (s *OperatingPointSuite) TestVoltageDivider() {
	sol, err := analysis.Solve([]device.Placed{
		device.V(3, 0, 1),
		device.R(100, 1, 2),
		device.R(200, 2, 0),
	})
	require.NoError(s.T(), err)

	require.InDelta(s.T(), 3.0, sol.Voltages[1], tol)
	require.InDelta(s.T(), 2.0, sol.Voltages[2], tol)
	require.InDeltaSlice(s.T(), []float64{0.01, 0.01, 0.01}, sol.Currents, tol)
	require.Equal(s.T(), []bool{false, false, false}, sol.Conducting)
}

// TestSeriesDiode: a forward diode pins its anode 1.2 V above ground.
func (s *OperatingPointSuite) TestSeriesDiode() {
	sol, err := analysis.Solve([]device.Placed{
		device.V(3, 0, 1),
		device.R(220, 1, 2),
		device.D(1.2, 2, 0),
	})
	require.NoError(s.T(), err)

	require.Equal(s.T(), 1, sol.Iterations)
	require.InDelta(s.T(), 3.0, sol.Voltages[1], tol)
	require.InDelta(s.T(), 1.2, sol.Voltages[2], tol)
	require.InDelta(s.T(), 1.8/220, sol.Currents[2], tol)
	require.True(s.T(), sol.Conducting[2])
}

// TestReverseDiode: the diode opens and carries nothing.
func (s *OperatingPointSuite) TestReverseDiode() {
	placed := []device.Placed{
		device.V(3, 0, 1),
		device.R(220, 1, 2),
		device.D(1.2, 0, 2),
	}

	sol, err := analysis.Solve(placed)
	require.NoError(s.T(), err)

	require.Equal(s.T(), 2, sol.Iterations)
	require.False(s.T(), sol.Conducting[2])
	require.Zero(s.T(), sol.Currents[2])
	require.InDelta(s.T(), 0.0, sol.Currents[1], tol)
	require.InDelta(s.T(), 3.0, sol.Voltages[2], tol)

	_, err = analysis.Solve(placed, analysis.WithMaxIterations(1))
	require.ErrorIs(s.T(), err, analysis.ErrNoConvergence)
}

// TestCascade: opening one diode reverses another.
func (s *OperatingPointSuite) TestCascade() {
	var trace bytes.Buffer
	sol, err := analysis.Solve(cascade(), analysis.WithLogger(log.New(&trace, "", 0)))
	require.NoError(s.T(), err)

	require.Equal(s.T(), 3, sol.Iterations)
	require.False(s.T(), sol.Conducting[1], "Db")
	require.False(s.T(), sol.Conducting[3], "Da")
	require.Zero(s.T(), sol.Currents[1])
	require.Zero(s.T(), sol.Currents[3])

	require.InDelta(s.T(), 5000.0/1100, sol.Voltages[2], tol)
	require.InDelta(s.T(), 0.0, sol.Voltages[3], tol)
	require.InDelta(s.T(), 5.0/1100, sol.Currents[6], tol)
	require.InDelta(s.T(), 5.0/1100, sol.Currents[5], tol)
	require.InDelta(s.T(), 0.0, sol.Currents[0], tol)

	lines := strings.Split(strings.TrimSpace(trace.String()), "\n")
	require.Len(s.T(), lines, 3)
	require.True(s.T(), strings.HasPrefix(lines[0], "iteration 1: Da opened (I=-"), lines[0])
	require.True(s.T(), strings.HasPrefix(lines[1], "iteration 2: Db opened (I=-"), lines[1])
	require.Equal(s.T(), "converged after 3 iteration(s)", lines[2])
}

// TestIterationBudget: two passes are not enough for the cascade.
func (s *OperatingPointSuite) TestIterationBudget() {
	_, err := analysis.Solve(cascade(), analysis.WithMaxIterations(2))
	require.ErrorIs(s.T(), err, analysis.ErrNoConvergence)
	require.Contains(s.T(), err.Error(), "in 2 iterations")

	_, err = analysis.Solve(cascade(), analysis.WithMaxIterations(3))
	require.NoError(s.T(), err)
}

// diodeLadder clamps nodes 2..stages+1 to ground through diodes and feeds the
// ladder from -10 V at node 1. Each opened diode lets the negative side reach
// one node further, so the diodes open one per iteration.
func diodeLadder(stages int) []device.Placed {
	top := stages + 2
	placed := []device.Placed{
		device.V(-10, 0, 1),
		device.V(10.7, 0, top),
	}
	for n := 1; n <= stages; n++ {
		placed = append(placed, device.R(1000, n, n+1))
	}
	for n := 2; n <= stages+1; n++ {
		placed = append(placed,
			device.Placed{Name: fmt.Sprintf("D%d", n-1), C: device.Diode{Vd: 0.7}, P: n, Q: 0},
			device.R(1e6, top, n),
		)
	}
	return placed
}

// TestDefaultIterationCap: ten diodes opening one by one need eleven passes.
func (s *OperatingPointSuite) TestDefaultIterationCap() {
	var trace bytes.Buffer
	_, err := analysis.Solve(diodeLadder(consts.MaxIterations), analysis.WithLogger(log.New(&trace, "", 0)))
	require.ErrorIs(s.T(), err, analysis.ErrNoConvergence)
	require.Contains(s.T(), err.Error(), fmt.Sprintf("in %d iterations", consts.MaxIterations))
	require.Equal(s.T(), consts.MaxIterations, strings.Count(trace.String(), " opened "))

	sol, err := analysis.Solve(diodeLadder(consts.MaxIterations), analysis.WithMaxIterations(consts.MaxIterations+1))
	require.NoError(s.T(), err)
	require.Equal(s.T(), consts.MaxIterations+1, sol.Iterations)
	for i, p := range diodeLadder(consts.MaxIterations) {
		if p.C.Kind() == device.KindDiode {
			require.False(s.T(), sol.Conducting[i], p.Name)
			require.Zero(s.T(), sol.Currents[i], p.Name)
		}
	}
	require.InDelta(s.T(), -10.0, sol.Voltages[1], tol)
	require.Less(s.T(), sol.Voltages[consts.MaxIterations+1], 0.0, "far end pulled negative")

	// One stage fewer fits in the default budget.
	sol, err = analysis.Solve(diodeLadder(consts.MaxIterations - 1))
	require.NoError(s.T(), err)
	require.Equal(s.T(), consts.MaxIterations, sol.Iterations)
}

// TestSingular: parallel sources disagree on node 1.
func (s *OperatingPointSuite) TestSingular() {
	_, err := analysis.Solve([]device.Placed{
		device.V(3, 0, 1),
		device.V(5, 0, 1),
		device.R(1000, 1, 0),
	})
	require.Error(s.T(), err)
	require.ErrorIs(s.T(), err, matrix.ErrSingular)
	require.True(s.T(), analysis.IsSingular(err))
	require.NotErrorIs(s.T(), err, analysis.ErrNoConvergence)
}

// TestFloatingNode: a node reached by nothing but a resistor stub.
func (s *OperatingPointSuite) TestFloatingNode() {
	_, err := analysis.Solve([]device.Placed{
		device.V(3, 0, 1),
		device.R(100, 1, 0),
		device.R(100, 2, 3),
	})
	require.True(s.T(), analysis.IsSingular(err))
}

// TestInvalidInput covers what is rejected before any solve.
func (s *OperatingPointSuite) TestInvalidInput() {
	_, err := analysis.Solve(nil)
	require.ErrorIs(s.T(), err, circuit.ErrEmptyCircuit)

	_, err = analysis.Solve([]device.Placed{device.R(100, -1, 0)})
	require.ErrorIs(s.T(), err, circuit.ErrInvalidNode)

	_, err = analysis.Solve([]device.Placed{device.V(math.NaN(), 0, 1), device.R(1, 1, 0)})
	require.ErrorIs(s.T(), err, device.ErrInvalidValue)

	_, err = analysis.Solve([]device.Placed{device.V(1, 0, 1), device.R(1, 1, 0)}, analysis.WithMaxIterations(0))
	require.ErrorContains(s.T(), err, "max iterations")

	_, err = analysis.Solve([]device.Placed{device.V(1, 0, 1), device.R(1, 1, 0)}, analysis.WithAbsTol(-1))
	require.ErrorContains(s.T(), err, "abstol")
}

// TestBridgeNetwork: KCL at every node and Ohm's law on every resistor.
func (s *OperatingPointSuite) TestBridgeNetwork() {
	placed := []device.Placed{
		device.V(10, 0, 1),
		device.R(100, 1, 2),
		device.R(220, 1, 3),
		device.R(330, 2, 3),
		device.R(470, 2, 0),
		device.R(680, 3, 0),
		device.D(0.6, 3, 4),
		device.R(1000, 4, 0),
	}
	sol, err := analysis.Solve(placed)
	require.NoError(s.T(), err)

	net := make([]float64, len(sol.Voltages))
	for i, p := range placed {
		net[p.P] -= sol.Currents[i]
		net[p.Q] += sol.Currents[i]

		if r, ok := p.C.(device.Resistor); ok {
			drop := sol.Voltages[p.P] - sol.Voltages[p.Q]
			require.InDelta(s.T(), drop, sol.Currents[i]*r.R, 1e-9, "Ohm's law on component %d", i)
		}
	}
	for n := 1; n < len(net); n++ {
		require.InDelta(s.T(), 0.0, net[n], 1e-12, "KCL at node %d", n)
	}

	require.True(s.T(), sol.Conducting[6])
	require.InDelta(s.T(), 0.6, sol.Voltages[3]-sol.Voltages[4], tol)
}

// TestCrossCheck: the sparse solver agrees with the dense LU.
func (s *OperatingPointSuite) TestCrossCheck() {
	sol, err := analysis.Solve(cascade(), analysis.WithCrossCheck())
	require.NoError(s.T(), err)
	require.Less(s.T(), sol.CrossCheck, 1e-9)

	sol, err = analysis.Solve(cascade())
	require.NoError(s.T(), err)
	require.Zero(s.T(), sol.CrossCheck, "not computed unless asked")
}

func TestOperatingPointResults(t *testing.T) {
	ckt := circuit.New("divider",
		device.V(3, 0, 1),
		device.Placed{Name: "Rtop", C: device.Resistor{R: 100}, P: 1, Q: 2},
		device.R(200, 2, 0),
	)

	op := analysis.NewOP()
	require.NoError(t, op.Setup(ckt))
	require.NoError(t, op.Execute())

	results := op.GetResults()
	assert.Len(t, results, 5)
	assert.InDeltaSlice(t, []float64{2}, results["V(2)"], tol)
	assert.InDeltaSlice(t, []float64{0.01}, results["I(Rtop)"], tol)
	assert.Contains(t, results, "I(V1)")
	assert.Contains(t, results, "I(R3)")

	assert.Equal(t, "V(7)", analysis.VoltageKey(7))
	assert.Equal(t, "I(D1)", analysis.CurrentKey("D1"))
}

func TestOperatingPointWithoutSetup(t *testing.T) {
	err := analysis.NewOP().Execute()
	assert.ErrorContains(t, err, "circuit not set")
}

func TestSolveAbsTol(t *testing.T) {
	// The diode would need about -0.7 µA; a loose tolerance keeps it conducting.
	placed := []device.Placed{
		device.V(0.7, 0, 1),
		device.R(1, 1, 0),
		device.R(1e6, 1, 2),
		device.D(0.701, 2, 0),
		device.R(1e6, 2, 0),
	}

	sol, err := analysis.Solve(placed)
	require.NoError(t, err)
	assert.False(t, sol.Conducting[3])

	sol, err = analysis.Solve(placed, analysis.WithAbsTol(1e-3))
	require.NoError(t, err)
	assert.True(t, sol.Conducting[3])
	assert.Equal(t, 1, sol.Iterations)
}
