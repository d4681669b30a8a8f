package analysis

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/edp1096/toy-dcop/internal/consts"
	"github.com/edp1096/toy-dcop/pkg/circuit"
)

// ErrNoConvergence reports that the diode states did not settle within the
// iteration budget. It is not a hard failure: the circuit may be well posed.
var ErrNoConvergence = errors.New("analysis: diode states did not converge")

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
	GetResults() map[string][]float64
}

type BaseAnalysis struct {
	Circuit     *circuit.Circuit
	results     map[string][]float64 // key: variable name, value: one entry per solve
	logger      *log.Logger
	convergence struct {
		maxIter int
		abstol  float64
	}
	crossCheck bool
}

type Option func(*BaseAnalysis)

// WithMaxIterations sets the diode state iteration budget.
func WithMaxIterations(n int) Option {
	return func(a *BaseAnalysis) { a.convergence.maxIter = n }
}

// WithAbsTol sets how negative a diode current must be before it opens.
func WithAbsTol(tol float64) Option {
	return func(a *BaseAnalysis) { a.convergence.abstol = tol }
}

// WithCrossCheck re-solves the converged system with the sparse solver and
// records the largest difference in Solution.CrossCheck.
func WithCrossCheck() Option {
	return func(a *BaseAnalysis) { a.crossCheck = true }
}

func WithLogger(l *log.Logger) Option {
	return func(a *BaseAnalysis) {
		if l != nil {
			a.logger = l
		}
	}
}

func NewBaseAnalysis(opts ...Option) *BaseAnalysis {
	ba := &BaseAnalysis{
		results: make(map[string][]float64),
		logger:  log.New(io.Discard, "", 0),
	}

	ba.convergence.maxIter = consts.MaxIterations
	ba.convergence.abstol = consts.AbsTol

	for _, opt := range opts {
		opt(ba)
	}
	return ba
}

func (a *BaseAnalysis) validate() error {
	if a.convergence.maxIter < 1 {
		return fmt.Errorf("max iterations must be >= 1, got %d", a.convergence.maxIter)
	}
	if a.convergence.abstol < 0 {
		return fmt.Errorf("abstol must be >= 0, got %g", a.convergence.abstol)
	}
	return nil
}

func (a *BaseAnalysis) storeSolution(sol *Solution) {
	for n := 1; n < len(sol.Voltages); n++ {
		key := VoltageKey(n)
		a.results[key] = append(a.results[key], sol.Voltages[n])
	}
	for i, p := range a.Circuit.Devices() {
		key := CurrentKey(p.Name)
		a.results[key] = append(a.results[key], sol.Currents[i])
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}

func VoltageKey(node int) string { return fmt.Sprintf("V(%d)", node) }

func CurrentKey(name string) string { return fmt.Sprintf("I(%s)", name) }
