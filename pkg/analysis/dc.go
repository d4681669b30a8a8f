package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-dcop/internal/consts"
	"github.com/edp1096/toy-dcop/pkg/circuit"
	"github.com/edp1096/toy-dcop/pkg/device"
)

// SweepKey holds the swept source value in the results map.
const SweepKey = "SWEEP"

// DCSweep steps one voltage source and solves the operating point at each value.
type DCSweep struct {
	BaseAnalysis
	sourceName string
	start      float64
	stop       float64
	step       float64
	sourceIdx  int
	sweepVals  []float64
	opts       []Option
}

func NewDCSweep(source string, start, stop, step float64, opts ...Option) *DCSweep {
	return &DCSweep{
		BaseAnalysis: *NewBaseAnalysis(opts...),
		sourceName:   source,
		start:        start,
		stop:         stop,
		step:         step,
		sourceIdx:    -1,
		opts:         opts,
	}
}

func (dc *DCSweep) Setup(ckt *circuit.Circuit) error {
	if err := dc.validate(); err != nil {
		return err
	}
	if err := ckt.Validate(); err != nil {
		return err
	}

	idx := ckt.Find(dc.sourceName)
	if idx < 0 {
		return fmt.Errorf("source %s not found", dc.sourceName)
	}
	if kind := ckt.Device(idx).C.Kind(); kind != device.KindVoltage {
		return fmt.Errorf("source %s: cannot sweep kind %s", dc.sourceName, kind)
	}

	if !(dc.step > 0) || math.IsInf(dc.step, 0) {
		return fmt.Errorf("sweep step must be positive, got %g", dc.step)
	}
	if !isFinite(dc.start) || !isFinite(dc.stop) {
		return fmt.Errorf("sweep bounds must be finite, got %g to %g", dc.start, dc.stop)
	}
	if dc.stop < dc.start {
		return fmt.Errorf("sweep stop %g is below start %g", dc.stop, dc.start)
	}

	// Points are placed on an even grid so the last value lands on stop
	// when (stop-start) is a whole number of steps.
	points := math.Floor((dc.stop-dc.start)/dc.step+1e-9) + 1
	if !isFinite(points) || points > consts.MaxSweepPoints {
		return fmt.Errorf("sweep from %g to %g by %g exceeds %d points", dc.start, dc.stop, dc.step, consts.MaxSweepPoints)
	}
	n := int(points)
	last := dc.start + float64(n-1)*dc.step
	if n == 1 {
		dc.sweepVals = []float64{dc.start}
	} else {
		dc.sweepVals = floats.Span(make([]float64, n), dc.start, last)
	}

	dc.Circuit = ckt
	dc.sourceIdx = idx
	return nil
}

func (dc *DCSweep) Execute() error {
	if dc.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}

	for _, val := range dc.sweepVals {
		ckt := dc.Circuit.With(dc.sourceIdx, device.Voltage{V: val})

		op := NewOP(dc.opts...)
		if err := op.Setup(ckt); err != nil {
			return fmt.Errorf("setup error at %s=%g: %w", dc.sourceName, val, err)
		}
		if err := op.Execute(); err != nil {
			return fmt.Errorf("convergence error at %s=%g: %w", dc.sourceName, val, err)
		}

		dc.results[SweepKey] = append(dc.results[SweepKey], val)
		dc.storeSolution(op.Solution())
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (dc *DCSweep) SweepValues() []float64 {
	return dc.sweepVals
}
