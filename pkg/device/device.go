package device

import (
	"errors"
	"fmt"
	"math"

	"github.com/edp1096/toy-dcop/pkg/matrix"
)

var ErrInvalidValue = errors.New("device: value must be finite")

type Kind int

const (
	KindVoltage Kind = iota
	KindResistor
	KindDiode
)

func (k Kind) String() string {
	switch k {
	case KindVoltage:
		return "V"
	case KindResistor:
		return "R"
	case KindDiode:
		return "D"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Component is one of Voltage, Resistor or Diode.
//
// StampBranch writes the constitutive term of the component into its own
// branch equation row. Terminal (incidence) terms are written by the circuit.
type Component interface {
	Kind() Kind
	Value() float64
	StampBranch(mat matrix.DeviceMatrix, row int)

	sealed()
}

// Placed is a component connected from node P to node Q.
// Branch current is positive when it flows from P to Q through the component.
type Placed struct {
	Name string
	C    Component
	P, Q int
}

func (p Placed) Validate() error {
	if p.C == nil {
		return fmt.Errorf("%s: missing component", p.Name)
	}
	if v := p.C.Value(); math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s: %g: %w", p.Name, v, ErrInvalidValue)
	}
	return nil
}

func (p Placed) String() string {
	if p.C == nil {
		return fmt.Sprintf("%s %d %d <nil>", p.Name, p.P, p.Q)
	}
	return fmt.Sprintf("%s %d %d %g", p.Name, p.P, p.Q, p.C.Value())
}

// V places a voltage source that raises node q v volts above node p.
func V(v float64, p, q int) Placed { return Placed{C: Voltage{V: v}, P: p, Q: q} }

// R places a resistor between p and q.
func R(r float64, p, q int) Placed { return Placed{C: Resistor{R: r}, P: p, Q: q} }

// D places an ideal diode with anode p and cathode q.
func D(vd float64, p, q int) Placed { return Placed{C: Diode{Vd: vd}, P: p, Q: q} }
