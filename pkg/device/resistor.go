package device

import "github.com/edp1096/toy-dcop/pkg/matrix"

// Resistor obeys V(P) - V(Q) = I·R.
type Resistor struct {
	R float64
}

func (r Resistor) Kind() Kind     { return KindResistor }
func (r Resistor) Value() float64 { return r.R }
func (Resistor) sealed()          {}

func (r Resistor) StampBranch(mat matrix.DeviceMatrix, row int) {
	mat.AddElement(row, row, r.R)
}
