package device

import "github.com/edp1096/toy-dcop/pkg/matrix"

// Voltage is an ideal DC source: V(Q) - V(P) = V.
type Voltage struct {
	V float64
}

func (v Voltage) Kind() Kind     { return KindVoltage }
func (v Voltage) Value() float64 { return v.V }
func (Voltage) sealed()          {}

// StampBranch adds no self term; the branch current is left to KCL.
func (v Voltage) StampBranch(mat matrix.DeviceMatrix, row int) {
	mat.AddRHS(row, v.V)
}
