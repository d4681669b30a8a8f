package device

import "github.com/edp1096/toy-dcop/pkg/matrix"

// Diode is an ideal piecewise-linear diode. While conducting it holds
// V(P) - V(Q) = Vd; once open it is dropped from the system.
type Diode struct {
	Vd float64
}

func (d Diode) Kind() Kind     { return KindDiode }
func (d Diode) Value() float64 { return d.Vd }
func (Diode) sealed()          {}

// StampBranch stamps the conducting model. The branch row reads
// V(Q) - V(P) = rhs, so the forward drop enters negated.
func (d Diode) StampBranch(mat matrix.DeviceMatrix, row int) {
	mat.AddRHS(row, -d.Vd)
}
