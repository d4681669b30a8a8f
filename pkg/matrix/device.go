package matrix

// DeviceMatrix is the stamping target used by the circuit assembler.
type DeviceMatrix interface {
	AddElement(i, j int, value float64) // 0-based indexing
	AddRHS(i int, value float64)
}
