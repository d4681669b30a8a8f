package consts

const (
	MaxIterations = 10    // Diode state iterations per operating point
	AbsTol        = 1e-12 // Current below -AbsTol marks a reverse-biased diode (A)
	GroundNode    = 0     // Reference node, always 0 V

	MaxSweepPoints = 1_000_000 // Points allowed in one DC sweep
)
