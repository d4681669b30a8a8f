package circuit

import (
	"errors"
	"fmt"

	"github.com/edp1096/toy-dcop/internal/consts"
	"github.com/edp1096/toy-dcop/pkg/device"
	"github.com/edp1096/toy-dcop/pkg/matrix"
)

var (
	ErrEmptyCircuit = errors.New("circuit: no components")
	ErrInvalidNode  = errors.New("circuit: node id must be non-negative")
)

// Circuit is an ordered list of placed components. The position of a
// component is its branch index and the order in which currents are reported.
//
// Unknowns: x[0..C-1] are branch currents, x[C..C+N-1] are the voltages of
// nodes 1..N. Rows follow the same split: branch equations, then KCL.
type Circuit struct {
	name     string
	devices  []device.Placed
	numNodes int
}

func New(name string, placed ...device.Placed) *Circuit {
	c := &Circuit{name: name, devices: make([]device.Placed, 0, len(placed))}
	for _, p := range placed {
		c.Add(p)
	}
	return c
}

// Add appends p. Unnamed components are named after their kind and position.
func (c *Circuit) Add(p device.Placed) {
	if p.Name == "" && p.C != nil {
		p.Name = fmt.Sprintf("%s%d", p.C.Kind(), len(c.devices)+1)
	}
	c.devices = append(c.devices, p)
	c.numNodes = max(c.numNodes, p.P, p.Q)
}

func (c *Circuit) Name() string { return c.name }

// Len is the number of components (C).
func (c *Circuit) Len() int { return len(c.devices) }

// NumNodes is the highest node id referenced (N).
func (c *Circuit) NumNodes() int { return c.numNodes }

// Size is the dimension of the full system, C+N.
func (c *Circuit) Size() int { return len(c.devices) + c.numNodes }

func (c *Circuit) Devices() []device.Placed { return c.devices }

func (c *Circuit) Device(i int) device.Placed { return c.devices[i] }

// Find returns the index of the component with the given name, or -1.
func (c *Circuit) Find(name string) int {
	for i, p := range c.devices {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// With returns a copy of the circuit where component i is replaced by comp.
func (c *Circuit) With(i int, comp device.Component) *Circuit {
	out := &Circuit{
		name:     c.name,
		devices:  make([]device.Placed, len(c.devices)),
		numNodes: c.numNodes,
	}
	copy(out.devices, c.devices)
	out.devices[i].C = comp
	return out
}

// BranchIndex is the unknown/row index of component i.
func (c *Circuit) BranchIndex(i int) int { return i }

// NodeIndex is the unknown/row index of node n, or -1 for ground.
func (c *Circuit) NodeIndex(n int) int {
	if n == consts.GroundNode {
		return -1
	}
	return len(c.devices) + n - 1
}

func (c *Circuit) Validate() error {
	if len(c.devices) == 0 {
		return ErrEmptyCircuit
	}
	for _, p := range c.devices {
		if p.P < 0 || p.Q < 0 {
			return fmt.Errorf("%s (%d, %d): %w", p.Name, p.P, p.Q, ErrInvalidNode)
		}
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Circuit) CreateMatrix() (*matrix.CircuitMatrix, error) {
	return matrix.NewMatrix(c.Size())
}

// Stamp writes the incidence terms of every component into its branch row
// and the KCL rows of its terminals, then lets the component stamp its
// constitutive term.
func (c *Circuit) Stamp(mat matrix.DeviceMatrix) error {
	if err := c.Validate(); err != nil {
		return err
	}

	for i, p := range c.devices {
		branch := c.BranchIndex(i)

		if p.P != consts.GroundNode {
			n := c.NodeIndex(p.P)
			mat.AddElement(branch, n, -1)
			mat.AddElement(n, branch, -1)
		}
		if p.Q != consts.GroundNode {
			n := c.NodeIndex(p.Q)
			mat.AddElement(branch, n, 1)
			mat.AddElement(n, branch, 1)
		}

		p.C.StampBranch(mat, branch)
	}
	return nil
}

// Assemble builds a fresh matrix and stamps the circuit into it.
func (c *Circuit) Assemble() (*matrix.CircuitMatrix, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mat, err := c.CreateMatrix()
	if err != nil {
		return nil, err
	}
	if err := c.Stamp(mat); err != nil {
		return nil, fmt.Errorf("stamping error: %w", err)
	}
	return mat, nil
}
