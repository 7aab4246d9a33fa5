package device

import "github.com/nodalsim/spicecore/pkg/matrix"

// Ground marks a node as the circuit's reference (0V) node. It makes no
// numerical contribution — the assembler omits the ground row/column
// entirely — so Stamp is a no-op; the element exists only so the circuit
// can record which node carries the ground flag and so `list`/`save`
// round-trip the marker like any other element (spec.md §3, §6).
type Ground struct {
	base
}

func NewGround(name, node string) *Ground {
	return &Ground{base: base{name: name, kind: "GND", nodes: []string{node}}}
}

func (g *Ground) Stamp(matrix.DeviceMatrix, *CircuitStatus) error { return nil }
