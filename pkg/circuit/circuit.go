// Package circuit owns the node/element graph the assembler stamps from:
// the node map with ground designation, the ordered element sequence, and
// the previous-state vectors reactive and nonlinear devices read back.
// Grounded on edp1096-toy-spice/pkg/circuit/circuit.go's Circuit type and
// original_source/Circuit.{h,cpp}'s node/element bookkeeping
// (addElement/deleteElement/renameNode/checkConnectivity), generalized
// from the teacher's sparse-matrix-index bookkeeping to the data model
// spec.md §3/§4.1 describes.
package circuit

import (
	"sort"

	"github.com/nodalsim/spicecore/pkg/device"
	"github.com/nodalsim/spicecore/pkg/spicerr"
)

type node struct {
	voltage float64
	ground  bool
}

// Circuit owns a netlist's nodes and elements. The zero value is not
// usable; construct with New.
type Circuit struct {
	name string

	nodes         map[string]*node
	groundKey     string
	nodeLabels    map[string]string
	elements      []device.Device
	elementByName map[string]int

	prevNodeVoltages   map[string]float64
	prevBranchCurrents map[string]float64
}

// New builds an empty circuit with no nodes, elements, or ground node.
func New(name string) *Circuit {
	return &Circuit{
		name:               name,
		nodes:              make(map[string]*node),
		nodeLabels:         make(map[string]string),
		elementByName:      make(map[string]int),
		prevNodeVoltages:   make(map[string]float64),
		prevBranchCurrents: make(map[string]float64),
	}
}

func (c *Circuit) Name() string { return c.name }

func (c *Circuit) ensureNode(key string) *node {
	n, ok := c.nodes[key]
	if !ok {
		n = &node{}
		c.nodes[key] = n
	}
	return n
}

// AddElement registers d, auto-creating any node it references. If d is a
// Ground marker, its sole node becomes the circuit's designated ground.
func (c *Circuit) AddElement(d device.Device) error {
	name := d.Name()
	if _, exists := c.elementByName[name]; exists {
		return spicerr.New(spicerr.DuplicateName, "Circuit.AddElement: element "+name+" already exists")
	}

	for _, key := range d.Nodes() {
		c.ensureNode(key)
	}

	if g, ok := d.(*device.Ground); ok {
		key := g.Nodes()[0]
		c.ensureNode(key).ground = true
		c.groundKey = key
	}

	c.elementByName[name] = len(c.elements)
	c.elements = append(c.elements, d)
	return nil
}

// DeleteElement removes the named element. Nodes it referenced are
// retained even if now orphaned — removing them would renumber the index
// map across deletions, which would surprise any analysis driver holding
// a previously computed index assignment. No Circuit operation removes a
// node once it exists.
func (c *Circuit) DeleteElement(name string) error {
	idx, ok := c.elementByName[name]
	if !ok {
		return spicerr.New(spicerr.NotFound, "Circuit.DeleteElement: element "+name+" not found")
	}
	c.elements = append(c.elements[:idx], c.elements[idx+1:]...)
	delete(c.elementByName, name)
	for n, i := range c.elementByName {
		if i > idx {
			c.elementByName[n] = i - 1
		}
	}
	return nil
}

// RenameNode moves a node's key and rewrites every referring element's
// node fields (via device.NodeRenamer) in place.
func (c *Circuit) RenameNode(oldKey, newKey string) error {
	n, ok := c.nodes[oldKey]
	if !ok {
		return spicerr.New(spicerr.NotFound, "Circuit.RenameNode: node "+oldKey+" not found")
	}
	if _, conflict := c.nodes[newKey]; conflict {
		return spicerr.New(spicerr.Conflict, "Circuit.RenameNode: node "+newKey+" already exists")
	}

	delete(c.nodes, oldKey)
	c.nodes[newKey] = n
	if c.groundKey == oldKey {
		c.groundKey = newKey
	}
	if v, ok := c.prevNodeVoltages[oldKey]; ok {
		delete(c.prevNodeVoltages, oldKey)
		c.prevNodeVoltages[newKey] = v
	}
	if lbl, ok := c.nodeLabels[oldKey]; ok {
		delete(c.nodeLabels, oldKey)
		c.nodeLabels[newKey] = lbl
	}
	for _, d := range c.elements {
		if r, ok := d.(device.NodeRenamer); ok {
			r.RenameNodeRef(oldKey, newKey)
		}
	}
	return nil
}

// Elements returns the element sequence in insertion order.
func (c *Circuit) Elements() []device.Device { return c.elements }

// Element returns the named element, or false if absent.
func (c *Circuit) Element(name string) (device.Device, bool) {
	idx, ok := c.elementByName[name]
	if !ok {
		return nil, false
	}
	return c.elements[idx], true
}

// ListElements returns elements whose Kind matches kind, or every element
// if kind is empty. Grounded on original_source/Circuit.cpp's
// listElements(type_filter).
func (c *Circuit) ListElements(kind string) []device.Device {
	if kind == "" {
		return append([]device.Device(nil), c.elements...)
	}
	out := make([]device.Device, 0, len(c.elements))
	for _, d := range c.elements {
		if d.Kind() == kind {
			out = append(out, d)
		}
	}
	return out
}

// GroundKey returns the designated ground node's key, or "" if none is set.
func (c *Circuit) GroundKey() string { return c.groundKey }

// HasGround reports whether a ground node has been designated.
func (c *Circuit) HasGround() bool { return c.groundKey != "" }

// SetNodeLabel attaches a friendly display label to a node. Inert
// metadata with zero effect on stamping or analysis (SPEC_FULL.md §4).
func (c *Circuit) SetNodeLabel(key, label string) {
	c.ensureNode(key)
	c.nodeLabels[key] = label
}

// NodeLabel returns the label attached to a node key, or "" if none.
func (c *Circuit) NodeLabel(key string) string { return c.nodeLabels[key] }

// NonGroundNodes returns the non-ground node keys in the circuit's
// canonical ordering (alphabetical by key, per spec.md §4.1/§9) along
// with a 1-based index assignment for each.
func (c *Circuit) NonGroundNodes() ([]string, map[string]int) {
	keys := make([]string, 0, len(c.nodes))
	for key, n := range c.nodes {
		if !n.ground {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	index := make(map[string]int, len(keys))
	for i, key := range keys {
		index[key] = i + 1
	}
	return keys, index
}

// Connected performs a breadth-first search through element terminals and
// reports whether every node is reachable from any starting node
// (spec.md §4.1's pre-analysis connectivity guard).
func (c *Circuit) Connected() bool {
	if len(c.nodes) <= 1 {
		return true
	}

	adjacency := make(map[string][]string, len(c.nodes))
	for _, d := range c.elements {
		terminals := d.Nodes()
		for i := range terminals {
			for j := range terminals {
				if i != j {
					adjacency[terminals[i]] = append(adjacency[terminals[i]], terminals[j])
				}
			}
		}
	}

	var start string
	for key := range c.nodes {
		start = key
		break
	}

	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return len(visited) == len(c.nodes)
}

// PrevNodeVoltage returns the last recorded voltage at a node key, 0 if
// never recorded (e.g. before the first operating point).
func (c *Circuit) PrevNodeVoltage(key string) float64 { return c.prevNodeVoltages[key] }

// PrevBranchCurrent returns the last recorded current through a
// voltage-source or inductor branch, 0 if never recorded.
func (c *Circuit) PrevBranchCurrent(name string) float64 { return c.prevBranchCurrents[name] }

// SetPreviousState bulk-replaces the previous-state maps. Called by
// analysis drivers after every Newton iteration (converged or not) and
// after each timestep. Drivers also change source values through
// device.DCSettable during DC sweeps and source stepping.
func (c *Circuit) SetPreviousState(voltages, branchCurrents map[string]float64) {
	c.prevNodeVoltages = voltages
	c.prevBranchCurrents = branchCurrents
}

// ResetPreviousState zeroes every previous-state entry (spec.md §4.5's
// Use-Initial-Conditions path).
func (c *Circuit) ResetPreviousState() {
	c.prevNodeVoltages = make(map[string]float64)
	c.prevBranchCurrents = make(map[string]float64)
}
