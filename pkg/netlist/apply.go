package netlist

import "github.com/nodalsim/spicecore/pkg/circuit"

// Apply executes a circuit-mutating command (add/delete/rename node)
// against ckt. List, .nodes, tran, dc, ac, save, and newfile carry no
// circuit mutation of their own — the caller (cmd/spice) reads their
// fields directly and drives pkg/circuit/pkg/analysis/the filesystem.
func Apply(ckt *circuit.Circuit, cmd *Command) error {
	switch cmd.Kind {
	case KindAdd:
		return ckt.AddElement(cmd.Device)
	case KindDelete:
		return ckt.DeleteElement(cmd.Name)
	case KindRenameNode:
		return ckt.RenameNode(cmd.OldNode, cmd.NewNode)
	default:
		return nil
	}
}
