package netlist

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/nodalsim/spicecore/pkg/circuit"
)

// LoadFile opens path and loads it into ckt via Load. Used both for the
// initial netlist file cmd/spice is pointed at and for the `newfile`
// command's file-replay semantics (spec.md §6).
func LoadFile(ckt *circuit.Circuit, path string) ([]*Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("netlist.LoadFile: %w", err)
	}
	defer f.Close()
	return Load(ckt, f)
}

// Load reads r line by line (grounded on edp1096-toy-spice/pkg/netlist/
// parser.go's bufio.Scanner-based Parse), applying every mutating command
// to ckt as it is read and collecting every command the caller must still
// act on (list, .nodes, tran, dc, ac, save, newfile) in file order.
func Load(ckt *circuit.Circuit, r io.Reader) ([]*Command, error) {
	var pending []*Command
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		cmd, err := ParseLine(scanner.Text())
		if err != nil {
			return pending, fmt.Errorf("netlist.Load: line %d: %w", lineNo, err)
		}
		if cmd.Kind == KindBlank {
			continue
		}
		if err := Apply(ckt, cmd); err != nil {
			return pending, fmt.Errorf("netlist.Load: line %d: %w", lineNo, err)
		}
		switch cmd.Kind {
		case KindList, KindNodes, KindTran, KindDC, KindAC, KindSave, KindNewfile:
			pending = append(pending, cmd)
		}
	}
	if err := scanner.Err(); err != nil {
		return pending, fmt.Errorf("netlist.Load: %w", err)
	}
	return pending, nil
}
