// cmd/spice is the core's batch/interactive driver: a small cobra CLI
// that loads or replays netlist text, dispatching each embedded tran/dc/ac
// command to pkg/analysis and rendering its result table, grounded on the
// teacher's cmd/main.go (read netlist -> parse -> build circuit -> run
// analyzer -> print results) and generalized from its single-shot,
// single-analysis-per-file flow into a dispatcher over spec.md §6's full
// verb set (add/delete/list/.nodes/rename node/tran/dc/ac/save/newfile),
// since one netlist file may now embed any number of analysis commands.
package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/nodalsim/spicecore/pkg/analysis"
	"github.com/nodalsim/spicecore/pkg/circuit"
	"github.com/nodalsim/spicecore/pkg/diagnostic"
	"github.com/nodalsim/spicecore/pkg/netlist"
	"github.com/nodalsim/spicecore/pkg/util"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "spice",
		Short: "A modified-nodal-analysis circuit simulation core",
	}
	root.AddCommand(runCmd(), replCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <netlist-file>",
		Short: "Load a netlist file and execute every tran/dc/ac command it contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sink := diagnostic.NewLogrus()
			ckt := circuit.New(args[0])
			pending, err := netlist.LoadFile(ckt, args[0])
			if err != nil {
				return err
			}
			return runPending(ckt, pending, sink)
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read netlist commands from stdin, one per line, applying and executing each as it arrives",
		RunE: func(cmd *cobra.Command, args []string) error {
			sink := diagnostic.NewLogrus()
			ckt := circuit.New("repl")
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				c, err := netlist.ParseLine(scanner.Text())
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				if c.Kind == netlist.KindBlank {
					continue
				}
				if err := netlist.Apply(ckt, c); err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				if err := runOne(ckt, c, sink); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
			}
			return scanner.Err()
		},
	}
}

func runPending(ckt *circuit.Circuit, pending []*netlist.Command, sink diagnostic.Sink) error {
	for _, c := range pending {
		if err := runOne(ckt, c, sink); err != nil {
			return err
		}
	}
	return nil
}

func runOne(ckt *circuit.Circuit, c *netlist.Command, sink diagnostic.Sink) error {
	switch c.Kind {
	case netlist.KindList:
		printList(ckt, c.ListKind)
	case netlist.KindNodes:
		printNodes(ckt)
	case netlist.KindTran:
		return runTran(ckt, c.Tran, sink)
	case netlist.KindDC:
		return runDC(ckt, c.DC, sink)
	case netlist.KindAC:
		return runAC(ckt, c.AC, sink)
	case netlist.KindSave:
		return os.WriteFile(c.Path, []byte(ckt.Netlist()), 0o644)
	case netlist.KindNewfile:
		nested, err := netlist.LoadFile(ckt, c.Path)
		if err != nil {
			return err
		}
		return runPending(ckt, nested, sink)
	}
	return nil
}

func printList(ckt *circuit.Circuit, kind string) {
	fmt.Printf("\nElements%s:\n", listSuffix(kind))
	for _, d := range ckt.ListElements(kind) {
		fmt.Printf("  %-6s %-8s %v\n", d.Kind(), d.Name(), d.Nodes())
	}
}

func listSuffix(kind string) string {
	if kind == "" {
		return ""
	}
	return " of type " + kind
}

func printNodes(ckt *circuit.Circuit) {
	nodes, _ := ckt.NonGroundNodes()
	fmt.Println("\nNodes:")
	for _, n := range nodes {
		fmt.Printf("  %s\n", n)
	}
	if ckt.HasGround() {
		fmt.Printf("  %s (ground)\n", ckt.GroundKey())
	}
}

func runTran(ckt *circuit.Circuit, p netlist.TranParams, sink diagnostic.Sink) error {
	tr := analysis.NewTransient(p.Step, p.Stop, p.UIC, sink)
	result, err := tr.Run(ckt)
	if err != nil {
		return err
	}
	printSeries("Transient", "Time", "s", result.Time, result.Signals)
	return nil
}

func runDC(ckt *circuit.Circuit, p netlist.DCParams, sink diagnostic.Sink) error {
	dc := analysis.NewDCSweep(sink)
	if err := dc.AddAxis(ckt, p.Source, p.Start, p.Stop, p.Inc); err != nil {
		return err
	}
	result, err := dc.Run(ckt)
	if err != nil {
		return err
	}
	printSweep(result)
	return nil
}

func runAC(ckt *circuit.Circuit, p netlist.ACParams, sink diagnostic.Sink) error {
	ac := analysis.NewACSweep(sink)
	ac.ExcitationSource = p.Source
	ac.StartFreq = p.FStart
	ac.StopFreq = p.FStop
	ac.NumPoints = p.Points
	ac.Kind = p.Kind
	result, err := ac.Run(ckt)
	if err != nil {
		return err
	}
	printFrequency(result)
	return nil
}

func splitVI(keys []string) (voltages, currents []string) {
	for _, k := range keys {
		switch {
		case len(k) > 2 && k[:2] == "V(":
			voltages = append(voltages, k)
		case len(k) > 2 && k[:2] == "I(":
			currents = append(currents, k)
		}
	}
	sort.Strings(voltages)
	sort.Strings(currents)
	return
}

func printSeries(title, axisName, axisUnit string, axis []float64, signals map[string][]float64) {
	fmt.Printf("\n%s Analysis Results (%d points):\n", title, len(axis))
	var keys []string
	for name := range signals {
		keys = append(keys, name)
	}
	voltages, currents := splitVI(keys)

	for i, x := range axis {
		fmt.Printf("%9s  ", util.FormatValueFactor(x, axisUnit))
		for _, name := range voltages {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(signals[name][i], "V"))
		}
		for _, name := range currents {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(signals[name][i], "A"))
		}
		fmt.Println()
	}
}

func printSweep(result analysis.SweepResult) {
	fmt.Printf("\nDC Sweep Analysis Results (%d points):\n", len(result.Signals["SWEEP1"]))
	var keys []string
	for name := range result.Signals {
		if name == "SWEEP1" || name == "SWEEP2" {
			continue
		}
		keys = append(keys, name)
	}
	voltages, currents := splitVI(keys)

	for i := range result.Signals["SWEEP1"] {
		fmt.Printf("V1=%-9s ", util.FormatValueFactor(result.Signals["SWEEP1"][i], "V"))
		if result.Axes == 2 {
			fmt.Printf("V2=%-9s ", util.FormatValueFactor(result.Signals["SWEEP2"][i], "V"))
		}
		for _, name := range voltages {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(result.Signals[name][i], "V"))
		}
		for _, name := range currents {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(result.Signals[name][i], "A"))
		}
		fmt.Println()
	}
}

func printFrequency(result analysis.FrequencyResult) {
	fmt.Printf("\nAC Analysis Results (%d frequency points):\n", len(result.Freq))
	var keys []string
	for name := range result.Signals {
		keys = append(keys, name)
	}
	voltages, currents := splitVI(keys)

	for i, f := range result.Freq {
		fmt.Printf("%s  ", util.FormatFrequency(f))
		for _, name := range voltages {
			mag, phase := magPhase(result.Signals[name][i])
			fmt.Printf("%s  ", util.FormatSignal(name, mag, phase))
		}
		for _, name := range currents {
			mag, phase := magPhase(result.Signals[name][i])
			fmt.Printf("%s  ", util.FormatSignal(name, mag, phase))
		}
		fmt.Println()
	}
}

func magPhase(v complex128) (mag, phaseDeg float64) {
	mag = math.Hypot(real(v), imag(v))
	phaseDeg = math.Atan2(imag(v), real(v)) * 180 / math.Pi
	return
}
