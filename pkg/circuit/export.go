package circuit

import (
	"fmt"
	"strings"

	"github.com/nodalsim/spicecore/pkg/device"
)

// Netlist re-emits every element as an `add` command in insertion order,
// an in-memory equivalent of original_source/Circuit.cpp's saveToFile
// (which re-emits each element's getAddCommandString()). Actual file I/O
// is cmd/spice's concern, not the core library's.
func (c *Circuit) Netlist() string {
	var b strings.Builder
	for _, d := range c.elements {
		b.WriteString(addCommandFor(d))
		b.WriteByte('\n')
	}
	return b.String()
}

func addCommandFor(d device.Device) string {
	nodes := d.Nodes()
	switch dev := d.(type) {
	case *device.Resistor:
		return fmt.Sprintf("add R %s %s %s %g", dev.Name(), nodes[0], nodes[1], dev.R)
	case *device.Capacitor:
		return fmt.Sprintf("add C %s %s %s %g", dev.Name(), nodes[0], nodes[1], dev.C)
	case *device.Inductor:
		return fmt.Sprintf("add L %s %s %s %g", dev.Name(), nodes[0], nodes[1], dev.L)
	case *device.VSource:
		return fmt.Sprintf("add V %s %s %s %s", dev.Name(), nodes[0], nodes[1], waveformArgs(dev.Wave, dev.DC, dev.Pulse, dev.Sin, dev.AC))
	case *device.ISource:
		return fmt.Sprintf("add I %s %s %s %s", dev.Name(), nodes[0], nodes[1], waveformArgs(dev.Wave, dev.DC, dev.Pulse, dev.Sin, device.ACParams{}))
	case *device.VCVS:
		return fmt.Sprintf("add E %s %s %s %s %s %g", dev.Name(), nodes[0], nodes[1], dev.Ctrl[0], dev.Ctrl[1], dev.Gain)
	case *device.VCCS:
		return fmt.Sprintf("add G %s %s %s %s %s %g", dev.Name(), nodes[0], nodes[1], dev.Ctrl[0], dev.Ctrl[1], dev.Gm)
	case *device.CCCS:
		return fmt.Sprintf("add F %s %s %s %s %g", dev.Name(), nodes[0], nodes[1], dev.Control, dev.Gain)
	case *device.CCVS:
		return fmt.Sprintf("add H %s %s %s %s %g", dev.Name(), nodes[0], nodes[1], dev.Control, dev.Rm)
	case *device.Diode:
		return fmt.Sprintf("add D %s %s %s IS=%g ETA=%g VT=%g", dev.Name(), nodes[0], nodes[1], dev.Is, dev.Eta, dev.Vt)
	case *device.Ground:
		return fmt.Sprintf("add GND %s", nodes[0])
	default:
		return fmt.Sprintf("* unknown element %s", d.Name())
	}
}

func waveformArgs(w device.Waveform, dc float64, p device.PulseParams, s device.SinParams, ac device.ACParams) string {
	switch w {
	case device.WavePulse:
		return fmt.Sprintf("PULSE ( %g %g %g %g %g %g %g )", p.V1, p.V2, p.Td, p.Tr, p.Tf, p.Pw, p.Per)
	case device.WaveSin:
		return fmt.Sprintf("SIN ( %g %g %g )", s.Voff, s.Vamp, s.Freq)
	default:
		if ac.Magnitude != 0 {
			return fmt.Sprintf("%g AC %g %g", dc, ac.Magnitude, ac.Phase)
		}
		return fmt.Sprintf("%g", dc)
	}
}
