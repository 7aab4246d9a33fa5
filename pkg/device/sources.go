package device

import (
	"math"

	"github.com/nodalsim/spicecore/pkg/matrix"
)

// Waveform selects how a source's time-domain value is computed. AC
// sources use a separate magnitude/phase pair for the phasor system and
// their DC value (defaulting to 0) for DC/transient analysis, matching
// typical SPICE AC-source semantics.
type Waveform int

const (
	WaveDC Waveform = iota
	WavePulse
	WaveSin
	WavePWL
)

// PulseParams holds the seven pulse-source parameters of spec.md §3/§6.
type PulseParams struct {
	V1, V2, Td, Tr, Tf, Pw, Per float64
}

// SinParams holds the sinusoidal source parameters of spec.md §3/§6.
type SinParams struct {
	Voff, Vamp, Freq float64
}

// PWLParams is the supplemented piecewise-linear waveform (SPEC_FULL §4),
// grounded on edp1096-toy-spice/pkg/device/isource.go's getPWLCurrent.
type PWLParams struct {
	Times  []float64
	Values []float64
}

// ACParams is the phasor excitation used only during AC sweep (spec.md §3/§4.3).
type ACParams struct {
	Magnitude, Phase float64 // phase in degrees
}

// valueAt evaluates the bit-exact waveform formulas of spec.md §6.
func valueAt(wave Waveform, dc float64, pulse PulseParams, sin SinParams, pwl PWLParams, t float64) float64 {
	switch wave {
	case WavePulse:
		if t < pulse.Td {
			return pulse.V1
		}
		tau := math.Mod(t-pulse.Td, pulse.Per)
		switch {
		case tau < pulse.Tr:
			if pulse.Tr == 0 {
				return pulse.V2
			}
			return pulse.V1 + (pulse.V2-pulse.V1)*tau/pulse.Tr
		case tau < pulse.Tr+pulse.Pw:
			return pulse.V2
		case tau < pulse.Tr+pulse.Pw+pulse.Tf:
			if pulse.Tf == 0 {
				return pulse.V1
			}
			return pulse.V2 + (pulse.V1-pulse.V2)*(tau-pulse.Tr-pulse.Pw)/pulse.Tf
		default:
			return pulse.V1
		}
	case WaveSin:
		if sin.Freq <= 0 {
			return sin.Voff
		}
		return sin.Voff + sin.Vamp*math.Sin(2*math.Pi*sin.Freq*t)
	case WavePWL:
		return pwlValueAt(pwl, t)
	default:
		return dc
	}
}

func pwlValueAt(p PWLParams, t float64) float64 {
	n := len(p.Times)
	if n == 0 {
		return 0
	}
	if t <= p.Times[0] {
		return p.Values[0]
	}
	if t >= p.Times[n-1] {
		return p.Values[n-1]
	}
	for i := 1; i < n; i++ {
		if t <= p.Times[i] {
			t0, t1 := p.Times[i-1], p.Times[i]
			v0, v1 := p.Values[i-1], p.Values[i]
			return v0 + (v1-v0)*(t-t0)/(t1-t0)
		}
	}
	return p.Values[n-1]
}

// VSource is a two-terminal voltage source of any waveform kind (DC,
// Pulse, Sin, AC, PWL). It always owns a branch-current unknown. Grounded
// on edp1096-toy-spice/pkg/device/vsource.go's Stamp/StampAC, generalized
// to the bit-exact waveform formulas of spec.md §6 and the supplemented
// PWL kind of SPEC_FULL.md §4.
type VSource struct {
	base
	Wave  Waveform
	DC    float64
	Pulse PulseParams
	Sin   SinParams
	PWL   PWLParams
	AC    ACParams
}

func NewVSourceDC(name, n1, n2 string, v float64) *VSource {
	return &VSource{base: base{name: name, kind: "V", nodes: []string{n1, n2}}, Wave: WaveDC, DC: v}
}

func NewVSourcePulse(name, n1, n2 string, p PulseParams) *VSource {
	return &VSource{base: base{name: name, kind: "V", nodes: []string{n1, n2}}, Wave: WavePulse, Pulse: p, DC: p.V1}
}

func NewVSourceSin(name, n1, n2 string, s SinParams) *VSource {
	return &VSource{base: base{name: name, kind: "V", nodes: []string{n1, n2}}, Wave: WaveSin, Sin: s, DC: s.Voff}
}

func NewVSourcePWL(name, n1, n2 string, p PWLParams) *VSource {
	v0 := 0.0
	if len(p.Values) > 0 {
		v0 = p.Values[0]
	}
	return &VSource{base: base{name: name, kind: "V", nodes: []string{n1, n2}}, Wave: WavePWL, PWL: p, DC: v0}
}

func NewVSourceAC(name, n1, n2 string, dc float64, ac ACParams) *VSource {
	return &VSource{base: base{name: name, kind: "V", nodes: []string{n1, n2}}, Wave: WaveDC, DC: dc, AC: ac}
}

// ValueAt evaluates the source's waveform at time t; Stamp writes it into
// the branch row's right-hand side.
func (v *VSource) ValueAt(t float64) float64 {
	return valueAt(v.Wave, v.DC, v.Pulse, v.Sin, v.PWL, t)
}

func (v *VSource) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	k1, k2 := status.nodeIndex(v.nodes[0]), status.nodeIndex(v.nodes[1])
	kV := status.BranchIndex[v.name]

	if status.Mode == AC {
		stampBranchIncidenceComplex(m, k1, k2, kV)
		return nil
	}

	stampBranchIncidence(m, k1, k2, kV)
	m.AddRHS(kV, v.ValueAt(status.Time))
	return nil
}

// StampACUnitExcitation sets this source's branch row to unit amplitude —
// the AC driver calls this only on the designated excitation source
// (spec.md §4.3); every other source's branch row stays zero this pass.
func (v *VSource) StampACUnitExcitation(m matrix.DeviceMatrix, status *CircuitStatus) error {
	kV := status.BranchIndex[v.name]
	phaseRad := v.AC.Phase * math.Pi / 180
	mag := v.AC.Magnitude
	if mag == 0 {
		mag = 1
	}
	m.AddComplexRHS(kV, mag*math.Cos(phaseRad), mag*math.Sin(phaseRad))
	return nil
}

func (v *VSource) BranchName() string { return v.name }

// SetDC overwrites the DC/offset value — used by the DC sweep driver.
func (v *VSource) SetDC(value float64) { v.DC = value }

// ISource is a two-terminal current source of any waveform kind. It never
// owns a branch-current unknown. For a source flowing n1 -> n2, b[n1] is
// decremented and b[n2] is incremented (spec.md §4.2;
// original_source/Element.cpp's J[n1] -= current_value, J[n2] +=
// current_value) — the opposite sign of
// edp1096-toy-spice/pkg/device/isource.go's Stamp/StampAC, which this core
// does not reproduce.
type ISource struct {
	base
	Wave  Waveform
	DC    float64
	Pulse PulseParams
	Sin   SinParams
	PWL   PWLParams
	AC    ACParams
}

func NewISourceDC(name, n1, n2 string, i float64) *ISource {
	return &ISource{base: base{name: name, kind: "I", nodes: []string{n1, n2}}, Wave: WaveDC, DC: i}
}

func NewISourcePulse(name, n1, n2 string, p PulseParams) *ISource {
	return &ISource{base: base{name: name, kind: "I", nodes: []string{n1, n2}}, Wave: WavePulse, Pulse: p, DC: p.V1}
}

func NewISourceSin(name, n1, n2 string, s SinParams) *ISource {
	return &ISource{base: base{name: name, kind: "I", nodes: []string{n1, n2}}, Wave: WaveSin, Sin: s, DC: s.Voff}
}

func NewISourcePWL(name, n1, n2 string, p PWLParams) *ISource {
	v0 := 0.0
	if len(p.Values) > 0 {
		v0 = p.Values[0]
	}
	return &ISource{base: base{name: name, kind: "I", nodes: []string{n1, n2}}, Wave: WavePWL, PWL: p, DC: v0}
}

func (i *ISource) ValueAt(t float64) float64 {
	return valueAt(i.Wave, i.DC, i.Pulse, i.Sin, i.PWL, t)
}

func (i *ISource) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	k1, k2 := status.nodeIndex(i.nodes[0]), status.nodeIndex(i.nodes[1])

	if status.Mode == AC {
		phaseRad := i.AC.Phase * math.Pi / 180
		re, im := i.AC.Magnitude*math.Cos(phaseRad), i.AC.Magnitude*math.Sin(phaseRad)
		if k1 != 0 {
			m.AddComplexRHS(k1, -re, -im)
		}
		if k2 != 0 {
			m.AddComplexRHS(k2, re, im)
		}
		return nil
	}

	val := i.ValueAt(status.Time)
	if k1 != 0 {
		m.AddRHS(k1, -val)
	}
	if k2 != 0 {
		m.AddRHS(k2, val)
	}
	return nil
}

func (i *ISource) SetDC(value float64) { i.DC = value }
