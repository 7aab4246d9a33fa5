package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalsim/spicecore/pkg/device"
)

func dividerCircuit() *Circuit {
	c := New("divider")
	_ = c.AddElement(device.NewGround("GND", "0"))
	_ = c.AddElement(device.NewVSourceDC("V1", "n1", "0", 10))
	_ = c.AddElement(device.NewResistor("R1", "n1", "n2", 1000))
	_ = c.AddElement(device.NewResistor("R2", "n2", "0", 2000))
	return c
}

func TestAddElementRejectsDuplicateName(t *testing.T) {
	c := dividerCircuit()
	err := c.AddElement(device.NewResistor("R1", "n2", "0", 500))
	assert.Error(t, err)
}

func TestDeleteElementReindexesTrailingEntries(t *testing.T) {
	c := dividerCircuit()
	require.NoError(t, c.DeleteElement("R1"))

	_, ok := c.Element("R1")
	assert.False(t, ok)
	r2, ok := c.Element("R2")
	require.True(t, ok)
	assert.Equal(t, "R2", r2.Name())
	assert.Len(t, c.Elements(), 3)
}

func TestDeleteElementUnknownNameFails(t *testing.T) {
	c := dividerCircuit()
	assert.Error(t, c.DeleteElement("R99"))
}

func TestRenameNodeRewritesElementsAndGround(t *testing.T) {
	c := dividerCircuit()
	require.NoError(t, c.RenameNode("n2", "mid"))

	r1, _ := c.Element("R1")
	assert.Equal(t, []string{"n1", "mid"}, r1.Nodes())
	r2, _ := c.Element("R2")
	assert.Equal(t, []string{"mid", "0"}, r2.Nodes())

	nodes, _ := c.NonGroundNodes()
	assert.Contains(t, nodes, "mid")
	assert.NotContains(t, nodes, "n2")

	require.NoError(t, c.RenameNode("0", "gnd"))
	assert.Equal(t, "gnd", c.GroundKey())
	assert.Equal(t, []string{"mid", "gnd"}, r2.Nodes())
}

func TestRenameNodeConflictFails(t *testing.T) {
	c := dividerCircuit()
	assert.Error(t, c.RenameNode("n1", "n2"))
}

func TestNonGroundNodesOrderedAlphabeticallyAndExcludeGround(t *testing.T) {
	c := dividerCircuit()
	nodes, index := c.NonGroundNodes()

	assert.Equal(t, []string{"n1", "n2"}, nodes)
	assert.Equal(t, 1, index["n1"])
	assert.Equal(t, 2, index["n2"])
	assert.NotContains(t, index, "0")
}

func TestConnectedDetectsIsland(t *testing.T) {
	c := dividerCircuit()
	assert.True(t, c.Connected())

	_ = c.AddElement(device.NewResistor("Rfloat", "island1", "island2", 1))
	assert.False(t, c.Connected())
}

func TestListElementsFiltersByKind(t *testing.T) {
	c := dividerCircuit()
	resistors := c.ListElements("R")
	assert.Len(t, resistors, 2)
	for _, d := range resistors {
		assert.Equal(t, "R", d.Kind())
	}
	assert.Len(t, c.ListElements(""), 4)
}

func TestBuildIndexOrdersNodesThenVThenLThenH(t *testing.T) {
	c := New("order")
	_ = c.AddElement(device.NewGround("GND", "0"))
	_ = c.AddElement(device.NewCCVS("H1", "n3", "0", "V1", 10))
	_ = c.AddElement(device.NewInductor("L1", "n2", "0", 1e-3))
	_ = c.AddElement(device.NewVSourceDC("V1", "n1", "0", 5))

	ix := c.BuildIndex()
	assert.Equal(t, 3, ix.NumNodes)
	assert.Equal(t, 1, ix.NumV)
	assert.Equal(t, 1, ix.NumL)
	assert.Equal(t, 1, ix.NumH)

	assert.Equal(t, 1, ix.NodeIndex["n1"])
	assert.Equal(t, 2, ix.NodeIndex["n2"])
	assert.Equal(t, 3, ix.NodeIndex["n3"])
	assert.Equal(t, 4, ix.BranchIndex["V1"])
	assert.Equal(t, 5, ix.BranchIndex["L1"])
	assert.Equal(t, 6, ix.BranchIndex["H1"])
	assert.Equal(t, 6, ix.Size())
}

func TestBuildACIndexExcludesDependentSourcesAndInductors(t *testing.T) {
	c := New("ac-order")
	_ = c.AddElement(device.NewGround("GND", "0"))
	_ = c.AddElement(device.NewVSourceDC("V1", "n1", "0", 1))
	_ = c.AddElement(device.NewInductor("L1", "n1", "n2", 1e-3))
	_ = c.AddElement(device.NewVCVS("E1", "n2", "0", "n1", "0", 2))

	ix := c.BuildACIndex()
	assert.Equal(t, 1, ix.NumV)
	_, hasL := ix.BranchIndex["L1"]
	assert.False(t, hasL)
	_, hasE := ix.BranchIndex["E1"]
	assert.False(t, hasE)
	assert.Equal(t, 3, ix.Size()) // 2 nodes + V1's branch row only
}

func TestAssembleAndExtractResultsResistiveDivider(t *testing.T) {
	c := dividerCircuit()
	ix := c.BuildIndex()
	m, err := c.Assemble(ix, AssembleOptions{})
	require.NoError(t, err)
	require.NoError(t, m.Solve())

	results := c.ExtractResults(ix, m)
	assert.InDelta(t, 10.0, results["V(n1)"], 1e-6)
	assert.InDelta(t, 20.0/3.0, results["V(n2)"], 1e-3)
	assert.InDelta(t, -10.0/3000.0, results["I(V1)"], 1e-6)
	assert.InDelta(t, 10.0/3000.0, results["I(R1)"], 1e-6)
	assert.InDelta(t, 10.0/3000.0, results["I(R2)"], 1e-6)
}

func TestExtractResultsIncludesGroundAtZero(t *testing.T) {
	c := dividerCircuit()
	ix := c.BuildIndex()
	m, err := c.Assemble(ix, AssembleOptions{})
	require.NoError(t, err)
	require.NoError(t, m.Solve())

	results := c.ExtractResults(ix, m)
	assert.Equal(t, 0.0, results["V(0)"])
}

func TestPreviousStateRoundTrips(t *testing.T) {
	c := dividerCircuit()
	assert.Equal(t, 0.0, c.PrevNodeVoltage("n1"))

	c.SetPreviousState(map[string]float64{"n1": 3.5}, map[string]float64{"V1": 1.2})
	assert.Equal(t, 3.5, c.PrevNodeVoltage("n1"))
	assert.Equal(t, 1.2, c.PrevBranchCurrent("V1"))

	c.ResetPreviousState()
	assert.Equal(t, 0.0, c.PrevNodeVoltage("n1"))
	assert.Equal(t, 0.0, c.PrevBranchCurrent("V1"))
}

func TestZeroResistanceResistorsReportsOffenders(t *testing.T) {
	c := dividerCircuit()
	_ = c.AddElement(device.NewResistor("Rzero", "n1", "n2", 0))

	names := c.ZeroResistanceResistors()
	assert.Equal(t, []string{"Rzero"}, names)
}
