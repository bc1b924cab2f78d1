package netlist

import (
	"strings"
	"testing"

	"github.com/DrCloy/web-spice-sub001/pkg/analysis"
	"github.com/DrCloy/web-spice-sub001/pkg/device"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dividerDeck = `* Voltage divider
* a comment line
V1 in 0 DC 10
R1 in mid 1k ; inline comment
R2 mid gnd
+ 1k
.op
.dc V1 0 10 1
.end
R9 ignored after end 1
`

func TestParseDeck(t *testing.T) {
	deck, err := ParseDeckString(dividerDeck)
	require.NoError(t, err)

	assert.Equal(t, "Voltage divider", deck.Title)
	require.Len(t, deck.Commands, 2)
	assert.Equal(t, AnalysisOP, deck.Commands[0].Type)
	assert.Equal(t, AnalysisDC, deck.Commands[1].Type)
	assert.Equal(t, []analysis.Sweep{{Source: "V1", Start: 0, Stop: 10, Step: 1}}, deck.Commands[1].Sweeps)

	ckt := deck.Circuit
	assert.Equal(t, "Voltage divider", ckt.Name())
	assert.NotEmpty(t, ckt.ID())
	assert.Equal(t, []string{"in", "mid"}, ckt.UnknownNodes())

	comps := ckt.Components()
	require.Len(t, comps, 4)
	assert.Equal(t, device.KindVoltageSource, comps[0].Kind())
	assert.Equal(t, 10.0, comps[0].Value())
	assert.Equal(t, "0", comps[2].Neg(), "gnd is an alias of 0")
	assert.Equal(t, 1e3, comps[2].Value())
	assert.Equal(t, device.KindGround, comps[3].Kind())

	res, err := analysis.Solve(ckt)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.NodeVoltages["mid"], 1e-9)
}

func TestParseDeckNestedSweepAndCurrentSource(t *testing.T) {
	deck, err := ParseDeckString(`bias
I1 0 n1 1m
R1 n1 0 2k
V2 n2 0 3
R2 n2 n1 1k
.dc V2 0 5 1 I1 0 2m 1m
`)
	require.NoError(t, err)
	require.Len(t, deck.Commands, 1)
	assert.Equal(t, []analysis.Sweep{
		{Source: "V2", Start: 0, Stop: 5, Step: 1},
		{Source: "I1", Start: 0, Stop: 2e-3, Step: 1e-3},
	}, deck.Commands[0].Sweeps)

	i1, ok := deck.Circuit.Component("I1")
	require.True(t, ok)
	assert.Equal(t, 1e-3, i1.Value())
}

func TestParseDeckErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code simerr.Code
		line string
	}{
		{"capacitor", "C1 a 0 1u", simerr.InvalidComponent, "line 2"},
		{"sine source", "V1 a 0 SIN(0 1 1k)", simerr.InvalidComponent, "line 2"},
		{"tran", "R1 a 0 1k\n.tran 1n 1u", simerr.ParseError, "line 3"},
		{"bad value", "R1 a 0 1x2", simerr.ParseError, "line 2"},
		{"missing value", "R1 a 0", simerr.ParseError, "line 2"},
		{"same node", "R1 a a 1k", simerr.InvalidComponent, "line 2"},
		{"zero resistance", "R1 a 0 0", simerr.InvalidComponent, "line 2"},
		{"short dc", "R1 a 0 1k\n.dc V1 0 1", simerr.ParseError, "line 3"},
		{"duplicate", "R1 a 0 1k\nR1 a 0 2k", simerr.InvalidCircuit, ""},
		{"empty", "", simerr.InvalidCircuit, ""},
		{"bad token", "R1 a 0 1k @", simerr.ParseError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDeckString("title\n" + tt.body + "\n")
			require.Error(t, err)
			assert.Equal(t, tt.code, simerr.CodeOf(err), err.Error())
			if tt.line != "" {
				assert.Contains(t, err.Error(), tt.line)
			}
		})
	}
}

func TestParseDeckWithoutGroundReference(t *testing.T) {
	deck, err := ParseDeck(strings.NewReader("floating\nR1 a b 1k\nV1 a b 1\n"))
	require.NoError(t, err)

	_, err = analysis.Solve(deck.Circuit)
	assert.Equal(t, simerr.NoGround, simerr.CodeOf(err))
}
