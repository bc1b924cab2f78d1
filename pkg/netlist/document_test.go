package netlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DrCloy/web-spice-sub001/pkg/analysis"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dividerJSON = `{
  "id": "div-1",
  "name": "divider",
  "description": "two equal resistors",
  "components": [
    {"id": "V1", "type": "voltage_source", "name": "supply", "nodes": ["in", "0"], "parameters": {"voltage": 10, "sourceType": "dc"}},
    {"id": "R1", "type": "resistor", "name": "top", "nodes": ["in", "mid"], "parameters": {"resistance": "1k"}},
    {"id": "R2", "type": "resistor", "name": "bottom", "nodes": ["mid", "0"], "parameters": {"resistance": 1000}},
    {"id": "GND", "type": "ground", "name": "ground", "nodes": ["0"]}
  ]
}`

const dividerYAML = `
name: divider
ground: ref
components:
  - id: V1
    type: voltage_source
    nodes: [in, ref]
    parameters: {voltage: 10}
  - id: R1
    type: resistor
    nodes: [in, mid]
    parameters: {resistance: 1k}
  - id: R2
    type: resistor
    nodes: [mid, ref]
    parameters: {resistance: 1000}
  - id: G
    type: ground
    nodes: [ref]
`

func TestDecodeJSON(t *testing.T) {
	doc, err := DecodeJSON(strings.NewReader(dividerJSON))
	require.NoError(t, err)

	ckt, err := doc.Circuit()
	require.NoError(t, err)
	assert.Equal(t, "div-1", ckt.ID())
	assert.Equal(t, "two equal resistors", ckt.Description())

	r1, ok := ckt.Component("R1")
	require.True(t, ok)
	assert.Equal(t, 1e3, r1.Value())
	assert.Equal(t, "top", r1.Name())

	res, err := analysis.Solve(ckt)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.NodeVoltages["mid"], 1e-9)
}

func TestDecodeYAML(t *testing.T) {
	doc, err := DecodeYAML(strings.NewReader(dividerYAML))
	require.NoError(t, err)

	ckt, err := doc.Circuit()
	require.NoError(t, err)
	assert.Equal(t, "ref", ckt.Ground())
	assert.NotEmpty(t, ckt.ID(), "missing id gets a generated one")

	res, err := analysis.Solve(ckt)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.NodeVoltages["mid"], 1e-9)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := DecodeJSON(strings.NewReader(`{"name": "x", "components": [`))
	assert.Equal(t, simerr.ParseError, simerr.CodeOf(err))

	_, err = DecodeJSON(strings.NewReader(`{"name": "x", "bogus": 1}`))
	assert.Equal(t, simerr.ParseError, simerr.CodeOf(err))

	_, err = DecodeYAML(strings.NewReader("name: [unterminated"))
	assert.Equal(t, simerr.ParseError, simerr.CodeOf(err))
}

func TestDocumentValidation(t *testing.T) {
	r := func(params map[string]any) ComponentSpec {
		return ComponentSpec{ID: "R1", Type: "resistor", Nodes: []string{"a", "0"}, Parameters: params}
	}
	gnd := ComponentSpec{ID: "G", Type: "ground", Nodes: []string{"0"}}

	tests := []struct {
		name      string
		doc       Document
		code      simerr.Code
		component string
	}{
		{"missing name", Document{Components: []ComponentSpec{gnd}}, simerr.InvalidCircuit, ""},
		{"no components", Document{Name: "x"}, simerr.InvalidCircuit, ""},
		{"unknown type", Document{Name: "x", Components: []ComponentSpec{{ID: "D1", Type: "diode", Nodes: []string{"a", "0"}}}}, simerr.InvalidComponent, "D1"},
		{"missing resistance", Document{Name: "x", Components: []ComponentSpec{r(nil), gnd}}, simerr.InvalidComponent, "R1"},
		{"unknown parameter", Document{Name: "x", Components: []ComponentSpec{r(map[string]any{"resistance": 1, "tc1": 0.1}), gnd}}, simerr.InvalidComponent, "R1"},
		{"bad value string", Document{Name: "x", Components: []ComponentSpec{r(map[string]any{"resistance": "lots"}), gnd}}, simerr.InvalidComponent, "R1"},
		{"bool value", Document{Name: "x", Components: []ComponentSpec{r(map[string]any{"resistance": true}), gnd}}, simerr.InvalidComponent, "R1"},
		{"negative resistance", Document{Name: "x", Components: []ComponentSpec{r(map[string]any{"resistance": -1.0}), gnd}}, simerr.InvalidComponent, "R1"},
		{"three nodes", Document{Name: "x", Components: []ComponentSpec{{ID: "R1", Type: "resistor", Nodes: []string{"a", "b", "c"}, Parameters: map[string]any{"resistance": 1}}}}, simerr.InvalidComponent, "R1"},
		{"ground with params", Document{Name: "x", Components: []ComponentSpec{{ID: "G", Type: "ground", Nodes: []string{"0"}, Parameters: map[string]any{"voltage": 0}}}}, simerr.InvalidComponent, "G"},
		{"ground two nodes", Document{Name: "x", Components: []ComponentSpec{{ID: "G", Type: "ground", Nodes: []string{"0", "a"}}}}, simerr.InvalidComponent, "G"},
		{"ac source", Document{Name: "x", Components: []ComponentSpec{{ID: "V1", Type: "voltage_source", Nodes: []string{"a", "0"}, Parameters: map[string]any{"voltage": 1, "sourceType": "ac"}}}}, simerr.InvalidComponent, "V1"},
		{"empty node", Document{Name: "x", Components: []ComponentSpec{{ID: "R1", Type: "resistor", Nodes: []string{"a", ""}, Parameters: map[string]any{"resistance": 1}}}}, simerr.InvalidComponent, "R1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.doc.Circuit()
			require.Error(t, err)
			e, ok := simerr.As(err)
			require.True(t, ok, err.Error())
			assert.Equal(t, tt.code, e.Code, err.Error())
			assert.Equal(t, tt.component, e.ComponentID)
		})
	}
}

func TestFromCircuitRoundTrip(t *testing.T) {
	deck, err := ParseDeckString(dividerDeck)
	require.NoError(t, err)

	doc := FromCircuit(deck.Circuit)
	again, err := doc.Circuit()
	require.NoError(t, err)

	assert.Equal(t, deck.Circuit.ID(), again.ID())
	assert.Equal(t, deck.Circuit.Components(), again.Components())
	assert.Equal(t, deck.Circuit.Nodes(), again.Nodes())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"div.json": dividerJSON,
		"div.yaml": dividerYAML,
		"div.cir":  dividerDeck,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		deck, err := LoadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, "divider", strings.ToLower(strings.Fields(deck.Title)[len(strings.Fields(deck.Title))-1]), name)
		require.NotEmpty(t, deck.Commands, name)
		assert.Equal(t, AnalysisOP, deck.Commands[0].Type, name)
	}

	_, err := LoadFile(filepath.Join(dir, "missing.cir"))
	assert.Error(t, err)
}
