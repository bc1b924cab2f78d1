package netlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads a circuit by extension: .json, .yaml and .yml are wire
// documents, anything else is a SPICE deck. Documents carry no analysis
// commands, so they get a single .op.
func LoadFile(path string) (*Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening netlist: %w", err)
	}
	defer f.Close()

	var doc *Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		doc, err = DecodeJSON(f)
	case ".yaml", ".yml":
		doc, err = DecodeYAML(f)
	default:
		deck, err := ParseDeck(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return deck, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	ckt, err := doc.Circuit()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Deck{
		Title:    doc.Name,
		Circuit:  ckt,
		Commands: []Command{{Type: AnalysisOP}},
	}, nil
}
