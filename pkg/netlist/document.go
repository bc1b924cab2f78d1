package netlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/DrCloy/web-spice-sub001/internal/consts"
	"github.com/DrCloy/web-spice-sub001/pkg/circuit"
	"github.com/DrCloy/web-spice-sub001/pkg/device"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Document is the JSON/YAML circuit description.
type Document struct {
	ID          string          `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string          `json:"name" yaml:"name" validate:"required"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Ground      string          `json:"ground,omitempty" yaml:"ground,omitempty"`
	Components  []ComponentSpec `json:"components" yaml:"components" validate:"required,min=1,dive"`
}

// ComponentSpec parameters hold numbers or SPICE-style strings such as "1k".
type ComponentSpec struct {
	ID         string         `json:"id" yaml:"id" validate:"required"`
	Type       string         `json:"type" yaml:"type" validate:"required,oneof=resistor voltage_source current_source ground"`
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes      []string       `json:"nodes" yaml:"nodes" validate:"required,min=1,dive,required"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

func DecodeJSON(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, simerr.Wrap(simerr.ParseError, err, "decoding JSON circuit")
	}
	return &doc, nil
}

func DecodeYAML(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, simerr.Wrap(simerr.ParseError, err, "decoding YAML circuit")
	}
	return &doc, nil
}

// Validate checks the document shape. Component-level failures report
// INVALID_COMPONENT with the component id, document-level ones
// INVALID_CIRCUIT.
func (d *Document) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return simerr.Wrap(simerr.InvalidCircuit, err, "invalid circuit document")
	}
	fe := verrs[0]
	ns := fe.Namespace()
	if i := componentIndex(ns); i >= 0 && i < len(d.Components) {
		return simerr.New(simerr.InvalidComponent, "%s fails %q", fe.Field(), fe.Tag()).
			WithComponent(d.Components[i].ID)
	}
	return simerr.New(simerr.InvalidCircuit, "%s fails %q", fe.Field(), fe.Tag())
}

// componentIndex extracts i from "Document.Components[i].Field".
func componentIndex(ns string) int {
	_, rest, ok := strings.Cut(ns, "Components[")
	if !ok {
		return -1
	}
	var i int
	if _, err := fmt.Sscanf(rest, "%d]", &i); err != nil {
		return -1
	}
	return i
}

// Circuit validates the document and builds the circuit. A missing id is
// replaced by a random UUID.
func (d *Document) Circuit() (*circuit.Circuit, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	comps := make([]device.Component, 0, len(d.Components))
	for _, entry := range d.Components {
		comp, err := entry.build()
		if err != nil {
			return nil, err
		}
		comps = append(comps, comp)
	}

	id := strings.TrimSpace(d.ID)
	if id == "" {
		id = uuid.NewString()
	}
	ground := strings.TrimSpace(d.Ground)
	if ground == "" {
		ground = consts.DefaultGroundNode
	}
	return circuit.New(id, d.Name, comps, circuit.WithGround(ground), circuit.WithDescription(d.Description))
}

var requiredParam = map[device.Kind]string{
	device.KindResistor:      "resistance",
	device.KindVoltageSource: "voltage",
	device.KindCurrentSource: "current",
}

func (s ComponentSpec) build() (device.Component, error) {
	kind, err := device.ParseKind(s.Type)
	if err != nil {
		return device.Component{}, withComponent(err, s.ID)
	}

	if kind == device.KindGround {
		if len(s.Nodes) != 1 {
			return device.Component{}, simerr.New(simerr.InvalidComponent, "ground needs exactly one node, got %d", len(s.Nodes)).WithComponent(s.ID)
		}
		if len(s.Parameters) != 0 {
			return device.Component{}, simerr.New(simerr.InvalidComponent, "ground takes no parameters").WithComponent(s.ID)
		}
		return device.NewGround(s.ID, s.Name, s.Nodes[0])
	}

	if len(s.Nodes) != 2 {
		return device.Component{}, simerr.New(simerr.InvalidComponent, "%s needs exactly two nodes, got %d", kind, len(s.Nodes)).WithComponent(s.ID)
	}

	key := requiredParam[kind]
	for name, raw := range s.Parameters {
		switch {
		case name == key:
		case name == "sourceType" && kind.IsSource():
			st, ok := raw.(string)
			if !ok || !strings.EqualFold(strings.TrimSpace(st), device.SourceDC) {
				return device.Component{}, simerr.New(simerr.InvalidComponent, "sourceType %v is not supported, only dc", raw).WithComponent(s.ID)
			}
		default:
			return device.Component{}, simerr.New(simerr.InvalidComponent, "unknown parameter %q", name).WithComponent(s.ID)
		}
	}
	raw, ok := s.Parameters[key]
	if !ok {
		return device.Component{}, simerr.New(simerr.InvalidComponent, "missing parameter %q", key).WithComponent(s.ID)
	}
	value, err := paramValue(raw)
	if err != nil {
		return device.Component{}, withComponent(err, s.ID)
	}

	switch kind {
	case device.KindResistor:
		return device.NewResistor(s.ID, s.Name, s.Nodes[0], s.Nodes[1], value)
	case device.KindVoltageSource:
		return device.NewVoltageSource(s.ID, s.Name, s.Nodes[0], s.Nodes[1], value)
	default:
		return device.NewCurrentSource(s.ID, s.Name, s.Nodes[0], s.Nodes[1], value)
	}
}

func paramValue(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, simerr.Wrap(simerr.InvalidComponent, err, "invalid number %q", v)
		}
		return f, nil
	case string:
		f, err := ParseValue(v)
		if err != nil {
			return 0, simerr.Wrap(simerr.InvalidComponent, err, "invalid value %q", v)
		}
		return f, nil
	}
	return 0, simerr.New(simerr.InvalidComponent, "parameter of type %T is not a number", raw)
}

// FromCircuit describes ckt as a document; Circuit() on the result rebuilds
// an equivalent circuit.
func FromCircuit(ckt *circuit.Circuit) *Document {
	doc := &Document{
		ID:          ckt.ID(),
		Name:        ckt.Name(),
		Description: ckt.Description(),
		Ground:      ckt.Ground(),
	}
	for _, comp := range ckt.Components() {
		entry := ComponentSpec{
			ID:    comp.ID(),
			Type:  comp.Kind().String(),
			Name:  comp.Name(),
			Nodes: comp.Nodes(),
		}
		if key, ok := requiredParam[comp.Kind()]; ok {
			entry.Parameters = map[string]any{key: comp.Value()}
		}
		doc.Components = append(doc.Components, entry)
	}
	return doc
}
