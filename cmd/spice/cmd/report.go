package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/DrCloy/web-spice-sub001/pkg/analysis"
	"github.com/DrCloy/web-spice-sub001/pkg/circuit"
	"github.com/DrCloy/web-spice-sub001/pkg/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type report interface {
	renderText(w io.Writer, st styles)
}

type styles struct {
	r      *lipgloss.Renderer
	title  lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
}

// newStyles binds the palette to w so colors are dropped when w is not a
// terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		r:      r,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7")),
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#2C4A54")),
	}
}

func (st styles) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.muted).
		Headers(headers...).
		Rows(rows...).
		String()
}

func (a *app) write(w io.Writer, reports ...report) error {
	var v any = reports
	if len(reports) == 1 {
		v = reports[0]
	}

	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	st := newStyles(w)
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		r.renderText(w, st)
	}
	return nil
}

type opReport struct {
	Analysis string           `json:"analysis" yaml:"analysis"`
	Title    string           `json:"title,omitempty" yaml:"title,omitempty"`
	Result   *analysis.Result `json:"result" yaml:"result"`
}

func (r *opReport) renderText(w io.Writer, st styles) {
	res := r.Result
	fmt.Fprintln(w, st.title.Render(titleOr(r.Title, res.CircuitID)))
	fmt.Fprintln(w, st.muted.Render(fmt.Sprintf("operating point  strategy=%s  iterations=%d  residual=%s  update=%s",
		res.Strategy, res.Iterations, util.FormatNorm(res.ResidualNorm), util.FormatNorm(res.UpdateNorm))))

	var rows [][]string
	for _, n := range res.NodeOrder {
		rows = append(rows, []string{"V(" + n + ")", util.FormatValueFactor(res.NodeVoltages[n], "V")})
	}
	fmt.Fprintln(w, st.header.Render("Node Voltages"))
	fmt.Fprintln(w, st.table([]string{"Node", "Voltage"}, rows))

	if len(res.BranchCurrents) > 0 {
		rows = rows[:0]
		for _, id := range sortedKeys(res.BranchCurrents) {
			rows = append(rows, []string{"I(" + id + ")", util.FormatValueFactor(res.BranchCurrents[id], "A")})
		}
		fmt.Fprintln(w, st.header.Render("Branch Currents"))
		fmt.Fprintln(w, st.table([]string{"Branch", "Current"}, rows))
	}

	rows = rows[:0]
	for _, id := range res.ComponentIDs() {
		rows = append(rows, []string{id, util.FormatValueFactor(res.ComponentCurrents[id], "A")})
	}
	fmt.Fprintln(w, st.header.Render("Component Currents"))
	fmt.Fprintln(w, st.table([]string{"Component", "Current"}, rows))
}

type sweepReport struct {
	Analysis string                `json:"analysis" yaml:"analysis"`
	Title    string                `json:"title,omitempty" yaml:"title,omitempty"`
	Sweeps   []analysis.Sweep      `json:"sweeps" yaml:"sweeps"`
	Points   []analysis.SweepPoint `json:"points" yaml:"points"`

	units  []string
	ground string
}

func newSweepReport(title string, ckt *circuit.Circuit, sweeps []analysis.Sweep, points []analysis.SweepPoint) *sweepReport {
	r := &sweepReport{Analysis: "dc", Title: title, Sweeps: sweeps, Points: points, ground: ckt.Ground()}
	for _, sw := range sweeps {
		unit := ""
		if comp, ok := ckt.Component(sw.Source); ok {
			unit = comp.Kind().Unit()
		}
		r.units = append(r.units, unit)
	}
	return r
}

// columns lists the non-ground node voltages and the branch currents of a
// solved point.
func (r *sweepReport) columns() (nodes, branches []string) {
	if len(r.Points) == 0 {
		return nil, nil
	}
	res := r.Points[0].Result
	for _, n := range res.NodeOrder {
		if n != r.ground {
			nodes = append(nodes, n)
		}
	}
	return nodes, sortedKeys(res.BranchCurrents)
}

func (r *sweepReport) renderText(w io.Writer, st styles) {
	fmt.Fprintln(w, st.title.Render(titleOr(r.Title, "dc sweep")))
	fmt.Fprintln(w, st.muted.Render(fmt.Sprintf("dc sweep  points=%d", len(r.Points))))

	nodes, branches := r.columns()
	var headers []string
	for _, sw := range r.Sweeps {
		headers = append(headers, sw.Source)
	}
	for _, n := range nodes {
		headers = append(headers, "V("+n+")")
	}
	for _, b := range branches {
		headers = append(headers, "I("+b+")")
	}

	rows := make([][]string, 0, len(r.Points))
	for _, p := range r.Points {
		row := make([]string, 0, len(headers))
		for k, v := range p.Values {
			row = append(row, util.FormatValueFactor(v, r.units[k]))
		}
		for _, n := range nodes {
			row = append(row, util.FormatValueFactor(p.Result.NodeVoltages[n], "V"))
		}
		for _, b := range branches {
			row = append(row, util.FormatValueFactor(p.Result.BranchCurrents[b], "A"))
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(w, st.table(headers, rows))
}

func titleOr(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
