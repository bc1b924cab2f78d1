package cmd

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// writePlot charts every non-ground node voltage against the first sweep
// source. With nested sweeps each combination of the inner values gets its
// own line. The file format follows the extension of path.
func writePlot(path string, r *sweepReport) error {
	sweeps, points := r.Sweeps, r.Points
	if len(sweeps) == 0 || len(points) == 0 {
		return errors.New("no sweep points to plot")
	}

	p := plot.New()
	p.Title.Text = r.Title
	p.X.Label.Text = sweeps[0].Source
	p.Y.Label.Text = "Voltage (V)"
	p.Add(plotter.NewGrid())

	var order []string
	lines := make(map[string]plotter.XYs)

	nodes, _ := r.columns()
	for _, pt := range points {
		var tail []string
		for k := 1; k < len(pt.Values); k++ {
			tail = append(tail, fmt.Sprintf("%s=%g", sweeps[k].Source, pt.Values[k]))
		}
		suffix := strings.Join(tail, " ")

		for _, n := range nodes {
			label := "V(" + n + ")"
			if suffix != "" {
				label += " " + suffix
			}
			if _, ok := lines[label]; !ok {
				order = append(order, label)
			}
			lines[label] = append(lines[label], plotter.XY{X: pt.Values[0], Y: pt.Result.NodeVoltages[n]})
		}
	}

	for i, label := range order {
		l, err := plotter.NewLine(lines[label])
		if err != nil {
			return err
		}
		l.Color = plotutil.Color(i)
		l.Dashes = plotutil.Dashes(i / len(nodes))
		p.Add(l)
		p.Legend.Add(label, l)
	}
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
