package cmd

import (
	"errors"
	"fmt"

	"github.com/DrCloy/web-spice-sub001/pkg/analysis"
	"github.com/DrCloy/web-spice-sub001/pkg/netlist"
	"github.com/spf13/cobra"
)

func newDCCmd(a *app) *cobra.Command {
	var (
		source           string
		start, stop, inc string
		plotPath         string
	)

	cmd := &cobra.Command{
		Use:   "dc <netlist>",
		Short: "Sweep a source and solve the operating point at each value",
		Long: `Sweep an independent source and solve the operating point at every
value. Without --source the first .dc directive of the deck is used.
Values accept engineering suffixes (1k, 10meg, 5m).

Examples:
  spice dc divider.cir --source V1 --start 0 --stop 10 --step 0.5
  spice dc bias.cir --plot sweep.png
  spice dc divider.json --source V1 --start 0 --stop 5 --step 1 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, err := netlist.LoadFile(args[0])
			if err != nil {
				return err
			}

			var sweeps []analysis.Sweep
			if source != "" {
				sw, err := sweepFromFlags(source, start, stop, inc)
				if err != nil {
					return err
				}
				sweeps = []analysis.Sweep{sw}
			} else {
				for _, c := range deck.Commands {
					if c.Type == netlist.AnalysisDC {
						sweeps = c.Sweeps
						break
					}
				}
				if sweeps == nil {
					return errors.New("no --source given and the netlist has no .dc directive")
				}
			}

			r, err := a.analyze(cmd.Context(), deck, netlist.Command{Type: netlist.AnalysisDC, Sweeps: sweeps})
			if err != nil {
				return err
			}
			if plotPath != "" {
				if err := writePlot(plotPath, r.(*sweepReport)); err != nil {
					return fmt.Errorf("writing plot: %w", err)
				}
				a.logger.Info("plot written", "path", plotPath)
			}
			return a.write(cmd.OutOrStdout(), r)
		},
	}

	f := cmd.Flags()
	f.StringVar(&source, "source", "", "independent source to sweep")
	f.StringVar(&start, "start", "", "first sweep value")
	f.StringVar(&stop, "stop", "", "last sweep value")
	f.StringVar(&inc, "step", "", "sweep increment")
	f.StringVar(&plotPath, "plot", "", "write node voltages against the first source to a chart (.png, .svg, .pdf)")
	return cmd
}

func sweepFromFlags(source, start, stop, step string) (analysis.Sweep, error) {
	sw := analysis.Sweep{Source: source}
	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"start", start, &sw.Start},
		{"stop", stop, &sw.Stop},
		{"step", step, &sw.Step},
	} {
		if f.raw == "" {
			return sw, fmt.Errorf("--%s is required with --source", f.name)
		}
		v, err := netlist.ParseValue(f.raw)
		if err != nil {
			return sw, fmt.Errorf("--%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return sw, nil
}
