package cmd

import (
	"context"
	"fmt"

	"github.com/DrCloy/web-spice-sub001/pkg/analysis"
	"github.com/DrCloy/web-spice-sub001/pkg/circuit"
	"github.com/DrCloy/web-spice-sub001/pkg/netlist"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <netlist>",
		Short: "Run every analysis directive of a netlist",
		Long: `Run the .op and .dc directives of a SPICE deck in deck order. JSON and
YAML circuit documents carry no directives and run a single .op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, err := netlist.LoadFile(args[0])
			if err != nil {
				return err
			}
			if len(deck.Commands) == 0 {
				return fmt.Errorf("%s: no .op or .dc directive", args[0])
			}

			var reports []report
			for _, c := range deck.Commands {
				r, err := a.analyze(cmd.Context(), deck, c)
				if err != nil {
					return err
				}
				reports = append(reports, r)
			}
			return a.write(cmd.OutOrStdout(), reports...)
		},
	}
}

// analyze runs one deck command through the Analysis interface.
func (a *app) analyze(ctx context.Context, deck *netlist.Deck, c netlist.Command) (report, error) {
	var analyzer analysis.Analysis
	switch c.Type {
	case netlist.AnalysisOP:
		analyzer = analysis.NewOP(a.cfg.Options(a.logger)...)
	case netlist.AnalysisDC:
		analyzer = analysis.NewDCSweep(c.Sweeps, a.cfg.Options(a.logger)...)
	default:
		return nil, fmt.Errorf("unsupported analysis %v", c.Type)
	}

	a.logger.Info("running analysis", "analysis", c.Type.String(), "circuit", deck.Circuit.ID())
	if err := analyzer.Setup(deck.Circuit); err != nil {
		return nil, fmt.Errorf("%s setup: %w", c.Type, err)
	}
	if err := analyzer.Execute(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", c.Type, err)
	}

	switch an := analyzer.(type) {
	case *analysis.OperatingPoint:
		return &opReport{Analysis: "op", Title: deck.Title, Result: an.Result()}, nil
	case *analysis.DCSweep:
		return newSweepReport(deck.Title, deck.Circuit, an.Sweeps(), an.Points()), nil
	}
	return nil, fmt.Errorf("unsupported analysis %v", c.Type)
}

func (a *app) solveOP(ctx context.Context, ckt *circuit.Circuit) (*analysis.Result, error) {
	return analysis.NewOP(a.cfg.Options(a.logger)...).Solve(ctx, ckt)
}
