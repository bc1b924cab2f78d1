package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DrCloy/web-spice-sub001/pkg/circuit"
	"github.com/DrCloy/web-spice-sub001/pkg/netlist"
	"github.com/spf13/cobra"
)

func newOpCmd(a *app) *cobra.Command {
	var dumpSystem, watch bool

	cmd := &cobra.Command{
		Use:   "op <netlist>",
		Short: "Solve the DC operating point of a circuit",
		Long: `Solve the DC operating point of a SPICE deck or a JSON/YAML circuit
document, ignoring any directives in the file.

Examples:
  spice op divider.cir
  spice op divider.yaml --strategy newton -o yaml
  spice op divider.cir --dump-system
  spice op divider.cir --watch                # re-solve on every save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			solve := func() error {
				deck, err := netlist.LoadFile(path)
				if err != nil {
					return err
				}

				if dumpSystem {
					asm, err := circuit.Assemble(deck.Circuit)
					if err != nil {
						return err
					}
					// keep machine-readable output clean
					w := cmd.OutOrStdout()
					if a.output != outputText {
						w = cmd.ErrOrStderr()
					}
					asm.System().Fprint(w, asm.Unknowns())
					fmt.Fprintln(w)
				}

				res, err := a.solveOP(cmd.Context(), deck.Circuit)
				if err != nil {
					return err
				}
				return a.write(cmd.OutOrStdout(), &opReport{Analysis: "op", Title: deck.Title, Result: res})
			}

			if !watch {
				return solve()
			}

			w, err := newFileWatcher(path)
			if err != nil {
				return err
			}
			defer w.Close()
			if err := solve(); err != nil {
				a.logger.Error("solve failed", "path", path, "error", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchLoop(ctx, w, path, a.logger, solve)
		},
	}

	cmd.Flags().BoolVar(&dumpSystem, "dump-system", false, "print the assembled MNA equations before solving")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-solve whenever the netlist file changes")
	return cmd
}
