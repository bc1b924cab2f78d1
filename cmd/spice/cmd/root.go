package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/DrCloy/web-spice-sub001/internal/config"
	"github.com/DrCloy/web-spice-sub001/internal/telemetry"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// app carries the flag values and the settings resolved from them.
type app struct {
	configPath    string
	logLevel      string
	logFormat     string
	strategy      string
	backend       string
	checkFloating bool
	output        string
	trace         bool

	cfg       config.Config
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "spice",
		Short: "DC operating-point circuit solver",
		Long: `Solve linear DC circuits (resistors, independent voltage and current
sources) by modified nodal analysis.

Examples:
  spice run divider.cir                       # run every .op/.dc in the deck
  spice op divider.json -o json               # operating point as JSON
  spice op divider.cir --dump-system          # print the MNA equations first
  spice dc divider.cir --source V1 --start 0 --stop 10 --step 1 --plot out.png
  spice serve --addr :8080                    # HTTP API with /metrics`,
		Version:            version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "YAML config file")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.logFormat, "log-format", "", "log format: auto, text, json")
	f.StringVar(&a.strategy, "strategy", "", "solve strategy: auto, direct, newton")
	f.StringVar(&a.backend, "backend", "", "linear solver backend: dense, sparse")
	f.BoolVar(&a.checkFloating, "check-floating", false, "report floating nodes as FLOATING_NODE before solving")
	f.StringVarP(&a.output, "output", "o", "text", "output format: text, json, yaml")
	f.BoolVar(&a.trace, "trace", false, "print solver spans to stderr")

	root.AddCommand(newRunCmd(a), newOpCmd(a), newDCCmd(a), newServeCmd(a))
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup merges config file, environment and flags, in increasing priority.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("strategy") {
		cfg.Solver.Strategy = a.strategy
	}
	if flags.Changed("backend") {
		cfg.Solver.Backend = a.backend
	}
	if flags.Changed("check-floating") {
		cfg.Solver.CheckFloating = a.checkFloating
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	switch a.output {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}

	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger

	if a.trace {
		a.telemetry, err = telemetry.Init(telemetry.Config{
			ServiceName:    "spice",
			ServiceVersion: version,
			TraceExporter:  "stdout",
			Writer:         cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	if a.telemetry == nil {
		return nil
	}
	return a.telemetry.Shutdown(cmd.Context())
}
