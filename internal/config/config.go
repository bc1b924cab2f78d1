// Package config loads solver settings with priority env > file > defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/DrCloy/web-spice-sub001/internal/logging"
	"github.com/DrCloy/web-spice-sub001/pkg/analysis"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Solver SolverConfig `yaml:"solver"`
	Log    LogConfig    `yaml:"log"`
	Sweep  SweepConfig  `yaml:"sweep"`
}

type SolverConfig struct {
	Strategy      string                 `yaml:"strategy"` // auto, direct or newton
	Backend       string                 `yaml:"backend"`  // dense or sparse
	CheckFloating bool                   `yaml:"checkFloating"`
	Newton        analysis.NewtonOptions `yaml:"newton"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // auto, text or json
}

type SweepConfig struct {
	Workers int `yaml:"workers"`
}

func Default() Config {
	return Config{
		Solver: SolverConfig{
			Strategy: analysis.StrategyAuto.String(),
			Backend:  analysis.BackendDense.String(),
			Newton:   analysis.DefaultNewtonOptions(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatAuto),
		},
		Sweep: SweepConfig{Workers: 4},
	}
}

// Load merges defaults, the YAML file at path (skipped when path is empty)
// and SPICE_* environment variables, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("SPICE_STRATEGY"); v != "" {
		cfg.Solver.Strategy = v
	}
	if v := os.Getenv("SPICE_BACKEND"); v != "" {
		cfg.Solver.Backend = v
	}
	if v := os.Getenv("SPICE_CHECK_FLOATING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SPICE_CHECK_FLOATING: %w", err)
		}
		cfg.Solver.CheckFloating = b
	}
	if v := os.Getenv("SPICE_MAX_ITERATIONS"); v != "" {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("SPICE_MAX_ITERATIONS: %w", err)
		}
		cfg.Solver.Newton.MaxIterations = i
	}
	if v := os.Getenv("SPICE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SPICE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SPICE_SWEEP_WORKERS"); v != "" {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("SPICE_SWEEP_WORKERS: %w", err)
		}
		cfg.Sweep.Workers = i
	}
	return nil
}

func (c Config) Validate() error {
	if _, err := analysis.ParseStrategy(c.Solver.Strategy); err != nil {
		return err
	}
	if _, err := analysis.ParseBackend(c.Solver.Backend); err != nil {
		return err
	}
	if err := c.Solver.Newton.Validate(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	if c.Sweep.Workers < 1 {
		return fmt.Errorf("sweep workers must be at least 1, got %d", c.Sweep.Workers)
	}
	return nil
}

// Options converts a validated config into analysis options.
func (c Config) Options(logger *slog.Logger) []analysis.Option {
	strategy, _ := analysis.ParseStrategy(c.Solver.Strategy)
	backend, _ := analysis.ParseBackend(c.Solver.Backend)
	return []analysis.Option{
		analysis.WithStrategy(strategy),
		analysis.WithBackend(backend),
		analysis.WithNewtonOptions(c.Solver.Newton),
		analysis.WithFloatingNodeCheck(c.Solver.CheckFloating),
		analysis.WithWorkers(c.Sweep.Workers),
		analysis.WithLogger(logger),
	}
}

// Logger builds the logger described by the log section.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	return logging.New(c.Log.Level, c.Log.Format, w)
}
