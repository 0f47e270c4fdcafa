package main

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/config"
	"github.com/born-ml/riemann/internal/diagnostics"
	"github.com/born-ml/riemann/internal/tensor"
)

var errCheckFailed = errors.New("diagnostics failed")

type checkOptions struct {
	configPath string
	dtype      string
	samples    int
	seed       int64
	std        float64
	verbose    bool
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the geometric diagnostics on a geometry",
		Long: `check builds the geometry from --config (or a small default geometry) and
runs every diagnostic property on random samples. It logs one line per
property and fails when any property fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Geometry file (default: built-in mixed geometry)")
	flags.StringVar(&opts.dtype, "dtype", "float64", "Element type: float32 or float64")
	flags.IntVar(&opts.samples, "samples", 64, "Batch size of every sampled tensor")
	flags.Int64Var(&opts.seed, "seed", 0, "Random seed")
	flags.Float64Var(&opts.std, "std", 0.5, "Spread of sampled points and tangent vectors")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Also log skipped properties")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions) error {
	logger := newLogger(cmd.OutOrStdout(), opts.verbose)

	g := config.Default()
	if opts.configPath != "" {
		var err error
		if g, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}
	if opts.samples <= 0 {
		return fmt.Errorf("--samples must be positive, got %d", opts.samples)
	}
	dopts := diagnostics.Options{
		Samples: opts.samples,
		Std:     opts.std,
		Rand:    rand.New(rand.NewSource(opts.seed)), //nolint:gosec // sampling, not crypto
	}

	var (
		report diagnostics.Report
		err    error
	)
	switch opts.dtype {
	case "float32":
		report, err = check[float32](g, dopts)
	case "float64":
		report, err = check[float64](g, dopts)
	default:
		return fmt.Errorf("unsupported --dtype %q (want float32 or float64)", opts.dtype)
	}
	if err != nil {
		return err
	}

	logReport(logger, g, report)
	if !report.OK() {
		return fmt.Errorf("%w: %d of %d properties", errCheckFailed, len(report.Failed()), len(report.Results))
	}
	return nil
}

func check[T tensor.Float](g *config.Geometry, opts diagnostics.Options) (diagnostics.Report, error) {
	m, err := config.Build[T](g, cpu.New())
	if err != nil {
		return diagnostics.Report{}, err
	}
	return diagnostics.Run(m, g.PointShape(), opts)
}

func logReport(logger *logrus.Logger, g *config.Geometry, report diagnostics.Report) {
	base := logger.WithFields(logrus.Fields{
		"geometry": g.Name,
		"manifold": report.Manifold,
		"dtype":    report.DType,
	})
	for _, r := range report.Results {
		entry := base.WithField("property", r.Property)
		switch {
		case r.Skipped:
			entry.WithField("reason", r.Reason).Debug("skipped")
		case r.OK:
			entry.WithField("residual", r.Residual).Info("ok")
		default:
			entry.WithFields(logrus.Fields{"residual": r.Residual, "reason": r.Reason}).Error("failed")
		}
	}
	base.WithField("failed", len(report.Failed())).Info("done")
}
