package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xh3b4sd/superlearner/logging"
)

type Options struct {
	LogLevel string
	NoColor  bool
}

// Execute builds the root command, runs it with the provided args and
// returns any error.
func Execute(args []string) error {
	cmd := newRootCommand(&Options{}, os.Stderr)
	cmd.SetArgs(args)

	return cmd.Execute()
}

func newRootCommand(opts *Options, log io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "superlearner",
		Short:         "superlearner fits stacked generalization ensembles",
		Long:          "superlearner fits a multi layer stacked generalization ensemble on a CSV dataset, predicts a holdout slice and prints per estimator cross validation scores.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error), derived from the verbosity if empty")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")

	logger := func(ver int) *slog.Logger {
		lev := logging.Verbosity(ver)
		if opts.LogLevel != "" {
			lev = logging.ParseLevel(opts.LogLevel)
		}

		return logging.NewLogger(log, lev, opts.NoColor)
	}

	cmd.AddCommand(
		newFitCommand(opts, logger),
		newLearnersCommand(),
	)

	return cmd
}
