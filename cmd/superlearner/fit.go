package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xh3b4sd/tracer"

	"github.com/xh3b4sd/superlearner/ensemble"
	"github.com/xh3b4sd/superlearner/loader"
)

func newFitCommand(opts *Options, logger func(int) *slog.Logger) *cobra.Command {
	var fla Config

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit an ensemble and predict the remaining rows",
		Long:  "Fit an ensemble on the leading rows of a dataset, predict the remaining rows and print the cross validation scores of every base estimator.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := parseEnv()
			if err != nil {
				return tracer.Mask(err)
			}

			c = merge(cmd, c, fla)

			return runFit(cmd.OutOrStdout(), c, logger(c.Verbose), opts.NoColor)
		},
	}

	cmd.Flags().StringVar(&fla.Data, "data", "", "CSV file with the label in the first column, generates blobs if empty")
	cmd.Flags().StringVar(&fla.Ensemble, "ensemble", "", "YAML ensemble definition, defaults to knn and logistic with a logistic meta learner")
	cmd.Flags().IntVar(&fla.Folds, "folds", 2, "Number of cross validation folds")
	cmd.Flags().BoolVar(&fla.Header, "header", false, "Skip the first CSV record")
	cmd.Flags().IntVar(&fla.Jobs, "jobs", 0, "Maximum number of models trained concurrently, 0 bounds by estimator count")
	cmd.Flags().StringVar(&fla.Scorer, "scorer", "f1-micro", fmt.Sprintf("Scoring function, one of %v", names(scorers)))
	cmd.Flags().Int64Var(&fla.Seed, "seed", 2017, "Seed for shuffling and fold partitioning")
	cmd.Flags().IntVar(&fla.Train, "train", 0, "Number of leading rows to fit on, half of the rows if 0")
	cmd.Flags().IntVar(&fla.Verbose, "verbose", 1, "Verbosity 0, 1 or 2")

	return cmd
}

// merge overrides env derived settings with explicitly set flags.
func merge(cmd *cobra.Command, c Config, fla Config) Config {
	f := cmd.Flags()

	if f.Changed("data") {
		c.Data = fla.Data
	}
	if f.Changed("ensemble") {
		c.Ensemble = fla.Ensemble
	}
	if f.Changed("folds") {
		c.Folds = fla.Folds
	}
	if f.Changed("header") {
		c.Header = fla.Header
	}
	if f.Changed("jobs") {
		c.Jobs = fla.Jobs
	}
	if f.Changed("scorer") {
		c.Scorer = fla.Scorer
	}
	if f.Changed("seed") {
		c.Seed = fla.Seed
	}
	if f.Changed("train") {
		c.Train = fla.Train
	}
	if f.Changed("verbose") {
		c.Verbose = fla.Verbose
	}

	return c
}

func runFit(out io.Writer, c Config, log *slog.Logger, noColor bool) error {
	var err error

	sco, ok := scorers[c.Scorer]
	if !ok {
		return tracer.Maskf(invalidFlagError, "unknown scorer %q, expected one of %v", c.Scorer, names(scorers))
	}

	var dat *loader.Dataset
	{
		dat, err = dataset(c)
		if err != nil {
			return tracer.Mask(err)
		}
	}

	var tra, tes *loader.Dataset
	{
		n := c.Train
		if n == 0 {
			n = dat.Len() / 2
		}

		tra, tes, err = dat.Split(n)
		if err != nil {
			return tracer.Mask(err)
		}
	}

	var def Definition
	{
		def, err = readDefinition(c.Ensemble)
		if err != nil {
			return tracer.Mask(err)
		}
	}

	var ens *ensemble.Ensemble
	{
		ens, err = ensemble.New(ensemble.Config{
			Fol: c.Folds,
			Job: c.Jobs,
			Log: log,
			Sco: sco,
			See: c.Seed,
			Ver: c.Verbose,
		})
		if err != nil {
			return tracer.Mask(err)
		}

		err = build(ens, def)
		if err != nil {
			return tracer.Mask(err)
		}
	}

	{
		err = ens.Fit(tra.Features(), tra.Labels())
		if err != nil {
			return tracer.Mask(err)
		}
	}

	var pre []float64
	{
		pre, err = ens.Predict(tes.Features())
		if err != nil {
			return tracer.Mask(err)
		}
	}

	hea := color.New(color.FgWhite, color.Underline)
	if noColor {
		hea.DisableColor()
	}

	fmt.Fprintln(out, hea.Sprint("layers"))
	for _, s := range ens.Layers() {
		fmt.Fprintf(out, "layer-%d %v features %d -> %d\n", s.ID, s.Est, s.Inp, s.Out)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, hea.Sprint("scores"))
	{
		tab, err := ens.Data()
		if err != nil {
			return tracer.Mask(err)
		}

		err = tab.Write(out)
		if err != nil {
			return tracer.Mask(err)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, hea.Sprint("predictions"))
	fmt.Fprintf(out, "fitted on %d rows, predicted %d rows\n", tra.Len(), len(pre))
	if sco != nil {
		val, err := sco(tes.Labels(), pre)
		if err != nil {
			return tracer.Mask(err)
		}

		fmt.Fprintf(out, "%s on predictions: %.2f\n", c.Scorer, val)
	}

	return nil
}

// dataset loads the configured CSV file or generates iris sized blobs, and
// shuffles the rows with the configured seed.
func dataset(c Config) (*loader.Dataset, error) {
	var dat *loader.Dataset

	if c.Data == "" {
		b := &loader.Blobs{Cla: 3, Dim: 4, Num: 50, See: c.Seed}

		d, err := b.Generate()
		if err != nil {
			return nil, tracer.Mask(err)
		}

		dat = d
	} else {
		l := &loader.Loader{Hea: c.Header, Pat: c.Data}

		d, err := l.Load()
		if err != nil {
			return nil, tracer.Mask(err)
		}

		dat = d
	}

	return dat.Shuffle(c.Seed), nil
}
