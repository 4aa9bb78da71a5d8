package main

import (
	"os"
	"sort"

	env "github.com/caarlos0/env/v11"
	"github.com/xh3b4sd/tracer"
	"gopkg.in/yaml.v3"

	"github.com/xh3b4sd/superlearner/ensemble"
	"github.com/xh3b4sd/superlearner/learner"
	"github.com/xh3b4sd/superlearner/model"
	"github.com/xh3b4sd/superlearner/scorer"
)

// Config holds the fit settings. Defaults come from SUPERLEARNER_* env vars,
// explicitly set flags take precedence.
type Config struct {
	// Data is the CSV file to fit on, from SUPERLEARNER_DATA. Blobs are
	// generated if empty.
	Data string `env:"SUPERLEARNER_DATA"`
	// Ensemble is the YAML ensemble definition, from SUPERLEARNER_ENSEMBLE.
	Ensemble string `env:"SUPERLEARNER_ENSEMBLE"`
	// Folds is the number of cross validation folds, from SUPERLEARNER_FOLDS.
	Folds int `env:"SUPERLEARNER_FOLDS" envDefault:"2"`
	// Header skips the first CSV record, from SUPERLEARNER_HEADER.
	Header bool `env:"SUPERLEARNER_HEADER"`
	// Jobs bounds concurrent model training, from SUPERLEARNER_JOBS.
	Jobs int `env:"SUPERLEARNER_JOBS"`
	// Scorer names the scoring function, from SUPERLEARNER_SCORER.
	Scorer string `env:"SUPERLEARNER_SCORER" envDefault:"f1-micro"`
	// Seed drives shuffling and fold partitioning, from SUPERLEARNER_SEED.
	Seed int64 `env:"SUPERLEARNER_SEED" envDefault:"2017"`
	// Train is the number of leading rows to fit on, from SUPERLEARNER_TRAIN.
	// Half of the rows are used if zero.
	Train int `env:"SUPERLEARNER_TRAIN"`
	// Verbose is the ensemble verbosity, from SUPERLEARNER_VERBOSE.
	Verbose int `env:"SUPERLEARNER_VERBOSE" envDefault:"1"`
}

func parseEnv() (Config, error) {
	var c Config

	err := env.Parse(&c)
	if err != nil {
		return Config{}, tracer.Mask(err)
	}

	return c, nil
}

// Definition is the YAML ensemble definition.
//
//	layers:
//	  - estimators: [knn, logistic]
//	  - estimators: [centroid, knn]
//	    proba: true
//	    propagate: [0]
//	meta: logistic
type Definition struct {
	Layers []LayerDefinition `yaml:"layers"`
	Meta   string            `yaml:"meta"`
}

type LayerDefinition struct {
	Estimators []string `yaml:"estimators"`
	Proba      bool     `yaml:"proba"`
	Propagate  []int    `yaml:"propagate"`
}

// defaultDefinition mirrors the getting started setup of a single layer of
// two base learners and a logistic meta learner.
func defaultDefinition() Definition {
	return Definition{
		Layers: []LayerDefinition{
			{Estimators: []string{"knn", "logistic"}},
		},
		Meta: "logistic",
	}
}

func readDefinition(pat string) (Definition, error) {
	if pat == "" {
		return defaultDefinition(), nil
	}

	byt, err := os.ReadFile(pat)
	if err != nil {
		return Definition{}, tracer.Mask(err)
	}

	var d Definition
	err = yaml.Unmarshal(byt, &d)
	if err != nil {
		return Definition{}, tracer.Mask(err)
	}

	return d, nil
}

var learners = map[string]model.Factory{
	"centroid": func() model.Estimator { return &learner.Centroid{} },
	"knn":      func() model.Estimator { return &learner.KNN{K: 5} },
	"logistic": func() model.Estimator { return &learner.Logistic{} },
}

var scorers = map[string]scorer.Func{
	"accuracy": scorer.Accuracy,
	"f1-macro": scorer.F1Macro,
	"f1-micro": scorer.F1Micro,
	"mae":      scorer.MAE,
	"mse":      scorer.MSE,
	"none":     nil,
	"rmse":     scorer.RMSE,
}

func names[V any](m map[string]V) []string {
	var nam []string
	for k := range m {
		nam = append(nam, k)
	}
	sort.Strings(nam)

	return nam
}

func lookup(nam string) (interface{}, error) {
	fac, ok := learners[nam]
	if !ok {
		return nil, tracer.Maskf(invalidFlagError, "unknown learner %q, expected one of %v", nam, names(learners))
	}

	return model.Named(nam, fac), nil
}

// build adds all layers and the meta learner of d to e.
func build(e *ensemble.Ensemble, d Definition) error {
	for _, l := range d.Layers {
		var est []interface{}
		for _, n := range l.Estimators {
			f, err := lookup(n)
			if err != nil {
				return tracer.Mask(err)
			}

			est = append(est, f)
		}

		_, err := e.AddLayer(ensemble.Layer{Est: est, Pro: l.Proba, Prp: l.Propagate})
		if err != nil {
			return tracer.Mask(err)
		}
	}

	met, err := lookup(d.Meta)
	if err != nil {
		return tracer.Mask(err)
	}

	err = e.AddMeta(met)
	if err != nil {
		return tracer.Mask(err)
	}

	return nil
}
