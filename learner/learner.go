// Package learner provides small deterministic estimators satisfying the
// capability set stacked by ensembles. They serve as reference collaborators
// for tests and the command line tool.
package learner

import (
	"errors"
	"sort"

	"github.com/xh3b4sd/tracer"
)

var invalidInputError = &tracer.Error{
	Kind: "invalidInputError",
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, invalidInputError)
}

var notFittedError = &tracer.Error{
	Kind: "notFittedError",
}

func IsNotFitted(err error) bool {
	return errors.Is(err, notFittedError)
}

func classes(lab []float64) []float64 {
	see := map[float64]struct{}{}
	for _, v := range lab {
		see[v] = struct{}{}
	}

	var cla []float64
	for v := range see {
		cla = append(cla, v)
	}
	sort.Float64s(cla)

	return cla
}

func verify(fea [][]float64, lab []float64) error {
	if len(fea) == 0 {
		return tracer.Maskf(invalidInputError, "features must not be empty")
	}
	if len(fea) != len(lab) {
		return tracer.Maskf(invalidInputError, "got %d feature rows but %d labels", len(fea), len(lab))
	}

	return nil
}
