package ensemble

import (
	"errors"

	"github.com/xh3b4sd/tracer"

	"github.com/xh3b4sd/superlearner/fold"
	"github.com/xh3b4sd/superlearner/layer"
	"github.com/xh3b4sd/superlearner/model"
	"github.com/xh3b4sd/superlearner/scorer"
)

var invalidConfigError = &tracer.Error{
	Kind: "invalidConfigError",
}

// IsInvalidConfig returns true for configuration errors of the ensemble and
// of any of its folds, layers, estimators or scorer.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, invalidConfigError) ||
		fold.IsInvalidConfig(err) ||
		layer.IsInvalidConfig(err) ||
		model.IsInvalidConfig(err) ||
		scorer.IsInvalidConfig(err)
}

var invalidStateError = &tracer.Error{
	Kind: "invalidStateError",
}

// IsInvalidState returns true if an operation was called while the ensemble
// was fitting.
func IsInvalidState(err error) bool {
	return errors.Is(err, invalidStateError)
}

var notFittedError = &tracer.Error{
	Kind: "notFittedError",
}

func IsNotFitted(err error) bool {
	return errors.Is(err, notFittedError) || layer.IsNotFitted(err)
}

func IsEstimator(err error) bool {
	return model.IsEstimator(err)
}

func IsLayerFit(err error) bool {
	return layer.IsLayerFit(err)
}
