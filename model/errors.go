package model

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var estimatorError = &tracer.Error{
	Kind: "estimatorError",
}

// IsEstimator returns true for capability violations of wrapped estimators as
// well as for failures propagated from their Fit, Predict and PredictProba
// calls.
func IsEstimator(err error) bool {
	return errors.Is(err, estimatorError)
}

var invalidConfigError = &tracer.Error{
	Kind: "invalidConfigError",
}

func IsInvalidConfig(err error) bool {
	return errors.Is(err, invalidConfigError)
}
