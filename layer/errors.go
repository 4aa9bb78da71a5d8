package layer

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var invalidConfigError = &tracer.Error{
	Kind: "invalidConfigError",
}

func IsInvalidConfig(err error) bool {
	return errors.Is(err, invalidConfigError)
}

var layerFitError = &tracer.Error{
	Kind: "layerFitError",
}

// IsLayerFit returns true if any fold or full data model of a layer failed to
// fit or predict. Such failures are fatal for the whole ensemble fit.
func IsLayerFit(err error) bool {
	return errors.Is(err, layerFitError)
}

var notFittedError = &tracer.Error{
	Kind: "notFittedError",
}

func IsNotFitted(err error) bool {
	return errors.Is(err, notFittedError)
}
