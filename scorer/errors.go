package scorer

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

var scoringError = &tracer.Error{
	Kind: "scoringError",
}

// IsScoring returns true for failures of scoring functions. Scoring failures
// are recorded as warnings and never abort a fit.
func IsScoring(err error) bool {
	return errors.Is(err, scoringError)
}
