package scorer

import (
	"math"

	"github.com/xh3b4sd/tracer"
)

// Func computes a scalar score from true labels and predictions of equal
// length. Func must not modify its arguments.
type Func func(tru []float64, pre []float64) (float64, error)

// Plain adapts a scoring function that cannot fail.
func Plain(fun func(tru []float64, pre []float64) float64) Func {
	return func(tru []float64, pre []float64) (float64, error) {
		return fun(tru, pre), nil
	}
}

type Config struct {
	// Fun is the required scoring function.
	Fun Func
}

type Scorer struct {
	fun Func
}

func New(c Config) (*Scorer, error) {
	if c.Fun == nil {
		return nil, tracer.Maskf(invalidConfigError, "%T.Fun must not be empty", c)
	}

	s := &Scorer{
		fun: c.Fun,
	}

	return s, nil
}

// Score applies the configured scoring function to the holdout labels and
// predictions of one fold. Returned errors, panics and non finite scores all
// result in scoringError.
func (s *Scorer) Score(tru []float64, pre []float64) (sco float64, err error) {
	if len(tru) != len(pre) {
		return 0, tracer.Maskf(scoringError, "got %d labels but %d predictions", len(tru), len(pre))
	}

	defer func() {
		if r := recover(); r != nil {
			sco = 0
			err = tracer.Maskf(scoringError, "panic: %v", r)
		}
	}()

	sco, err = s.fun(tru, pre)
	if err != nil {
		return 0, tracer.Maskf(scoringError, "%s", err)
	}

	if math.IsNaN(sco) || math.IsInf(sco, 0) {
		return 0, tracer.Maskf(scoringError, "score must be finite, got %v", sco)
	}

	return sco, nil
}
