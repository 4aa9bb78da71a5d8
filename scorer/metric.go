package scorer

import (
	"math"
	"sort"

	"github.com/xh3b4sd/tracer"
)

// Accuracy is the share of predictions equal to their true label.
func Accuracy(tru []float64, pre []float64) (float64, error) {
	err := aligned(tru, pre)
	if err != nil {
		return 0, tracer.Mask(err)
	}

	var c int
	for i := range tru {
		if tru[i] == pre[i] {
			c++
		}
	}

	return float64(c) / float64(len(tru)), nil
}

// F1Micro is the micro averaged F1 score. For single label multiclass
// problems every false positive of one class is a false negative of another,
// so the micro average equals accuracy.
func F1Micro(tru []float64, pre []float64) (float64, error) {
	return Accuracy(tru, pre)
}

// F1Macro is the unweighted mean of the per class F1 scores over all classes
// present in either the labels or the predictions.
func F1Macro(tru []float64, pre []float64) (float64, error) {
	err := aligned(tru, pre)
	if err != nil {
		return 0, tracer.Mask(err)
	}

	cla := map[float64]struct{}{}
	for i := range tru {
		cla[tru[i]] = struct{}{}
		cla[pre[i]] = struct{}{}
	}

	var key []float64
	for c := range cla {
		key = append(key, c)
	}
	sort.Float64s(key)

	var sum float64
	for _, c := range key {
		var tp, fp, fn float64
		for i := range tru {
			switch {
			case tru[i] == c && pre[i] == c:
				tp++
			case tru[i] != c && pre[i] == c:
				fp++
			case tru[i] == c && pre[i] != c:
				fn++
			}
		}

		if tp == 0 {
			continue
		}

		sum += 2 * tp / (2*tp + fp + fn)
	}

	return sum / float64(len(key)), nil
}

func MAE(tru []float64, pre []float64) (float64, error) {
	err := aligned(tru, pre)
	if err != nil {
		return 0, tracer.Mask(err)
	}

	var s float64
	for i := range tru {
		s += math.Abs(pre[i] - tru[i])
	}

	return s / float64(len(tru)), nil
}

func MSE(tru []float64, pre []float64) (float64, error) {
	err := aligned(tru, pre)
	if err != nil {
		return 0, tracer.Mask(err)
	}

	var s float64
	for i := range tru {
		d := pre[i] - tru[i]
		s += d * d
	}

	return s / float64(len(tru)), nil
}

func RMSE(tru []float64, pre []float64) (float64, error) {
	mse, err := MSE(tru, pre)
	if err != nil {
		return 0, tracer.Mask(err)
	}

	return math.Sqrt(mse), nil
}

func aligned(tru []float64, pre []float64) error {
	if len(tru) == 0 {
		return tracer.Maskf(scoringError, "labels must not be empty")
	}

	if len(tru) != len(pre) {
		return tracer.Maskf(scoringError, "got %d labels but %d predictions", len(tru), len(pre))
	}

	return nil
}
