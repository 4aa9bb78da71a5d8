package learner

import (
	"sort"

	"github.com/xh3b4sd/tracer"
	"gonum.org/v1/gonum/floats"

	"github.com/xh3b4sd/superlearner/model"
)

// KNN classifies rows by majority vote of their K nearest training rows in
// euclidean distance. Ties go to the smallest class.
type KNN struct {
	// K is the number of neighbours. K defaults to 5 and is capped by the
	// number of training rows.
	K int

	cla []float64
	fea [][]float64
	lab []float64
}

func (k *KNN) Classes() []float64 {
	return k.cla
}

func (k *KNN) Clone() model.Estimator {
	return &KNN{K: k.K}
}

func (k *KNN) Fit(fea [][]float64, lab []float64) error {
	err := verify(fea, lab)
	if err != nil {
		return tracer.Mask(err)
	}

	k.cla = classes(lab)
	k.fea = fea
	k.lab = lab

	return nil
}

func (k *KNN) Predict(fea [][]float64) ([]float64, error) {
	pro, err := k.PredictProba(fea)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	pre := make([]float64, len(pro))
	for i, r := range pro {
		pre[i] = k.cla[floats.MaxIdx(r)]
	}

	return pre, nil
}

// PredictProba returns the share of neighbour votes per class.
func (k *KNN) PredictProba(fea [][]float64) ([][]float64, error) {
	if k.fea == nil {
		return nil, tracer.Maskf(notFittedError, "KNN must be fitted before predicting")
	}

	n := k.K
	if n <= 0 {
		n = 5
	}
	if n > len(k.fea) {
		n = len(k.fea)
	}

	ind := map[float64]int{}
	for i, c := range k.cla {
		ind[c] = i
	}

	out := make([][]float64, len(fea))
	for i, r := range fea {
		if len(r) != len(k.fea[0]) {
			return nil, tracer.Maskf(invalidInputError, "row %d has %d features, expected %d", i, len(r), len(k.fea[0]))
		}

		dis := make([]float64, len(k.fea))
		pos := make([]int, len(k.fea))
		for j, t := range k.fea {
			dis[j] = floats.Distance(r, t, 2)
			pos[j] = j
		}

		sort.SliceStable(pos, func(a, b int) bool { return dis[pos[a]] < dis[pos[b]] })

		out[i] = make([]float64, len(k.cla))
		for _, j := range pos[:n] {
			out[i][ind[k.lab[j]]] += 1 / float64(n)
		}
	}

	return out, nil
}
