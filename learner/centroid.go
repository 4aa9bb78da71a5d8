package learner

import (
	"math"

	"github.com/xh3b4sd/tracer"
	"gonum.org/v1/gonum/floats"

	"github.com/xh3b4sd/superlearner/model"
)

// Centroid assigns every row the class of the nearest class mean.
// Probabilities are the softmax over negative euclidean distances.
type Centroid struct {
	cen [][]float64
	cla []float64
}

func (c *Centroid) Classes() []float64 {
	return c.cla
}

func (c *Centroid) Clone() model.Estimator {
	return &Centroid{}
}

func (c *Centroid) Fit(fea [][]float64, lab []float64) error {
	err := verify(fea, lab)
	if err != nil {
		return tracer.Mask(err)
	}

	c.cla = classes(lab)

	ind := map[float64]int{}
	for i, v := range c.cla {
		ind[v] = i
	}

	cnt := make([]float64, len(c.cla))
	c.cen = make([][]float64, len(c.cla))
	for i := range c.cen {
		c.cen[i] = make([]float64, len(fea[0]))
	}

	for i, r := range fea {
		floats.Add(c.cen[ind[lab[i]]], r)
		cnt[ind[lab[i]]]++
	}

	for i := range c.cen {
		floats.Scale(1/cnt[i], c.cen[i])
	}

	return nil
}

func (c *Centroid) Predict(fea [][]float64) ([]float64, error) {
	pro, err := c.PredictProba(fea)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	pre := make([]float64, len(pro))
	for i, r := range pro {
		pre[i] = c.cla[floats.MaxIdx(r)]
	}

	return pre, nil
}

func (c *Centroid) PredictProba(fea [][]float64) ([][]float64, error) {
	if c.cen == nil {
		return nil, tracer.Maskf(notFittedError, "Centroid must be fitted before predicting")
	}

	out := make([][]float64, len(fea))
	for i, r := range fea {
		if len(r) != len(c.cen[0]) {
			return nil, tracer.Maskf(invalidInputError, "row %d has %d features, expected %d", i, len(r), len(c.cen[0]))
		}

		out[i] = make([]float64, len(c.cen))
		for j, m := range c.cen {
			out[i][j] = -floats.Distance(r, m, 2)
		}

		top := floats.Max(out[i])
		for j := range out[i] {
			out[i][j] = math.Exp(out[i][j] - top)
		}
		floats.Scale(1/floats.Sum(out[i]), out[i])
	}

	return out, nil
}
