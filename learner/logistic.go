package learner

import (
	"math"

	"github.com/xh3b4sd/tracer"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/xh3b4sd/superlearner/model"
)

// Logistic is a multinomial logistic regression trained with full batch
// gradient descent on standardized features. Weights start at zero, so
// training is deterministic.
type Logistic struct {
	// Epo is the number of gradient descent epochs. Epo defaults to 200.
	Epo int
	// Lrn is the learning rate. Lrn defaults to 0.5.
	Lrn float64
	// Reg is the L2 penalty applied to all weights but the biases.
	Reg float64

	cla []float64
	mea []float64
	std []float64
	wei [][]float64
}

func (l *Logistic) Classes() []float64 {
	return l.cla
}

func (l *Logistic) Clone() model.Estimator {
	return &Logistic{Epo: l.Epo, Lrn: l.Lrn, Reg: l.Reg}
}

func (l *Logistic) Fit(fea [][]float64, lab []float64) error {
	err := verify(fea, lab)
	if err != nil {
		return tracer.Mask(err)
	}

	epo := l.Epo
	if epo <= 0 {
		epo = 200
	}
	lrn := l.Lrn
	if lrn <= 0 {
		lrn = 0.5
	}

	l.cla = classes(lab)
	l.standardize(fea)

	dim := len(fea[0]) + 1

	l.wei = make([][]float64, len(l.cla))
	for c := range l.wei {
		l.wei[c] = make([]float64, dim)
	}

	ind := map[float64]int{}
	for i, c := range l.cla {
		ind[c] = i
	}

	var row [][]float64
	for _, r := range fea {
		row = append(row, l.scale(r))
	}

	gra := make([][]float64, len(l.cla))
	for e := 0; e < epo; e++ {
		for c := range gra {
			gra[c] = make([]float64, dim)
		}

		for i, r := range row {
			p := l.softmax(r)
			for c := range p {
				d := p[c]
				if ind[lab[i]] == c {
					d -= 1
				}
				floats.AddScaled(gra[c], d, r)
			}
		}

		for c := range l.wei {
			floats.Scale(1/float64(len(row)), gra[c])
			for j := 1; j < dim; j++ {
				gra[c][j] += l.Reg * l.wei[c][j]
			}
			floats.AddScaled(l.wei[c], -lrn, gra[c])
		}
	}

	return nil
}

func (l *Logistic) Predict(fea [][]float64) ([]float64, error) {
	pro, err := l.PredictProba(fea)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	pre := make([]float64, len(pro))
	for i, r := range pro {
		pre[i] = l.cla[floats.MaxIdx(r)]
	}

	return pre, nil
}

func (l *Logistic) PredictProba(fea [][]float64) ([][]float64, error) {
	if l.wei == nil {
		return nil, tracer.Maskf(notFittedError, "Logistic must be fitted before predicting")
	}

	out := make([][]float64, len(fea))
	for i, r := range fea {
		if len(r) != len(l.mea) {
			return nil, tracer.Maskf(invalidInputError, "row %d has %d features, expected %d", i, len(r), len(l.mea))
		}

		out[i] = l.softmax(l.scale(r))
	}

	return out, nil
}

// scale standardizes r and prepends the bias term.
func (l *Logistic) scale(r []float64) []float64 {
	out := make([]float64, len(r)+1)
	out[0] = 1
	for j, v := range r {
		out[j+1] = (v - l.mea[j]) / l.std[j]
	}

	return out
}

func (l *Logistic) softmax(r []float64) []float64 {
	out := make([]float64, len(l.wei))
	for c, w := range l.wei {
		out[c] = floats.Dot(w, r)
	}

	top := floats.Max(out)
	for c := range out {
		out[c] = math.Exp(out[c] - top)
	}
	floats.Scale(1/floats.Sum(out), out)

	return out
}

func (l *Logistic) standardize(fea [][]float64) {
	dim := len(fea[0])

	l.mea = make([]float64, dim)
	l.std = make([]float64, dim)

	col := make([]float64, len(fea))
	for j := 0; j < dim; j++ {
		for i, r := range fea {
			col[i] = r[j]
		}

		l.mea[j], l.std[j] = stat.PopMeanStdDev(col, nil)
		if l.std[j] == 0 {
			l.std[j] = 1
		}
	}
}
