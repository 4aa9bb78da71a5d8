package loader

import (
	"math/rand"

	"github.com/xh3b4sd/tracer"
)

type Blobs struct {
	// Cla is the required number of classes. Classes are labelled 0 to Cla-1.
	Cla int
	// Dim is the required number of features.
	Dim int
	// Num is the required number of samples per class.
	Num int
	// See seeds both the cluster centres and the samples.
	See int64
	// Spr is the standard deviation of every cluster. Spr defaults to 1.
	Spr float64
}

// Generate draws Num samples per class from isotropic gaussians around
// centres spread uniformly in [-10, 10] per feature. Rows are ordered by
// class, use Shuffle to mix them.
func (b *Blobs) Generate() (*Dataset, error) {
	if b.Cla < 1 {
		return nil, tracer.Maskf(invalidConfigError, "%T.Cla must at least be 1", b)
	}
	if b.Dim < 1 {
		return nil, tracer.Maskf(invalidConfigError, "%T.Dim must at least be 1", b)
	}
	if b.Num < 1 {
		return nil, tracer.Maskf(invalidConfigError, "%T.Num must at least be 1", b)
	}

	spr := b.Spr
	if spr <= 0 {
		spr = 1
	}

	rng := rand.New(rand.NewSource(b.See))

	cen := make([][]float64, b.Cla)
	for c := range cen {
		cen[c] = make([]float64, b.Dim)
		for j := range cen[c] {
			cen[c][j] = rng.Float64()*20 - 10
		}
	}

	var fea [][]float64
	var lab []float64
	for c := range cen {
		for i := 0; i < b.Num; i++ {
			row := make([]float64, b.Dim)
			for j := range row {
				row[j] = cen[c][j] + rng.NormFloat64()*spr
			}

			fea = append(fea, row)
			lab = append(lab, float64(c))
		}
	}

	d, err := New(fea, lab)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	return d, nil
}
