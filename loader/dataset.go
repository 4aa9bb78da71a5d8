package loader

import (
	"math/rand"

	"github.com/xh3b4sd/tracer"
)

// Dataset is an immutable pair of a feature matrix and a label vector. All
// rows have the same width. Accessors return copies.
type Dataset struct {
	fea [][]float64
	lab []float64
}

func New(fea [][]float64, lab []float64) (*Dataset, error) {
	if len(fea) == 0 {
		return nil, tracer.Maskf(invalidInputError, "features must not be empty")
	}
	if len(fea) != len(lab) {
		return nil, tracer.Maskf(invalidInputError, "got %d feature rows but %d labels", len(fea), len(lab))
	}

	wid := len(fea[0])
	if wid == 0 {
		return nil, tracer.Maskf(invalidInputError, "rows must not be empty")
	}

	for i, r := range fea {
		if len(r) != wid {
			return nil, tracer.Maskf(invalidInputError, "row %d has %d features, expected %d", i, len(r), wid)
		}
	}

	d := &Dataset{
		fea: copyRows(fea),
		lab: append([]float64(nil), lab...),
	}

	return d, nil
}

func (d *Dataset) Features() [][]float64 {
	return copyRows(d.fea)
}

func (d *Dataset) Labels() []float64 {
	return append([]float64(nil), d.lab...)
}

func (d *Dataset) Len() int {
	return len(d.lab)
}

// Shuffle returns a new dataset with rows permuted by the given seed.
func (d *Dataset) Shuffle(see int64) *Dataset {
	prm := rand.New(rand.NewSource(see)).Perm(d.Len())

	s, _ := d.Subset(prm)

	return s
}

// Split returns the first n rows and the remaining rows as two datasets.
func (d *Dataset) Split(n int) (*Dataset, *Dataset, error) {
	if n <= 0 || n >= d.Len() {
		return nil, nil, tracer.Maskf(invalidConfigError, "split point must be within (0, %d), got %d", d.Len(), n)
	}

	tra := &Dataset{fea: copyRows(d.fea[:n]), lab: append([]float64(nil), d.lab[:n]...)}
	tes := &Dataset{fea: copyRows(d.fea[n:]), lab: append([]float64(nil), d.lab[n:]...)}

	return tra, tes, nil
}

// Subset returns a new dataset of the rows at the given indices, in order.
func (d *Dataset) Subset(ind []int) (*Dataset, error) {
	if len(ind) == 0 {
		return nil, tracer.Maskf(invalidConfigError, "indices must not be empty")
	}

	fea := make([][]float64, len(ind))
	lab := make([]float64, len(ind))
	for i, j := range ind {
		if j < 0 || j >= d.Len() {
			return nil, tracer.Maskf(invalidConfigError, "index %d out of range [0, %d)", j, d.Len())
		}

		fea[i] = append([]float64(nil), d.fea[j]...)
		lab[i] = d.lab[j]
	}

	return &Dataset{fea: fea, lab: lab}, nil
}

func (d *Dataset) Width() int {
	return len(d.fea[0])
}

func copyRows(fea [][]float64) [][]float64 {
	out := make([][]float64, len(fea))
	for i, r := range fea {
		out[i] = append([]float64(nil), r...)
	}

	return out
}
