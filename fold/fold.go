package fold

import (
	"math/rand"

	"github.com/xh3b4sd/tracer"
)

type Config struct {
	// Fol is the required number of folds the samples get partitioned into.
	// Fol must at least be 2.
	Fol int
	// See is the seed used to shuffle sample indices before assigning them to
	// folds. The same seed always yields the same partition.
	See int64
}

// Split is the train/holdout index pair of a single fold. Hol contains the
// indices assigned to the fold, Tra contains all remaining indices. Both are
// sorted in ascending order.
type Split struct {
	Fol int
	Hol []int
	Tra []int
}

type Partitioner struct {
	fol int
	see int64
}

func New(c Config) (*Partitioner, error) {
	if c.Fol < 2 {
		return nil, tracer.Maskf(invalidConfigError, "%T.Fol must at least be 2", c)
	}

	p := &Partitioner{
		fol: c.Fol,
		see: c.See,
	}

	return p, nil
}

// Assign maps every sample index in [0, n) to a fold id in [0, Fol). Shuffled
// indices are dealt round robin, so every fold receives either floor(n/Fol) or
// ceil(n/Fol) samples and no fold is empty.
func (p *Partitioner) Assign(n int) ([]int, error) {
	if p.fol > n {
		return nil, tracer.Maskf(invalidConfigError, "fold count %d must not exceed sample count %d", p.fol, n)
	}

	var prm []int
	{
		prm = rand.New(rand.NewSource(p.see)).Perm(n)
	}

	ass := make([]int, n)
	for i, j := range prm {
		ass[j] = i % p.fol
	}

	return ass, nil
}

func (p *Partitioner) Folds() int {
	return p.fol
}

// Splits returns one Split per fold, ordered by fold id.
func (p *Partitioner) Splits(n int) ([]Split, error) {
	var err error

	var ass []int
	{
		ass, err = p.Assign(n)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	spl := make([]Split, p.fol)
	for k := range spl {
		spl[k].Fol = k
	}

	for i, k := range ass {
		for j := range spl {
			if j == k {
				spl[j].Hol = append(spl[j].Hol, i)
			} else {
				spl[j].Tra = append(spl[j].Tra, i)
			}
		}
	}

	return spl, nil
}
