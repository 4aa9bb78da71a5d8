package layer

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/xh3b4sd/tracer"

	"github.com/xh3b4sd/superlearner/model"
	"github.com/xh3b4sd/superlearner/scorer"
)

type Config struct {
	// Est is the required list of estimators trained in this layer. See
	// model.Config.Est for the accepted values.
	Est []interface{}
	// Ind is the required layer id, starting at 1 for the first layer of an
	// ensemble.
	Ind int
	// Job is the maximum number of models trained concurrently. Job defaults
	// to the number of estimators in the layer.
	Job int
	// Log is the logger used to emit progress and warnings. Log defaults to a
	// logger discarding everything.
	Log *slog.Logger
	// Pro makes every estimator of the layer emit class probabilities instead
	// of point predictions. All estimators must then implement model.Prober.
	Pro bool
	// Prp is the optional list of input column indices copied in front of the
	// layer's prediction columns.
	Prp []int
	// Sco is the optional scorer applied to the holdout predictions of every
	// fold.
	Sco *scorer.Scorer
	// Ver controls progress logging. 1 logs once per layer, 2 additionally
	// logs every fold of every estimator.
	Ver int
}

// Slot is one configured estimator of a layer together with the models
// trained from it. Fol holds one model per fold, Ful the model trained on all
// samples, used for full data prediction.
type Slot struct {
	Ful *model.Model
	Fol []*model.Model
	Mod *model.Model
	// Off is the index of the slot's first output column.
	Off int
	// Wid is the number of output columns of the slot.
	Wid int
}

type Layer struct {
	cla []float64
	fit bool
	ind int
	inp int
	job int
	log *slog.Logger
	pro bool
	prp []int
	sco *scorer.Scorer
	slo []*Slot
	ver int
}

func New(c Config) (*Layer, error) {
	if len(c.Est) == 0 {
		return nil, tracer.Maskf(invalidConfigError, "%T.Est must not be empty", c)
	}
	if c.Ind < 1 {
		return nil, tracer.Maskf(invalidConfigError, "%T.Ind must at least be 1", c)
	}
	if c.Job < 0 {
		return nil, tracer.Maskf(invalidConfigError, "%T.Job must not be negative", c)
	}
	for _, p := range c.Prp {
		if p < 0 {
			return nil, tracer.Maskf(invalidConfigError, "%T.Prp must not contain negative indices", c)
		}
	}

	if c.Job == 0 {
		c.Job = len(c.Est)
	}
	if c.Log == nil {
		c.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var err error

	var mod []*model.Model
	{
		mod, err = models(c)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	var slo []*Slot
	for _, m := range mod {
		slo = append(slo, &Slot{Mod: m})
	}

	l := &Layer{
		ind: c.Ind,
		job: c.Job,
		log: c.Log,
		pro: c.Pro,
		prp: append([]int(nil), c.Prp...),
		sco: c.Sco,
		slo: slo,
		ver: c.Ver,
	}

	return l, nil
}

// Classes returns the sorted class set a probabilistic layer aligns its
// output columns with. Classes is empty for layers emitting point
// predictions.
func (l *Layer) Classes() []float64 {
	return append([]float64(nil), l.cla...)
}

func (l *Layer) Fitted() bool {
	return l.fit
}

func (l *Layer) ID() int {
	return l.ind
}

// Input returns the feature width the layer was fitted on.
func (l *Layer) Input() int {
	return l.inp
}

func (l *Layer) Names() []string {
	var nam []string
	for _, s := range l.slo {
		nam = append(nam, s.Mod.Name())
	}

	return nam
}

func (l *Layer) Slots() []*Slot {
	return l.slo
}

// Width returns the number of output columns the layer produces. Width is
// only known after Fit for probabilistic layers.
func (l *Layer) Width() int {
	wid := len(l.prp)
	for _, s := range l.slo {
		wid += s.Mod.Width(l.cla)
	}

	return wid
}

// models wraps all configured estimators. Duplicate names within the layer
// get numbered suffixes, e.g. "knn-1" and "knn-2".
func models(c Config) ([]*model.Model, error) {
	var mod []*model.Model
	for _, e := range c.Est {
		m, err := model.New(model.Config{Est: e, Lay: c.Ind, Pro: c.Pro})
		if err != nil {
			return nil, tracer.Mask(err)
		}

		mod = append(mod, m)
	}

	cnt := map[string]int{}
	for _, m := range mod {
		cnt[m.Name()]++
	}

	see := map[string]int{}
	for i, m := range mod {
		if cnt[m.Name()] < 2 {
			continue
		}

		see[m.Name()]++

		d, err := model.New(model.Config{Est: c.Est[i], Lay: c.Ind, Nam: fmt.Sprintf("%s-%d", m.Name(), see[m.Name()]), Pro: c.Pro})
		if err != nil {
			return nil, tracer.Mask(err)
		}

		mod[i] = d
	}

	return mod, nil
}

func classes(lab []float64) []float64 {
	see := map[float64]struct{}{}
	for _, v := range lab {
		see[v] = struct{}{}
	}

	var cla []float64
	for v := range see {
		cla = append(cla, v)
	}
	sort.Float64s(cla)

	return cla
}
