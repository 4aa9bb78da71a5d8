package ensemble

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/xh3b4sd/tracer"

	"github.com/xh3b4sd/superlearner"
	"github.com/xh3b4sd/superlearner/diagnostics"
	"github.com/xh3b4sd/superlearner/fold"
	"github.com/xh3b4sd/superlearner/layer"
	"github.com/xh3b4sd/superlearner/model"
	"github.com/xh3b4sd/superlearner/scorer"
)

var _ superlearner.Ensemble = &Ensemble{}

type Config struct {
	// Fol is the number of cross validation folds used by every layer. Fol
	// defaults to 2.
	Fol int
	// Job is the maximum number of models trained concurrently within a
	// layer. Job defaults to the number of estimators of the respective layer.
	Job int
	// Log is the logger used for progress and warnings. Log defaults to a
	// logger discarding everything.
	Log *slog.Logger
	// Sco is the optional scoring function applied to the holdout predictions
	// of every estimator on every fold.
	Sco scorer.Func
	// See is the seed for partitioning samples into folds.
	See int64
	// Ver is the verbosity. 0 only logs warnings, 1 logs per layer and adds
	// timings to the diagnostics table, 2 logs per fold.
	Ver int
}

// Layer configures a single layer added via AddLayer.
type Layer struct {
	// Est is the required list of estimators.
	Est []interface{}
	// Pro makes the layer emit class probabilities. See layer.Config.Pro.
	Pro bool
	// Prp lists input columns propagated to the layer's output. See
	// layer.Config.Prp.
	Prp []int
}

// Shape describes the feature widths a fitted layer consumes and produces.
type Shape struct {
	ID  int
	Est []string
	Inp int
	Out int
}

// Ensemble is a stacked generalization ensemble. Layers are fitted in the
// order they got added, each on the out of fold predictions of its
// predecessor. The meta estimator is fitted on the out of fold predictions of
// the last layer.
type Ensemble struct {
	dia  *diagnostics.Log
	fol  *fold.Partitioner
	job  int
	lay  []*layer.Layer
	log  *slog.Logger
	met  *model.Model
	mft  *model.Model
	mut  sync.RWMutex
	once bool
	sco  *scorer.Scorer
	sta  State
	ver  int
}

func New(c Config) (*Ensemble, error) {
	if c.Fol == 0 {
		c.Fol = 2
	}
	if c.Job < 0 {
		return nil, tracer.Maskf(invalidConfigError, "%T.Job must not be negative", c)
	}
	if c.Ver < 0 || c.Ver > 2 {
		return nil, tracer.Maskf(invalidConfigError, "%T.Ver must be 0, 1 or 2", c)
	}
	if c.Log == nil {
		c.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var err error

	var fol *fold.Partitioner
	{
		fol, err = fold.New(fold.Config{Fol: c.Fol, See: c.See})
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	var sco *scorer.Scorer
	if c.Sco != nil {
		sco, err = scorer.New(scorer.Config{Fun: c.Sco})
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	e := &Ensemble{
		fol: fol,
		job: c.Job,
		log: c.Log,
		sco: sco,
		sta: StateUnfit,
		ver: c.Ver,
	}

	return e, nil
}

// Add appends a layer of the given estimators and returns its layer id. The
// first layer has id 1. Adding a layer to a fitted ensemble requires it to be
// fitted again.
func (e *Ensemble) Add(est []interface{}) (int, error) {
	return e.AddLayer(Layer{Est: est})
}

func (e *Ensemble) AddLayer(c Layer) (int, error) {
	e.mut.Lock()
	defer e.mut.Unlock()

	if e.sta == StateFitting {
		return 0, tracer.Maskf(invalidStateError, "layers cannot be added while fitting")
	}

	var err error

	var lay *layer.Layer
	{
		lay, err = layer.New(layer.Config{
			Est: c.Est,
			Ind: len(e.lay) + 1,
			Job: e.job,
			Log: e.log,
			Pro: c.Pro,
			Prp: c.Prp,
			Sco: e.sco,
			Ver: e.ver,
		})
		if err != nil {
			return 0, tracer.Mask(err)
		}
	}

	{
		e.lay = append(e.lay, lay)
		e.reset()
	}

	return lay.ID(), nil
}

// AddMeta sets the meta estimator trained on the output of the last layer.
// The meta estimator can be set once before the first fit and replaced after
// every fit attempt, which then requires fitting again.
func (e *Ensemble) AddMeta(est interface{}) error {
	e.mut.Lock()
	defer e.mut.Unlock()

	if e.sta == StateFitting {
		return tracer.Maskf(invalidStateError, "the meta estimator cannot be set while fitting")
	}
	if e.met != nil && !e.once {
		return tracer.Maskf(invalidConfigError, "the meta estimator must only be set once before fitting")
	}

	var err error

	var met *model.Model
	{
		met, err = model.New(model.Config{Est: est, Lay: model.Meta})
		if err != nil {
			return tracer.Mask(err)
		}
	}

	{
		e.met = met
		e.reset()
	}

	return nil
}

// Data returns the diagnostics table of the last successful fit.
func (e *Ensemble) Data() (*diagnostics.Table, error) {
	e.mut.RLock()
	defer e.mut.RUnlock()

	if e.sta != StateFit {
		return nil, tracer.Maskf(notFittedError, "the ensemble must be fitted before accessing its diagnostics")
	}

	return diagnostics.Aggregate(e.dia, e.ver >= 1), nil
}

// Fit trains all layers and the meta estimator on fea and lab. Any previous
// fit is discarded. If Fit fails the ensemble is left unfit.
func (e *Ensemble) Fit(fea [][]float64, lab []float64) error {
	{
		e.mut.Lock()

		if e.sta == StateFitting {
			e.mut.Unlock()
			return tracer.Maskf(invalidStateError, "the ensemble is already fitting")
		}
		if len(e.lay) == 0 {
			e.mut.Unlock()
			return tracer.Maskf(invalidConfigError, "the ensemble must have at least one layer")
		}
		if e.met == nil {
			e.mut.Unlock()
			return tracer.Maskf(invalidConfigError, "the ensemble must have a meta estimator")
		}

		e.sta = StateFitting
		e.dia = nil
		e.mft = nil
		e.once = true

		e.mut.Unlock()
	}

	dia := diagnostics.NewLog()

	mft, err := e.fit(fea, lab, dia)

	{
		e.mut.Lock()

		if err != nil {
			e.sta = StateUnfit
		} else {
			e.dia = dia
			e.mft = mft
			e.sta = StateFit
		}

		e.mut.Unlock()
	}

	if err != nil {
		return tracer.Mask(err)
	}

	return nil
}

// Layers returns the shape of every layer in fit order. Input widths are
// zero for layers not fitted yet. Layers returns nil while fitting.
func (e *Ensemble) Layers() []Shape {
	e.mut.RLock()
	defer e.mut.RUnlock()

	if e.sta == StateFitting {
		return nil
	}

	var sha []Shape
	for _, l := range e.lay {
		sha = append(sha, Shape{ID: l.ID(), Est: l.Names(), Inp: l.Input(), Out: l.Width()})
	}

	return sha
}

// Predict runs fea through the full data models of every layer and returns
// the predictions of the meta estimator, one per row of fea. Empty input
// yields empty predictions.
func (e *Ensemble) Predict(fea [][]float64) ([]float64, error) {
	e.mut.RLock()
	defer e.mut.RUnlock()

	if e.sta != StateFit {
		return nil, tracer.Maskf(notFittedError, "the ensemble must be fitted before predicting")
	}
	if len(fea) == 0 {
		return []float64{}, nil
	}

	var sta time.Time
	if e.ver >= 1 {
		sta = time.Now()
	}

	var err error

	inp := fea
	for _, l := range e.lay {
		inp, err = l.Predict(inp)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	var pre []float64
	{
		pre, err = e.mft.Predict(inp)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	if e.ver >= 1 {
		e.log.Info("predicted ensemble", "samples", len(fea), "duration", time.Since(sta))
	}

	return pre, nil
}

func (e *Ensemble) State() State {
	e.mut.RLock()
	defer e.mut.RUnlock()

	return e.sta
}

func (e *Ensemble) fit(fea [][]float64, lab []float64, dia *diagnostics.Log) (*model.Model, error) {
	var err error

	if len(fea) != len(lab) {
		return nil, tracer.Maskf(invalidConfigError, "got %d feature rows but %d labels", len(fea), len(lab))
	}

	var sta time.Time
	if e.ver >= 1 {
		sta = time.Now()
		e.log.Info("fitting ensemble", "layers", len(e.lay), "folds", e.fol.Folds(), "samples", len(fea))
	}

	var spl []fold.Split
	{
		spl, err = e.fol.Splits(len(fea))
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	inp := fea
	for _, l := range e.lay {
		inp, err = l.Fit(inp, lab, spl, dia)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	var mft *model.Model
	{
		mft, err = e.met.Clone()
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	{
		err = mft.Fit(inp, lab)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	if e.ver >= 1 {
		e.log.Info("fitted ensemble", "meta", mft.Name(), "features", len(inp[0]), "duration", time.Since(sta))
	}

	return mft, nil
}

// reset marks a fitted ensemble as unfit after its configuration changed.
// The diagnostics of the previous fit are dropped with it.
func (e *Ensemble) reset() {
	if e.sta == StateFit {
		e.sta = StateUnfit
		e.dia = nil
		e.mft = nil
	}
}
