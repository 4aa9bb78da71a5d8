package layer

import (
	"time"

	"github.com/xh3b4sd/tracer"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/xh3b4sd/superlearner/diagnostics"
	"github.com/xh3b4sd/superlearner/fold"
	"github.com/xh3b4sd/superlearner/model"
)

// result is the task local buffer of a single fold or full data task. Every
// task owns exactly one result, so tasks never share diagnostics state.
type result struct {
	fit time.Duration
	has bool
	pre time.Duration
	sco float64
	war error
}

// Fit trains every slot on every fold and on the full data, returning the out
// of fold prediction matrix. Row i of the matrix holds, for every slot, the
// prediction of the fold model whose holdout set contains i. Columns are the
// propagated input columns followed by the slots' columns in registration
// order. Scores, timings and warnings are merged into log once all tasks
// completed.
func (l *Layer) Fit(fea [][]float64, lab []float64, spl []fold.Split, log *diagnostics.Log) ([][]float64, error) {
	var err error

	{
		l.fit = false
	}

	{
		l.inp, err = l.verify(fea)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	if len(fea) != len(lab) {
		return nil, tracer.Maskf(invalidConfigError, "got %d feature rows but %d labels", len(fea), len(lab))
	}
	if len(spl) == 0 {
		return nil, tracer.Maskf(invalidConfigError, "fold splits must not be empty")
	}
	for k, s := range spl {
		if s.Fol != k {
			return nil, tracer.Maskf(invalidConfigError, "split %d must have fold id %d, got %d", k, k, s.Fol)
		}
	}

	if l.pro {
		l.cla = classes(lab)
	} else {
		l.cla = nil
	}

	var out [][]float64
	{
		l.assign()
		out = l.output(fea)
	}

	res := make([][]result, len(l.slo))
	for i, s := range l.slo {
		s.Fol = make([]*model.Model, len(spl))
		s.Ful = nil
		res[i] = make([]result, len(spl)+1)
	}

	var sta time.Time
	if l.ver >= 1 {
		sta = time.Now()
		l.log.Info("fitting layer", "layer", l.ind, "estimators", len(l.slo), "folds", len(spl), "samples", len(fea))
	}

	var grp errgroup.Group
	{
		grp.SetLimit(l.job)
	}

	for i, s := range l.slo {
		for k := range spl {
			grp.Go(func() error {
				return l.fold(s, spl[k], fea, lab, out, &res[i][k])
			})
		}

		grp.Go(func() error {
			return l.full(s, fea, lab, &res[i][len(spl)])
		})
	}

	{
		err = grp.Wait()
		if err != nil {
			for _, s := range l.slo {
				s.Fol = nil
				s.Ful = nil
			}

			return nil, tracer.Mask(err)
		}
	}

	{
		l.merge(spl, res, log)
	}

	if l.ver >= 1 {
		l.log.Info("fitted layer", "layer", l.ind, "duration", time.Since(sta))
	}

	{
		l.fit = true
	}

	return out, nil
}

func (l *Layer) fold(s *Slot, spl fold.Split, fea [][]float64, lab []float64, out [][]float64, res *result) error {
	var err error

	var mod *model.Model
	{
		mod, err = s.Mod.Clone()
		if err != nil {
			return tracer.Maskf(layerFitError, "%s (fold %d)", err, spl.Fol)
		}
	}

	{
		sta := time.Now()

		err = mod.Fit(rows(fea, spl.Tra), values(lab, spl.Tra))
		if err != nil {
			return tracer.Maskf(layerFitError, "%s (fold %d)", err, spl.Fol)
		}

		res.fit = time.Since(sta)
	}

	var pre [][]float64
	{
		sta := time.Now()

		pre, err = mod.Transform(rows(fea, spl.Hol), l.cla)
		if err != nil {
			return tracer.Maskf(layerFitError, "%s (fold %d)", err, spl.Fol)
		}

		res.pre = time.Since(sta)
	}

	for i, j := range spl.Hol {
		copy(out[j][s.Off:s.Off+s.Wid], pre[i])
	}

	{
		s.Fol[spl.Fol] = mod
	}

	if l.sco != nil {
		res.sco, res.war = l.sco.Score(values(lab, spl.Hol), l.labels(pre))
		res.has = res.war == nil
	}

	if l.ver >= 2 {
		l.log.Debug("fitted fold", "layer", l.ind, "estimator", s.Mod.Name(), "fold", spl.Fol, "fit", res.fit, "predict", res.pre)
	}

	return nil
}

func (l *Layer) full(s *Slot, fea [][]float64, lab []float64, res *result) error {
	var err error

	var mod *model.Model
	{
		mod, err = s.Mod.Clone()
		if err != nil {
			return tracer.Maskf(layerFitError, "%s (full data)", err)
		}
	}

	{
		sta := time.Now()

		err = mod.Fit(fea, lab)
		if err != nil {
			return tracer.Maskf(layerFitError, "%s (full data)", err)
		}

		res.fit = time.Since(sta)
	}

	{
		s.Ful = mod
	}

	if l.ver >= 2 {
		l.log.Debug("fitted full data model", "layer", l.ind, "estimator", s.Mod.Name(), "fit", res.fit)
	}

	return nil
}

// labels reduces transformed predictions to one label per row. Probabilistic
// rows map to the class with the highest probability.
func (l *Layer) labels(pre [][]float64) []float64 {
	lab := make([]float64, len(pre))
	for i, r := range pre {
		if l.pro {
			lab[i] = l.cla[floats.MaxIdx(r)]
		} else {
			lab[i] = r[0]
		}
	}

	return lab
}

func (l *Layer) merge(spl []fold.Split, res [][]result, log *diagnostics.Log) {
	var rec []diagnostics.Record
	var tim []diagnostics.Timing
	var war []diagnostics.Warning

	for i, s := range l.slo {
		for k, r := range res[i] {
			f := diagnostics.Full
			if k < len(spl) {
				f = spl[k].Fol
			}

			tim = append(tim, diagnostics.Timing{Lay: l.ind, Slo: i, Est: s.Mod.Name(), Fol: f, Fit: r.fit, Pre: r.pre})

			if r.has {
				rec = append(rec, diagnostics.Record{Lay: l.ind, Slo: i, Est: s.Mod.Name(), Fol: f, Sco: r.sco})
			}

			if r.war != nil {
				war = append(war, diagnostics.Warning{Lay: l.ind, Slo: i, Est: s.Mod.Name(), Fol: f, Err: r.war})
				l.log.Warn("scoring failed", "layer", l.ind, "estimator", s.Mod.Name(), "fold", f, "error", r.war)
			}
		}
	}

	if log != nil {
		log.Append(rec, tim, war)
	}
}

// assign gives every slot its column range, following the propagated input
// columns in registration order.
func (l *Layer) assign() {
	off := len(l.prp)
	for _, s := range l.slo {
		s.Off = off
		s.Wid = s.Mod.Width(l.cla)
		off += s.Wid
	}
}

// output allocates the layer's output matrix on a single backing array and
// fills the propagated input columns.
func (l *Layer) output(fea [][]float64) [][]float64 {
	off := l.Width()

	bac := make([]float64, len(fea)*off)
	out := make([][]float64, len(fea))
	for i := range out {
		out[i] = bac[i*off : (i+1)*off : (i+1)*off]
		for j, p := range l.prp {
			out[i][j] = fea[i][p]
		}
	}

	return out
}

// verify ensures all rows share the same width and propagated columns exist.
func (l *Layer) verify(fea [][]float64) (int, error) {
	if len(fea) == 0 {
		return 0, tracer.Maskf(invalidConfigError, "features must not be empty")
	}

	wid := len(fea[0])
	for i, r := range fea {
		if len(r) != wid {
			return 0, tracer.Maskf(invalidConfigError, "row %d has %d features, expected %d", i, len(r), wid)
		}
	}

	for _, p := range l.prp {
		if p >= wid {
			return 0, tracer.Maskf(invalidConfigError, "propagated column %d exceeds feature width %d", p, wid)
		}
	}

	return wid, nil
}

func rows(fea [][]float64, ind []int) [][]float64 {
	out := make([][]float64, len(ind))
	for i, j := range ind {
		out[i] = fea[j]
	}

	return out
}

func values(lab []float64, ind []int) []float64 {
	out := make([]float64, len(ind))
	for i, j := range ind {
		out[i] = lab[j]
	}

	return out
}
