package layer

import (
	"time"

	"github.com/xh3b4sd/tracer"
	"golang.org/x/sync/errgroup"
)

// Predict transforms fea with the full data model of every slot. The output
// has the same columns in the same order as the matrix returned by Fit.
func (l *Layer) Predict(fea [][]float64) ([][]float64, error) {
	if !l.fit {
		return nil, tracer.Maskf(notFittedError, "layer %d must be fitted before predicting", l.ind)
	}

	var err error

	{
		var wid int
		wid, err = l.verify(fea)
		if err != nil {
			return nil, tracer.Mask(err)
		}

		if wid != l.inp {
			return nil, tracer.Maskf(invalidConfigError, "layer %d was fitted on %d features, got %d", l.ind, l.inp, wid)
		}
	}

	var out [][]float64
	{
		out = l.output(fea)
	}

	var sta time.Time
	if l.ver >= 1 {
		sta = time.Now()
	}

	var grp errgroup.Group
	{
		grp.SetLimit(l.job)
	}

	for _, s := range l.slo {
		grp.Go(func() error {
			pre, err := s.Ful.Transform(fea, l.cla)
			if err != nil {
				return tracer.Maskf(layerFitError, "%s (full data)", err)
			}

			for i := range pre {
				copy(out[i][s.Off:s.Off+s.Wid], pre[i])
			}

			return nil
		})
	}

	{
		err = grp.Wait()
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	if l.ver >= 1 {
		l.log.Info("predicted layer", "layer", l.ind, "samples", len(fea), "duration", time.Since(sta))
	}

	return out, nil
}
