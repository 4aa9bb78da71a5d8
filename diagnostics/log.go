package diagnostics

import (
	"sync"
	"time"
)

// Record is a single cross validation score of one estimator on one fold.
type Record struct {
	// Lay is the layer id the estimator belongs to.
	Lay int
	// Slo is the registration index of the estimator within its layer.
	Slo int
	Est string
	Fol int
	Sco float64
}

// Timing is the fit and predict duration of one estimator instance. Fol is
// Full for the instance trained on all samples, which is never used for
// predicting during fit.
type Timing struct {
	Lay int
	Slo int
	Est string
	Fol int
	Fit time.Duration
	Pre time.Duration
}

// Warning is a non fatal failure recorded during fit, e.g. a scoring function
// failing for one fold. The affected score is absent from the log.
type Warning struct {
	Lay int
	Slo int
	Est string
	Fol int
	Err error
}

// Full is the fold id of timings measured on the full data model.
const Full = -1

// Log is the append-only store of everything a fit measures. Layers collect
// their entries in task local buffers and merge them via Append once all of
// their tasks completed.
type Log struct {
	mut sync.Mutex
	rec []Record
	tim []Timing
	war []Warning
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(rec []Record, tim []Timing, war []Warning) {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.rec = append(l.rec, rec...)
	l.tim = append(l.tim, tim...)
	l.war = append(l.war, war...)
}

func (l *Log) Records() []Record {
	l.mut.Lock()
	defer l.mut.Unlock()

	return append([]Record(nil), l.rec...)
}

func (l *Log) Timings() []Timing {
	l.mut.Lock()
	defer l.mut.Unlock()

	return append([]Timing(nil), l.tim...)
}

func (l *Log) Warnings() []Warning {
	l.mut.Lock()
	defer l.mut.Unlock()

	return append([]Warning(nil), l.war...)
}
