package model

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/xh3b4sd/tracer"
)

// Meta is the layer index used for the terminal meta slot of an ensemble.
const Meta = -1

type Config struct {
	// Est is the required estimator to wrap. Est can be a Factory, a plain
	// func() Estimator, an Estimator implementing Cloner, or any of these
	// wrapped via Named.
	Est interface{}
	// Lay is the index of the layer the estimator belongs to. Lay is only used
	// for error provenance. The meta slot uses Meta.
	Lay int
	// Nam is the estimator name. Nam defaults to the lower cased type name of
	// the wrapped estimator, e.g. "knn" for *learner.KNN.
	Nam string
	// Pro requires the wrapped estimator to implement Prober. Transform then
	// emits class probabilities instead of point predictions.
	Pro bool
}

// Model adapts an arbitrary estimator to the uniform capability set used by
// layers. A Model wraps exactly one estimator instance. Clone creates a new
// Model around a fresh untrained instance.
type Model struct {
	est Estimator
	fac Factory
	lay int
	nam string
	pro bool
}

func New(c Config) (*Model, error) {
	var err error

	var nam string
	var est interface{}
	{
		nam, est = unwrap(c.Est)
		if c.Nam != "" {
			nam = c.Nam
		}
	}

	if est == nil {
		return nil, tracer.Maskf(invalidConfigError, "%T.Est must not be empty", c)
	}

	var fac Factory
	{
		fac, err = factory(est)
		if err != nil {
			return nil, tracer.Maskf(estimatorError, "%s: %s", provenance(c.Lay, nam, est), err)
		}
	}

	var ins Estimator
	{
		ins = fac()
		if isNil(ins) {
			return nil, tracer.Maskf(estimatorError, "%s: factory returned nil", provenance(c.Lay, nam, est))
		}
	}

	if nam == "" {
		nam = typeName(ins)
	}

	if c.Pro {
		if _, ok := ins.(Prober); !ok {
			return nil, tracer.Maskf(estimatorError, "%s: %T must implement PredictProba and Classes", provenance(c.Lay, nam, ins), ins)
		}
	}

	m := &Model{
		est: ins,
		fac: fac,
		lay: c.Lay,
		nam: nam,
		pro: c.Pro,
	}

	return m, nil
}

// Clone returns a new Model carrying the same configuration around a fresh
// untrained estimator instance.
func (m *Model) Clone() (*Model, error) {
	var ins Estimator
	{
		ins = m.fac()
		if isNil(ins) {
			return nil, tracer.Maskf(estimatorError, "%s: clone returned nil", m.provenance())
		}
	}

	if m.pro {
		if _, ok := ins.(Prober); !ok {
			return nil, tracer.Maskf(estimatorError, "%s: clone %T must implement PredictProba and Classes", m.provenance(), ins)
		}
	}

	c := &Model{
		est: ins,
		fac: m.fac,
		lay: m.lay,
		nam: m.nam,
		pro: m.pro,
	}

	return c, nil
}

func (m *Model) Estimator() Estimator {
	return m.est
}

func (m *Model) Fit(fea [][]float64, lab []float64) error {
	if len(fea) != len(lab) {
		return tracer.Maskf(estimatorError, "%s: got %d feature rows but %d labels", m.provenance(), len(fea), len(lab))
	}

	err := m.guard("fit", func() error {
		return m.est.Fit(fea, lab)
	})
	if err != nil {
		return tracer.Mask(err)
	}

	return nil
}

func (m *Model) Layer() int {
	return m.lay
}

func (m *Model) Name() string {
	return m.nam
}

func (m *Model) Predict(fea [][]float64) ([]float64, error) {
	var pre []float64

	err := m.guard("predict", func() error {
		var err error

		pre, err = m.est.Predict(fea)
		if err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, tracer.Mask(err)
	}

	if len(pre) != len(fea) {
		return nil, tracer.Maskf(estimatorError, "%s: predicted %d rows for %d inputs", m.provenance(), len(pre), len(fea))
	}

	return pre, nil
}

func (m *Model) Proba() bool {
	return m.pro
}

// Transform returns the output columns of the wrapped estimator, one row per
// input row. Point predictions yield a single column. Probabilities yield one
// column per class in cla, which must be sorted the way the caller expects
// its columns. Classes the estimator never saw get zero probability.
func (m *Model) Transform(fea [][]float64, cla []float64) ([][]float64, error) {
	if !m.pro {
		pre, err := m.Predict(fea)
		if err != nil {
			return nil, tracer.Mask(err)
		}

		out := make([][]float64, len(pre))
		for i, p := range pre {
			out[i] = []float64{p}
		}

		return out, nil
	}

	var see []float64
	var pro [][]float64
	{
		err := m.guard("predict_proba", func() error {
			var err error

			p := m.est.(Prober)
			see = p.Classes()
			pro, err = p.PredictProba(fea)
			if err != nil {
				return err
			}

			return nil
		})
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	if len(pro) != len(fea) {
		return nil, tracer.Maskf(estimatorError, "%s: predicted %d probability rows for %d inputs", m.provenance(), len(pro), len(fea))
	}

	var col []int
	{
		ind := map[float64]int{}
		for i, c := range cla {
			ind[c] = i
		}

		for _, c := range see {
			i, ok := ind[c]
			if !ok {
				return nil, tracer.Maskf(estimatorError, "%s: unknown class %v", m.provenance(), c)
			}

			col = append(col, i)
		}
	}

	out := make([][]float64, len(pro))
	for i, r := range pro {
		if len(r) != len(col) {
			return nil, tracer.Maskf(estimatorError, "%s: got %d probabilities for %d classes", m.provenance(), len(r), len(col))
		}

		out[i] = make([]float64, len(cla))
		for j, p := range r {
			out[i][col[j]] = p
		}
	}

	return out, nil
}

// Width returns the number of output columns Transform produces given the
// class set cla.
func (m *Model) Width(cla []float64) int {
	if m.pro {
		return len(cla)
	}

	return 1
}

// guard runs fun and converts returned errors as well as panics into
// estimatorError carrying the estimator's provenance.
func (m *Model) guard(act string, fun func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = tracer.Maskf(estimatorError, "%s %s: panic: %v", m.provenance(), act, r)
		}
	}()

	err = fun()
	if err != nil {
		return tracer.Maskf(estimatorError, "%s %s: %s", m.provenance(), act, err)
	}

	return nil
}

func (m *Model) provenance() string {
	return provenance(m.lay, m.nam, m.est)
}

func factory(est interface{}) (Factory, error) {
	switch x := est.(type) {
	case Factory:
		return x, nil
	case func() Estimator:
		return Factory(x), nil
	case Cloner:
		if _, ok := est.(Estimator); !ok {
			return nil, fmt.Errorf("%T must implement Fit and Predict", est)
		}
		return x.Clone, nil
	case Estimator:
		return nil, fmt.Errorf("%T must implement Clone or be given as Factory", est)
	}

	return nil, fmt.Errorf("%T must implement Fit and Predict", est)
}

func isNil(est Estimator) bool {
	if est == nil {
		return true
	}

	v := reflect.ValueOf(est)

	return v.Kind() == reflect.Ptr && v.IsNil()
}

func provenance(lay int, nam string, est interface{}) string {
	if nam == "" {
		nam = fmt.Sprintf("%T", est)
	}

	if lay == Meta {
		return fmt.Sprintf("meta estimator %q", nam)
	}

	return fmt.Sprintf("layer %d estimator %q", lay, nam)
}

func typeName(est Estimator) string {
	t := reflect.TypeOf(est)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return strings.ToLower(t.Name())
}
