package ensemble

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xh3b4sd/superlearner/learner"
	"github.com/xh3b4sd/superlearner/loader"
	"github.com/xh3b4sd/superlearner/model"
	"github.com/xh3b4sd/superlearner/scorer"
)

type broken struct{}

func (b *broken) Clone() model.Estimator                       { return &broken{} }
func (b *broken) Fit(fea [][]float64, lab []float64) error    { return errors.New("broken") }
func (b *broken) Predict(fea [][]float64) ([]float64, error) { return nil, nil }

// blocking waits in Fit until rel is closed and signals sta on its first
// call.
type blocking struct {
	onc *sync.Once
	rel chan struct{}
	sta chan struct{}
}

func (b *blocking) Clone() model.Estimator { return &blocking{onc: b.onc, rel: b.rel, sta: b.sta} }

func (b *blocking) Fit(fea [][]float64, lab []float64) error {
	b.onc.Do(func() { close(b.sta) })
	<-b.rel
	return nil
}

func (b *blocking) Predict(fea [][]float64) ([]float64, error) {
	return make([]float64, len(fea)), nil
}

// spy predicts 1 for every row whose id, stored in column 0, it was trained
// on, and 0 otherwise.
type spy struct {
	see map[float64]bool
}

func (s *spy) Clone() model.Estimator { return &spy{} }

func (s *spy) Fit(fea [][]float64, lab []float64) error {
	s.see = map[float64]bool{}
	for _, r := range fea {
		s.see[r[0]] = true
	}

	return nil
}

func (s *spy) Predict(fea [][]float64) ([]float64, error) {
	pre := make([]float64, len(fea))
	for i, r := range fea {
		if s.see[r[0]] {
			pre[i] = 1
		}
	}

	return pre, nil
}

// recording keeps the features its clones get fitted and predicted on.
type recording struct {
	fit [][]float64
	pre [][]float64
}

type recorder struct {
	rec *recording
}

func (r *recorder) Clone() model.Estimator { return &recorder{rec: r.rec} }

func (r *recorder) Fit(fea [][]float64, lab []float64) error {
	r.rec.fit = copyRows(fea)
	return nil
}

func (r *recorder) Predict(fea [][]float64) ([]float64, error) {
	r.rec.pre = copyRows(fea)
	return make([]float64, len(fea)), nil
}

func copyRows(fea [][]float64) [][]float64 {
	var out [][]float64
	for _, r := range fea {
		out = append(out, append([]float64(nil), r...))
	}

	return out
}

func testData(t *testing.T) (*loader.Dataset, *loader.Dataset) {
	t.Helper()

	b := &loader.Blobs{Cla: 3, Dim: 4, Num: 50, See: 2017}

	d, err := b.Generate()
	if err != nil {
		t.Fatal(err)
	}

	tra, tes, err := d.Shuffle(2017).Split(75)
	if err != nil {
		t.Fatal(err)
	}

	return tra, tes
}

func testEnsemble(t *testing.T, c Config) *Ensemble {
	t.Helper()

	e, err := New(c)
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Add([]interface{}{&learner.KNN{K: 5}, &learner.Logistic{}})
	if err != nil {
		t.Fatal(err)
	}

	err = e.AddMeta(&learner.Logistic{})
	if err != nil {
		t.Fatal(err)
	}

	return e
}

func Test_Ensemble_GettingStarted(t *testing.T) {
	tra, tes := testData(t)

	e := testEnsemble(t, Config{Fol: 2, Sco: scorer.F1Micro, See: 2017, Ver: 1})

	err := e.Fit(tra.Features(), tra.Labels())
	if err != nil {
		t.Fatal(err)
	}

	pre, err := e.Predict(tes.Features())
	if err != nil {
		t.Fatal(err)
	}

	if len(pre) != 75 {
		t.Fatalf("expected 75 predictions, got %d", len(pre))
	}
	for i, p := range pre {
		if p != 0 && p != 1 && p != 2 {
			t.Fatalf("prediction %d must be a label, got %f", i, p)
		}
	}

	acc, err := scorer.Accuracy(tes.Labels(), pre)
	if err != nil {
		t.Fatal(err)
	}
	if acc < 0.6 {
		t.Fatalf("expected accuracy of at least 0.6, got %f", acc)
	}

	tab, err := e.Data()
	if err != nil {
		t.Fatal(err)
	}

	if len(tab.Row) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tab.Row))
	}
	for i, nam := range []string{"knn", "logistic"} {
		if tab.Row[i].Lay != 1 || tab.Row[i].Est != nam {
			t.Fatalf("expected row %d to be layer 1 %s, got layer %d %s", i, nam, tab.Row[i].Lay, tab.Row[i].Est)
		}
		if len(tab.Row[i].Sco) != 2 {
			t.Fatalf("expected 2 scores for %s, got %d", nam, len(tab.Row[i].Sco))
		}
	}
	if !tab.Tim {
		t.Fatal("expected timings to be shown when verbose")
	}
}

func Test_Ensemble_Predict_Idempotent(t *testing.T) {
	tra, tes := testData(t)

	e := testEnsemble(t, Config{See: 7})

	err := e.Fit(tra.Features(), tra.Labels())
	if err != nil {
		t.Fatal(err)
	}

	fir, err := e.Predict(tes.Features())
	if err != nil {
		t.Fatal(err)
	}
	sec, err := e.Predict(tes.Features())
	if err != nil {
		t.Fatal(err)
	}

	if dif := cmp.Diff(fir, sec); dif != "" {
		t.Fatalf("-first +second:\n%s", dif)
	}
}

func Test_Ensemble_Fit_Reproducible(t *testing.T) {
	tra, tes := testData(t)

	var res [][]float64
	for _, job := range []int{1, 4} {
		e := testEnsemble(t, Config{Job: job, See: 2017})

		err := e.Fit(tra.Features(), tra.Labels())
		if err != nil {
			t.Fatal(err)
		}

		pre, err := e.Predict(tes.Features())
		if err != nil {
			t.Fatal(err)
		}

		res = append(res, pre)
	}

	if dif := cmp.Diff(res[0], res[1]); dif != "" {
		t.Fatalf("-sequential +concurrent:\n%s", dif)
	}
}

func Test_Ensemble_Fit_Reset(t *testing.T) {
	tra, _ := testData(t)

	size := func(tru []float64, pre []float64) (float64, error) {
		return float64(len(tru)), nil
	}

	e := testEnsemble(t, Config{Sco: size, See: 1})

	{
		err := e.Fit(tra.Features(), tra.Labels())
		if err != nil {
			t.Fatal(err)
		}
	}

	var ful model.Estimator
	{
		ful = e.lay[0].Slots()[0].Ful.Estimator()
	}

	{
		fea := tra.Features()[:20]
		lab := tra.Labels()[:20]

		err := e.Fit(fea, lab)
		if err != nil {
			t.Fatal(err)
		}
	}

	if e.lay[0].Slots()[0].Ful.Estimator() == ful {
		t.Fatal("expected re-fit to replace the full data model")
	}

	tab, err := e.Data()
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range tab.Row {
		if dif := cmp.Diff([]float64{10, 10}, r.Sco); dif != "" {
			t.Fatalf("expected only scores of the second fit, -expected +actual:\n%s", dif)
		}
	}
}

func Test_Ensemble_Fit_Failure(t *testing.T) {
	tra, tes := testData(t)

	e, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Add([]interface{}{&learner.KNN{}, &broken{}})
	if err != nil {
		t.Fatal(err)
	}

	err = e.AddMeta(&learner.Logistic{})
	if err != nil {
		t.Fatal(err)
	}

	err = e.Fit(tra.Features(), tra.Labels())
	if !IsLayerFit(err) {
		t.Fatalf("expected layerFitError, got %#v", err)
	}

	if e.State() != StateUnfit {
		t.Fatalf("expected state unfit, got %s", e.State())
	}

	_, err = e.Predict(tes.Features())
	if !IsNotFitted(err) {
		t.Fatalf("expected notFittedError, got %#v", err)
	}

	_, err = e.Data()
	if !IsNotFitted(err) {
		t.Fatalf("expected notFittedError, got %#v", err)
	}
}

func Test_Ensemble_Fit_Scoring(t *testing.T) {
	tra, tes := testData(t)

	var mut sync.Mutex
	var cnt int
	flaky := func(tru []float64, pre []float64) (float64, error) {
		mut.Lock()
		defer mut.Unlock()

		cnt++
		if cnt == 1 {
			return 0, errors.New("flaky")
		}

		return scorer.Accuracy(tru, pre)
	}

	e := testEnsemble(t, Config{Fol: 3, Job: 1, Sco: flaky, See: 2017})

	err := e.Fit(tra.Features(), tra.Labels())
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Predict(tes.Features())
	if err != nil {
		t.Fatal(err)
	}

	tab, err := e.Data()
	if err != nil {
		t.Fatal(err)
	}

	var sco int
	for _, r := range tab.Row {
		sco += len(r.Sco)
	}
	if sco != 5 {
		t.Fatalf("expected 5 scores, got %d", sco)
	}

	if len(tab.War) != 1 || !scorer.IsScoring(tab.War[0].Err) {
		t.Fatalf("expected one scoring warning, got %#v", tab.War)
	}
}

func Test_Ensemble_Config_Invalid(t *testing.T) {
	tra, _ := testData(t)

	testCases := []struct {
		con Config
		est [][]interface{}
		met interface{}
	}{
		// Case 0 has no layer.
		{
			met: &learner.Logistic{},
		},
		// Case 1 has no meta estimator.
		{
			est: [][]interface{}{{&learner.KNN{}}},
		},
		// Case 2 has more folds than samples.
		{
			con: Config{Fol: 76},
			est: [][]interface{}{{&learner.KNN{}}},
			met: &learner.Logistic{},
		},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			e, err := New(tc.con)
			if err != nil {
				t.Fatal(err)
			}

			for _, est := range tc.est {
				_, err = e.Add(est)
				if err != nil {
					t.Fatal(err)
				}
			}

			if tc.met != nil {
				err = e.AddMeta(tc.met)
				if err != nil {
					t.Fatal(err)
				}
			}

			err = e.Fit(tra.Features(), tra.Labels())
			if !IsInvalidConfig(err) {
				t.Fatalf("expected invalidConfigError, got %#v", err)
			}
			if e.State() != StateUnfit {
				t.Fatalf("expected state unfit, got %s", e.State())
			}
		})
	}
}

func Test_Ensemble_New_Invalid(t *testing.T) {
	testCases := []Config{
		{Fol: 1},
		{Job: -1},
		{Ver: 3},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			_, err := New(tc)
			if !IsInvalidConfig(err) {
				t.Fatalf("expected invalidConfigError, got %#v", err)
			}
		})
	}
}

func Test_Ensemble_Add_Empty(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Add(nil)
	if !IsInvalidConfig(err) {
		t.Fatalf("expected invalidConfigError, got %#v", err)
	}

	_, err = e.Add([]interface{}{})
	if !IsInvalidConfig(err) {
		t.Fatalf("expected invalidConfigError, got %#v", err)
	}
}

func Test_Ensemble_Predict_NotFitted(t *testing.T) {
	e := testEnsemble(t, Config{})

	_, err := e.Predict([][]float64{{1, 2, 3, 4}})
	if !IsNotFitted(err) {
		t.Fatalf("expected notFittedError, got %#v", err)
	}

	if e.lay[0].Fitted() {
		t.Fatal("expected predict not to touch any layer")
	}
}

func Test_Ensemble_State(t *testing.T) {
	tra, _ := testData(t)

	e := testEnsemble(t, Config{})

	if e.State() != StateUnfit {
		t.Fatalf("expected state unfit, got %s", e.State())
	}

	{
		err := e.AddMeta(&learner.Centroid{})
		if !IsInvalidConfig(err) {
			t.Fatalf("expected invalidConfigError, got %#v", err)
		}
	}

	{
		err := e.Fit(tra.Features(), tra.Labels())
		if err != nil {
			t.Fatal(err)
		}
		if e.State() != StateFit {
			t.Fatalf("expected state fit, got %s", e.State())
		}
	}

	{
		err := e.AddMeta(&learner.Centroid{})
		if err != nil {
			t.Fatal(err)
		}
		if e.State() != StateUnfit {
			t.Fatalf("expected state unfit, got %s", e.State())
		}
	}

	{
		err := e.Fit(tra.Features(), tra.Labels())
		if err != nil {
			t.Fatal(err)
		}
	}

	{
		id, err := e.Add([]interface{}{&learner.Centroid{}})
		if err != nil {
			t.Fatal(err)
		}
		if id != 2 {
			t.Fatalf("expected layer id 2, got %d", id)
		}
		if e.State() != StateUnfit {
			t.Fatalf("expected state unfit, got %s", e.State())
		}
	}
}

func Test_Ensemble_Fitting_InvalidState(t *testing.T) {
	tra, _ := testData(t)

	b := &blocking{onc: &sync.Once{}, rel: make(chan struct{}), sta: make(chan struct{})}

	e, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Add([]interface{}{b})
	if err != nil {
		t.Fatal(err)
	}

	err = e.AddMeta(&learner.Logistic{})
	if err != nil {
		t.Fatal(err)
	}

	don := make(chan error)
	go func() {
		don <- e.Fit(tra.Features(), tra.Labels())
	}()

	<-b.sta

	if e.State() != StateFitting {
		t.Fatalf("expected state fitting, got %s", e.State())
	}

	_, err = e.Add([]interface{}{&learner.KNN{}})
	if !IsInvalidState(err) {
		t.Fatalf("expected invalidStateError, got %#v", err)
	}

	err = e.AddMeta(&learner.KNN{})
	if !IsInvalidState(err) {
		t.Fatalf("expected invalidStateError, got %#v", err)
	}

	err = e.Fit(tra.Features(), tra.Labels())
	if !IsInvalidState(err) {
		t.Fatalf("expected invalidStateError, got %#v", err)
	}

	_, err = e.Predict(tra.Features())
	if !IsNotFitted(err) {
		t.Fatalf("expected notFittedError, got %#v", err)
	}

	close(b.rel)

	err = <-don
	if err != nil {
		t.Fatal(err)
	}

	if e.State() != StateFit {
		t.Fatalf("expected state fit, got %s", e.State())
	}
}

func Test_Ensemble_Layers_Shape(t *testing.T) {
	tra, tes := testData(t)

	e, err := New(Config{Fol: 3, See: 3})
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.AddLayer(Layer{Est: []interface{}{&learner.KNN{}, &learner.Centroid{}}, Pro: true})
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.AddLayer(Layer{Est: []interface{}{&learner.Logistic{}, &learner.KNN{K: 3}, &learner.Centroid{}}, Prp: []int{0, 5}})
	if err != nil {
		t.Fatal(err)
	}

	err = e.AddMeta(&learner.Logistic{})
	if err != nil {
		t.Fatal(err)
	}

	err = e.Fit(tra.Features(), tra.Labels())
	if err != nil {
		t.Fatal(err)
	}

	exp := []Shape{
		{ID: 1, Est: []string{"knn", "centroid"}, Inp: 4, Out: 6},
		{ID: 2, Est: []string{"logistic", "knn", "centroid"}, Inp: 6, Out: 5},
	}

	if dif := cmp.Diff(exp, e.Layers()); dif != "" {
		t.Fatalf("-expected +actual:\n%s", dif)
	}

	pre, err := e.Predict(tes.Features())
	if err != nil {
		t.Fatal(err)
	}
	if len(pre) != tes.Len() {
		t.Fatalf("expected %d predictions, got %d", tes.Len(), len(pre))
	}
}

func Test_Ensemble_Meta_OutOfFold(t *testing.T) {
	var fea [][]float64
	var lab []float64
	for i := 0; i < 12; i++ {
		fea = append(fea, []float64{float64(i), float64(i % 3)})
		lab = append(lab, float64(i%2))
	}

	e, err := New(Config{Fol: 3, See: 7})
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Add([]interface{}{&spy{}})
	if err != nil {
		t.Fatal(err)
	}

	rec := &recording{}

	err = e.AddMeta(&recorder{rec: rec})
	if err != nil {
		t.Fatal(err)
	}

	err = e.Fit(fea, lab)
	if err != nil {
		t.Fatal(err)
	}

	{
		var exp [][]float64
		for range fea {
			exp = append(exp, []float64{0})
		}

		if dif := cmp.Diff(exp, rec.fit); dif != "" {
			t.Fatalf("expected meta fit on out of fold predictions, -expected +actual:\n%s", dif)
		}
	}

	_, err = e.Predict(fea)
	if err != nil {
		t.Fatal(err)
	}

	{
		var exp [][]float64
		for range fea {
			exp = append(exp, []float64{1})
		}

		if dif := cmp.Diff(exp, rec.pre); dif != "" {
			t.Fatalf("expected meta predict on full data predictions, -expected +actual:\n%s", dif)
		}
	}
}

func Test_Ensemble_AddMeta_AfterFailedFit(t *testing.T) {
	tra, tes := testData(t)

	e, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Add([]interface{}{&learner.KNN{}, &learner.Logistic{}})
	if err != nil {
		t.Fatal(err)
	}

	err = e.AddMeta(&broken{})
	if err != nil {
		t.Fatal(err)
	}

	err = e.Fit(tra.Features(), tra.Labels())
	if !IsEstimator(err) {
		t.Fatalf("expected estimatorError, got %#v", err)
	}

	if e.State() != StateUnfit {
		t.Fatalf("expected state unfit, got %s", e.State())
	}

	err = e.AddMeta(&learner.Logistic{})
	if err != nil {
		t.Fatal(err)
	}

	err = e.Fit(tra.Features(), tra.Labels())
	if err != nil {
		t.Fatal(err)
	}

	pre, err := e.Predict(tes.Features())
	if err != nil {
		t.Fatal(err)
	}

	if len(pre) != tes.Len() {
		t.Fatalf("expected %d predictions, got %d", tes.Len(), len(pre))
	}
}

func Test_Ensemble_Predict_Empty(t *testing.T) {
	tra, _ := testData(t)

	e := testEnsemble(t, Config{})

	err := e.Fit(tra.Features(), tra.Labels())
	if err != nil {
		t.Fatal(err)
	}

	testCases := [][][]float64{
		nil,
		{},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			pre, err := e.Predict(tc)
			if err != nil {
				t.Fatal(err)
			}

			if pre == nil || len(pre) != 0 {
				t.Fatalf("expected empty predictions, got %#v", pre)
			}
		})
	}
}
