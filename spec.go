package superlearner

import "github.com/xh3b4sd/superlearner/diagnostics"

// Ensemble describes how a stacked generalization ensemble is built, fitted
// and used for predictions. Building an ensemble takes three steps: create
// the instance, add the intermediate layers and attach the meta estimator.
//
//     ens, err := ensemble.New(ensemble.Config{Sco: scorer.F1Micro, See: 2017})
//
//     _, err = ens.Add([]interface{}{&learner.KNN{K: 5}, &learner.Logistic{}})
//     err = ens.AddMeta(&learner.Logistic{})
//
//     err = ens.Fit(fea[:75], lab[:75])
//     pre, err := ens.Predict(fea[75:])
//
type Ensemble interface {
	// Add appends a layer of estimators and returns the id of the new layer.
	// Estimators must implement Fit and Predict, and either Clone or be given
	// as factory function, since every fold trains its own instance.
	Add([]interface{}) (int, error)
	// AddMeta sets the meta estimator, which is trained on the output of the
	// last layer and produces the ensemble's predictions.
	AddMeta(interface{}) error
	// Data returns the cross validation scores of every estimator of every
	// layer, aggregated over folds. Data is only available after a successful
	// fit.
	Data() (*diagnostics.Table, error)
	// Fit trains the ensemble. Every layer is trained on the out of fold
	// predictions of its predecessor, so that no estimator downstream ever
	// sees predictions made on samples the upstream estimator was trained on.
	Fit([][]float64, []float64) error
	// Predict returns one prediction per input row, computed by the meta
	// estimator on the output of the full data models of every layer.
	Predict([][]float64) ([]float64, error)
}
