package model

// Estimator is the capability every trainable predictor must provide in order
// to be stacked. Fit trains in place. Predict returns one value per input row.
type Estimator interface {
	Fit(fea [][]float64, lab []float64) error
	Predict(fea [][]float64) ([]float64, error)
}

// Prober is the optional capability of estimators emitting class
// probabilities. PredictProba returns one row per input row, with one column
// per class as reported by Classes, in the same order.
type Prober interface {
	Classes() []float64
	PredictProba(fea [][]float64) ([][]float64, error)
}

// Cloner is implemented by estimators able to create an untrained copy of
// themselves carrying the same hyper parameters. Every fold of every layer
// trains its own copy.
type Cloner interface {
	Clone() Estimator
}

// Factory creates untrained estimators. It can be used in place of an
// estimator implementing Cloner.
type Factory func() Estimator
