package quantfit

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/linmodel"
	"github.com/hupe1980/quantfit/quantization"
	"github.com/hupe1980/quantfit/tabular"
)

// LogisticRegressionOptions contains options for the LogisticRegression
// model.
type LogisticRegressionOptions struct {
	// NBits is the bit width used to quantize inputs, weights and outputs.
	NBits int

	// C is the inverse L2 regularization strength. Must be positive.
	C float64

	// Tol is the convergence tolerance of the solver.
	Tol float64

	// MaxIter bounds the solver iterations.
	MaxIter int

	// FitIntercept enables intercept estimation.
	FitIntercept bool

	// Logger for structured logging. Nil disables logging.
	Logger *Logger

	// MetricsCollector receives fit and predict timings. Nil disables
	// collection.
	MetricsCollector MetricsCollector
}

// DefaultLogisticRegressionOptions holds the defaults for
// LogisticRegression.
var DefaultLogisticRegressionOptions = LogisticRegressionOptions{
	NBits:        2,
	C:            1.0,
	Tol:          1e-4,
	MaxIter:      100,
	FitIntercept: true,
}

// LogisticRegression is a binary or multinomial classifier compiled to a
// quantized integer module. The module computes raw decision scores;
// probabilities and labels are derived on the dequantized side by
// PostProcess, so the same artifact serves decision scores, probabilities
// and hard labels.
type LogisticRegression struct {
	est estimator
}

// NewLogisticRegression creates a new LogisticRegression model.
func NewLogisticRegression(optFns ...func(o *LogisticRegressionOptions)) *LogisticRegression {
	opts := DefaultLogisticRegressionOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	hp := linmodel.DefaultHyperparams
	hp.C = opts.C
	hp.Tol = opts.Tol
	hp.MaxIter = opts.MaxIter
	hp.FitIntercept = opts.FitIntercept

	return &LogisticRegression{
		est: estimator{
			algorithm:  linmodel.AlgorithmLogistic,
			hp:         hp,
			nBits:      opts.NBits,
			classifier: true,
			logger:     ensureLogger(opts.Logger),
			metrics:    ensureMetrics(opts.MetricsCollector),
		},
	}
}

// Fit trains the classifier on features x (samples x features) and a single
// target column y of class labels, then compiles the quantized module.
// Labels may be arbitrary numeric values; they are mapped to class indices
// 0..K-1 in ascending label order. Two distinct labels train a binary
// model with a single score column, more train a multinomial model with one
// column per class.
func (lr *LogisticRegression) Fit(x, y any) error {
	return lr.est.fit(x, y)
}

// Classes returns the distinct class labels seen during Fit, ascending.
// Predict returns indices into this slice.
func (lr *LogisticRegression) Classes() []float64 {
	return append([]float64(nil), lr.est.classes...)
}

// DecisionFunction returns raw confidence scores (samples x score columns)
// computed by the quantized module: one column for a binary model, one per
// class for a multinomial one. Returns ErrNotFitted before a successful
// Fit.
func (lr *LogisticRegression) DecisionFunction(ctx context.Context, x any, optFns ...func(o *PredictOptions)) (*mat.Dense, error) {
	return lr.est.predict(ctx, x, optFns...)
}

// PredictProba returns class probabilities (samples x classes) by
// post-processing the decision scores.
func (lr *LogisticRegression) PredictProba(ctx context.Context, x any, optFns ...func(o *PredictOptions)) (*mat.Dense, error) {
	scores, err := lr.DecisionFunction(ctx, x, optFns...)
	if err != nil {
		return nil, err
	}

	return lr.PostProcess(scores, lr.est.module.SigmoidInGraph()), nil
}

// Predict returns the predicted class index for each sample, the argmax of
// the class probabilities. Ties resolve to the lowest class index. Classes
// maps indices back to the original labels.
func (lr *LogisticRegression) Predict(ctx context.Context, x any, optFns ...func(o *PredictOptions)) ([]int, error) {
	proba, err := lr.PredictProba(ctx, x, optFns...)
	if err != nil {
		return nil, err
	}

	return argmaxRows(proba), nil
}

// Score returns the mean accuracy of the predictions on x against the true
// labels y.
func (lr *LogisticRegression) Score(ctx context.Context, x, y any, optFns ...func(o *PredictOptions)) (float64, error) {
	pred, err := lr.Predict(ctx, x, optFns...)
	if err != nil {
		return 0, err
	}

	yd, err := tabular.CoerceTargets(y)
	if err != nil {
		return 0, err
	}

	rows, cols := yd.Dims()
	if cols != 1 {
		return 0, &ShapeMismatchError{Dim: "target column count", Expected: 1, Actual: cols}
	}
	if rows != len(pred) {
		return 0, &ShapeMismatchError{Dim: "sample count", Expected: len(pred), Actual: rows}
	}

	correct := 0
	for i, p := range pred {
		if lr.est.classes[p] == yd.At(i, 0) {
			correct++
		}
	}

	return float64(correct) / float64(rows), nil
}

// IsFitted reports whether a Fit call has completed successfully.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.est.fitted()
}

// Artifact returns the fitted quantized module, or ErrNotFitted.
func (lr *LogisticRegression) Artifact() (*quantization.Module, error) {
	return lr.est.requireModule()
}
