package quantfit

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/linmodel"
	"github.com/hupe1980/quantfit/quantization"
)

// LinearRegressionOptions contains options for the LinearRegression model.
type LinearRegressionOptions struct {
	// NBits is the bit width used to quantize inputs, weights and outputs.
	NBits int

	// UseSumWorkaround replaces the dot product with an overflow-safe
	// pairwise reduction tree, so that summing many quantized values cannot
	// saturate the accumulator. Fit then requires a power-of-two feature
	// count and a single target column and fails with a PreconditionError
	// otherwise.
	UseSumWorkaround bool

	// FitIntercept enables intercept estimation.
	FitIntercept bool

	// Positive constrains the weights to be non-negative.
	Positive bool

	// Logger for structured logging. Nil disables logging.
	Logger *Logger

	// MetricsCollector receives fit and predict timings. Nil disables
	// collection.
	MetricsCollector MetricsCollector
}

// DefaultLinearRegressionOptions holds the defaults for LinearRegression.
var DefaultLinearRegressionOptions = LinearRegressionOptions{
	NBits:        2,
	FitIntercept: true,
}

// LinearRegression is an ordinary least squares regression whose fitted
// parameters are compiled into an integer-only computation module. The float
// model is trained exactly as usual; quantization applies afterwards, to the
// exported graph. Multi-column targets are supported on the standard path;
// the sum workaround is restricted to single-target models with a
// power-of-two feature count.
type LinearRegression struct {
	est estimator
}

// NewLinearRegression creates a new LinearRegression model.
func NewLinearRegression(optFns ...func(o *LinearRegressionOptions)) *LinearRegression {
	opts := DefaultLinearRegressionOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	hp := linmodel.DefaultHyperparams
	hp.FitIntercept = opts.FitIntercept
	hp.Positive = opts.Positive

	return &LinearRegression{
		est: estimator{
			algorithm:  linmodel.AlgorithmOLS,
			hp:         hp,
			nBits:      opts.NBits,
			workaround: opts.UseSumWorkaround,
			logger:     ensureLogger(opts.Logger),
			metrics:    ensureMetrics(opts.MetricsCollector),
		},
	}
}

// Fit trains the float model on features x (samples x features) and targets
// y, exports its computation graph, and calibrates the quantized module on
// the training features. x and y accept *mat.Dense, [][]float64, [][]float32
// or [][]int; y additionally accepts a flat slice for a single target.
func (lr *LinearRegression) Fit(x, y any) error {
	return lr.est.fit(x, y)
}

// Predict returns predictions (samples x targets) computed by the quantized
// module. Returns ErrNotFitted before a successful Fit.
func (lr *LinearRegression) Predict(ctx context.Context, x any, optFns ...func(o *PredictOptions)) (*mat.Dense, error) {
	return lr.est.predict(ctx, x, optFns...)
}

// Score returns the coefficient of determination of the predictions on x
// against y, averaged uniformly over target columns.
func (lr *LinearRegression) Score(ctx context.Context, x, y any, optFns ...func(o *PredictOptions)) (float64, error) {
	return lr.est.scoreR2(ctx, x, y, optFns...)
}

// IsFitted reports whether a Fit call has completed successfully.
func (lr *LinearRegression) IsFitted() bool {
	return lr.est.fitted()
}

// Artifact returns the fitted quantized module, or ErrNotFitted.
func (lr *LinearRegression) Artifact() (*quantization.Module, error) {
	return lr.est.requireModule()
}
