package quantfit

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/linmodel"
	"github.com/hupe1980/quantfit/quantization"
)

// ElasticNetOptions contains options for the ElasticNet model.
type ElasticNetOptions struct {
	// NBits is the bit width used to quantize inputs, weights and outputs.
	NBits int

	// Alpha is the overall regularization strength. Must be non-negative.
	Alpha float64

	// L1Ratio mixes the penalty: 1 is pure lasso, 0 pure ridge. Must be in
	// [0, 1].
	L1Ratio float64

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

// DefaultElasticNetOptions holds the defaults for ElasticNet.
var DefaultElasticNetOptions = ElasticNetOptions{
	NBits:        2,
	Alpha:        1.0,
	L1Ratio:      0.5,
	FitIntercept: true,
}

// ElasticNet is a linear regression with mixed L1/L2 penalties compiled to a
// quantized integer module, fitted by coordinate descent.
type ElasticNet struct {
	est estimator
}

// NewElasticNet creates a new ElasticNet model.
func NewElasticNet(optFns ...func(o *ElasticNetOptions)) *ElasticNet {
	opts := DefaultElasticNetOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	hp := linmodel.DefaultHyperparams
	hp.Alpha = opts.Alpha
	hp.L1Ratio = opts.L1Ratio
	hp.FitIntercept = opts.FitIntercept
	hp.Positive = opts.Positive

	return &ElasticNet{
		est: estimator{
			algorithm: linmodel.AlgorithmElasticNet,
			hp:        hp,
			nBits:     opts.NBits,
			logger:    ensureLogger(opts.Logger),
			metrics:   ensureMetrics(opts.MetricsCollector),
		},
	}
}

// Fit trains the float model and compiles the quantized module, calibrated
// on the training features.
func (e *ElasticNet) Fit(x, y any) error {
	return e.est.fit(x, y)
}

// Predict returns predictions (samples x targets) computed by the quantized
// module. Returns ErrNotFitted before a successful Fit.
func (e *ElasticNet) Predict(ctx context.Context, x any, optFns ...func(o *PredictOptions)) (*mat.Dense, error) {
	return e.est.predict(ctx, x, optFns...)
}

// Score returns the coefficient of determination of the predictions on x
// against y.
func (e *ElasticNet) Score(ctx context.Context, x, y any, optFns ...func(o *PredictOptions)) (float64, error) {
	return e.est.scoreR2(ctx, x, y, optFns...)
}

// IsFitted reports whether a Fit call has completed successfully.
func (e *ElasticNet) IsFitted() bool {
	return e.est.fitted()
}

// Artifact returns the fitted quantized module, or ErrNotFitted.
func (e *ElasticNet) Artifact() (*quantization.Module, error) {
	return e.est.requireModule()
}
