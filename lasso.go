package quantfit

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/linmodel"
	"github.com/hupe1980/quantfit/quantization"
)

// LassoOptions contains options for the Lasso model.
type LassoOptions struct {
	// NBits is the bit width used to quantize inputs, weights and outputs.
	NBits int

	// Alpha is the L1 regularization strength. Must be non-negative.
	Alpha float64

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

// DefaultLassoOptions holds the defaults for Lasso.
var DefaultLassoOptions = LassoOptions{
	NBits:        2,
	Alpha:        1.0,
	FitIntercept: true,
}

// Lasso is an L1-penalized linear regression compiled to a quantized
// integer module, fitted by coordinate descent.
type Lasso struct {
	est estimator
}

// NewLasso creates a new Lasso model.
func NewLasso(optFns ...func(o *LassoOptions)) *Lasso {
	opts := DefaultLassoOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	hp := linmodel.DefaultHyperparams
	hp.Alpha = opts.Alpha
	hp.FitIntercept = opts.FitIntercept
	hp.Positive = opts.Positive

	return &Lasso{
		est: estimator{
			algorithm: linmodel.AlgorithmLasso,
			hp:        hp,
			nBits:     opts.NBits,
			logger:    ensureLogger(opts.Logger),
			metrics:   ensureMetrics(opts.MetricsCollector),
		},
	}
}

// Fit trains the float model and compiles the quantized module, calibrated
// on the training features.
func (l *Lasso) Fit(x, y any) error {
	return l.est.fit(x, y)
}

// Predict returns predictions (samples x targets) computed by the quantized
// module. Returns ErrNotFitted before a successful Fit.
func (l *Lasso) Predict(ctx context.Context, x any, optFns ...func(o *PredictOptions)) (*mat.Dense, error) {
	return l.est.predict(ctx, x, optFns...)
}

// Score returns the coefficient of determination of the predictions on x
// against y.
func (l *Lasso) Score(ctx context.Context, x, y any, optFns ...func(o *PredictOptions)) (float64, error) {
	return l.est.scoreR2(ctx, x, y, optFns...)
}

// IsFitted reports whether a Fit call has completed successfully.
func (l *Lasso) IsFitted() bool {
	return l.est.fitted()
}

// Artifact returns the fitted quantized module, or ErrNotFitted.
func (l *Lasso) Artifact() (*quantization.Module, error) {
	return l.est.requireModule()
}
