package quantfit

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/linmodel"
	"github.com/hupe1980/quantfit/quantization"
)

// RidgeOptions contains options for the Ridge model.
type RidgeOptions struct {
	// NBits is the bit width used to quantize inputs, weights and outputs.
	NBits int

	// Alpha is the L2 regularization strength. Must be non-negative.
	Alpha float64

	// FitIntercept enables intercept estimation.
	FitIntercept bool

	// Logger for structured logging. Nil disables logging.
	Logger *Logger

	// MetricsCollector receives fit and predict timings. Nil disables
	// collection.
	MetricsCollector MetricsCollector
}

// DefaultRidgeOptions holds the defaults for Ridge.
var DefaultRidgeOptions = RidgeOptions{
	NBits:        2,
	Alpha:        1.0,
	FitIntercept: true,
}

// Ridge is an L2-penalized linear regression compiled to a quantized
// integer module, fitted via the penalized normal equations.
type Ridge struct {
	est estimator
}

// NewRidge creates a new Ridge model.
func NewRidge(optFns ...func(o *RidgeOptions)) *Ridge {
	opts := DefaultRidgeOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	hp := linmodel.DefaultHyperparams
	hp.Alpha = opts.Alpha
	hp.FitIntercept = opts.FitIntercept

	return &Ridge{
		est: estimator{
			algorithm: linmodel.AlgorithmRidge,
			hp:        hp,
			nBits:     opts.NBits,
			logger:    ensureLogger(opts.Logger),
			metrics:   ensureMetrics(opts.MetricsCollector),
		},
	}
}

// Fit trains the float model and compiles the quantized module, calibrated
// on the training features.
func (r *Ridge) Fit(x, y any) error {
	return r.est.fit(x, y)
}

// Predict returns predictions (samples x targets) computed by the quantized
// module. Returns ErrNotFitted before a successful Fit.
func (r *Ridge) Predict(ctx context.Context, x any, optFns ...func(o *PredictOptions)) (*mat.Dense, error) {
	return r.est.predict(ctx, x, optFns...)
}

// Score returns the coefficient of determination of the predictions on x
// against y.
func (r *Ridge) Score(ctx context.Context, x, y any, optFns ...func(o *PredictOptions)) (float64, error) {
	return r.est.scoreR2(ctx, x, y, optFns...)
}

// IsFitted reports whether a Fit call has completed successfully.
func (r *Ridge) IsFitted() bool {
	return r.est.fitted()
}

// Artifact returns the fitted quantized module, or ErrNotFitted.
func (r *Ridge) Artifact() (*quantization.Module, error) {
	return r.est.requireModule()
}
