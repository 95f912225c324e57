// Package linmodel trains float linear models and hands their parameters to
// the quantization pipeline. Trainer selection is an explicit algorithm tag;
// hyperparameters carry only what the float solvers understand.
package linmodel

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Algorithm selects the float training procedure.
type Algorithm uint8

const (
	// AlgorithmOLS is ordinary least squares.
	AlgorithmOLS Algorithm = iota + 1
	// AlgorithmRidge is L2-penalized least squares.
	AlgorithmRidge
	// AlgorithmLasso is L1-penalized least squares.
	AlgorithmLasso
	// AlgorithmElasticNet mixes L1 and L2 penalties.
	AlgorithmElasticNet
	// AlgorithmLogistic is binary or multinomial logistic regression.
	AlgorithmLogistic
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmOLS:
		return "ols"
	case AlgorithmRidge:
		return "ridge"
	case AlgorithmLasso:
		return "lasso"
	case AlgorithmElasticNet:
		return "elastic_net"
	case AlgorithmLogistic:
		return "logistic"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// Hyperparams configures the float solvers. Quantization settings live with
// the calling pipeline, never here.
type Hyperparams struct {
	// Alpha is the regularization strength for ridge, lasso and elastic net.
	Alpha float64
	// L1Ratio mixes the elastic-net penalty: 1 is pure lasso, 0 pure ridge.
	L1Ratio float64
	// C is the inverse regularization strength for logistic regression.
	C float64
	// Tol is the convergence tolerance of the iterative solvers.
	Tol float64
	// MaxIter bounds the iterative solvers.
	MaxIter int
	// FitIntercept enables intercept estimation via column centering.
	FitIntercept bool
	// Positive constrains least-squares weights to be non-negative.
	Positive bool
}

// DefaultHyperparams mirrors the usual solver defaults.
var DefaultHyperparams = Hyperparams{
	Alpha:        1.0,
	L1Ratio:      0.5,
	C:            1.0,
	Tol:          1e-4,
	MaxIter:      1000,
	FitIntercept: true,
}

// Params holds extracted linear model parameters: Weights is targets x
// features, Intercept has one entry per target. Params are treated as
// immutable once returned by a Trainer.
type Params struct {
	Weights   *mat.Dense
	Intercept []float64
}

// Targets returns the number of output columns.
func (p *Params) Targets() int {
	t, _ := p.Weights.Dims()
	return t
}

// Features returns the number of input columns.
func (p *Params) Features() int {
	_, f := p.Weights.Dims()
	return f
}

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	return &Params{
		Weights:   mat.DenseCopyOf(p.Weights),
		Intercept: append([]float64(nil), p.Intercept...),
	}
}

// Trainer fits a float model on features x (samples x features) and targets y
// (samples x targets). Implementations never retain or mutate their inputs.
type Trainer interface {
	Fit(x, y *mat.Dense) (*Params, error)
}

// New returns the trainer for the given algorithm tag.
func New(alg Algorithm, hp Hyperparams) (Trainer, error) {
	switch alg {
	case AlgorithmOLS:
		return &olsTrainer{hp: hp}, nil
	case AlgorithmRidge:
		if hp.Alpha < 0 {
			return nil, fmt.Errorf("ridge alpha must be non-negative, got %g", hp.Alpha)
		}
		return &ridgeTrainer{hp: hp}, nil
	case AlgorithmLasso:
		hp.L1Ratio = 1
		fallthrough
	case AlgorithmElasticNet:
		if hp.Alpha < 0 {
			return nil, fmt.Errorf("alpha must be non-negative, got %g", hp.Alpha)
		}
		if hp.L1Ratio < 0 || hp.L1Ratio > 1 {
			return nil, fmt.Errorf("l1 ratio must be in [0, 1], got %g", hp.L1Ratio)
		}
		if hp.MaxIter <= 0 {
			return nil, fmt.Errorf("max iterations must be positive, got %d", hp.MaxIter)
		}
		return &coordinateTrainer{hp: hp}, nil
	case AlgorithmLogistic:
		if hp.C <= 0 {
			return nil, fmt.Errorf("logistic C must be positive, got %g", hp.C)
		}
		if hp.MaxIter <= 0 {
			return nil, fmt.Errorf("max iterations must be positive, got %d", hp.MaxIter)
		}
		return &logisticTrainer{hp: hp}, nil
	default:
		return nil, fmt.Errorf("unknown algorithm %d", uint8(alg))
	}
}

// center returns copies of x and y with column means removed, plus the means.
// Without intercept fitting it returns the inputs unchanged and zero means.
func center(x, y *mat.Dense, fitIntercept bool) (xc, yc *mat.Dense, xMean, yMean []float64) {
	n, f := x.Dims()
	_, t := y.Dims()
	xMean = make([]float64, f)
	yMean = make([]float64, t)

	if !fitIntercept {
		return x, y, xMean, yMean
	}

	xc = mat.DenseCopyOf(x)
	yc = mat.DenseCopyOf(y)

	for j := 0; j < f; j++ {
		var s float64
		for i := 0; i < n; i++ {
			s += x.At(i, j)
		}
		xMean[j] = s / float64(n)
		for i := 0; i < n; i++ {
			xc.Set(i, j, x.At(i, j)-xMean[j])
		}
	}
	for j := 0; j < t; j++ {
		var s float64
		for i := 0; i < n; i++ {
			s += y.At(i, j)
		}
		yMean[j] = s / float64(n)
		for i := 0; i < n; i++ {
			yc.Set(i, j, y.At(i, j)-yMean[j])
		}
	}
	return xc, yc, xMean, yMean
}

// paramsFromSolution converts a features x targets solution into Params,
// deriving intercepts from the removed column means.
func paramsFromSolution(w *mat.Dense, xMean, yMean []float64) *Params {
	f, t := w.Dims()

	weights := mat.NewDense(t, f, nil)
	intercept := make([]float64, t)
	for j := 0; j < t; j++ {
		dot := 0.0
		for k := 0; k < f; k++ {
			weights.Set(j, k, w.At(k, j))
			dot += xMean[k] * w.At(k, j)
		}
		intercept[j] = yMean[j] - dot
	}
	return &Params{Weights: weights, Intercept: intercept}
}
