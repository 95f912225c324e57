package config

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit"
	"github.com/hupe1980/quantfit/quantization"
)

// Regressor is the surface shared by the regression models a preset can
// construct.
type Regressor interface {
	Fit(x, y any) error
	Predict(ctx context.Context, x any, optFns ...func(o *quantfit.PredictOptions)) (*mat.Dense, error)
	Score(ctx context.Context, x, y any, optFns ...func(o *quantfit.PredictOptions)) (float64, error)
	IsFitted() bool
	Artifact() (*quantization.Module, error)
}

// BuildRegressor constructs the regression model the preset describes.
// Fails on classifier presets; use BuildClassifier for those.
func (p Preset) BuildRegressor(optFns ...func(o *ModelOptions)) (Regressor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	opts := ModelOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	switch p.Model {
	case ModelLinearRegression:
		return quantfit.NewLinearRegression(func(o *quantfit.LinearRegressionOptions) {
			if p.NBits > 0 {
				o.NBits = p.NBits
			}
			o.UseSumWorkaround = p.SumWorkaround
			if p.FitIntercept != nil {
				o.FitIntercept = *p.FitIntercept
			}
			if p.Positive != nil {
				o.Positive = *p.Positive
			}
			o.Logger = opts.Logger
			o.MetricsCollector = opts.MetricsCollector
		}), nil
	case ModelRidge:
		return quantfit.NewRidge(func(o *quantfit.RidgeOptions) {
			if p.NBits > 0 {
				o.NBits = p.NBits
			}
			if p.Alpha != nil {
				o.Alpha = *p.Alpha
			}
			if p.FitIntercept != nil {
				o.FitIntercept = *p.FitIntercept
			}
			o.Logger = opts.Logger
			o.MetricsCollector = opts.MetricsCollector
		}), nil
	case ModelLasso:
		return quantfit.NewLasso(func(o *quantfit.LassoOptions) {
			if p.NBits > 0 {
				o.NBits = p.NBits
			}
			if p.Alpha != nil {
				o.Alpha = *p.Alpha
			}
			if p.FitIntercept != nil {
				o.FitIntercept = *p.FitIntercept
			}
			if p.Positive != nil {
				o.Positive = *p.Positive
			}
			o.Logger = opts.Logger
			o.MetricsCollector = opts.MetricsCollector
		}), nil
	case ModelElasticNet:
		return quantfit.NewElasticNet(func(o *quantfit.ElasticNetOptions) {
			if p.NBits > 0 {
				o.NBits = p.NBits
			}
			if p.Alpha != nil {
				o.Alpha = *p.Alpha
			}
			if p.L1Ratio != nil {
				o.L1Ratio = *p.L1Ratio
			}
			if p.FitIntercept != nil {
				o.FitIntercept = *p.FitIntercept
			}
			if p.Positive != nil {
				o.Positive = *p.Positive
			}
			o.Logger = opts.Logger
			o.MetricsCollector = opts.MetricsCollector
		}), nil
	case ModelLogisticRegression:
		return nil, fmt.Errorf("model %q is a classifier; use BuildClassifier", p.Model)
	default:
		return nil, fmt.Errorf("unknown model kind %q", p.Model)
	}
}

// BuildClassifier constructs the classifier the preset describes.
func (p Preset) BuildClassifier(optFns ...func(o *ModelOptions)) (*quantfit.LogisticRegression, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Model != ModelLogisticRegression {
		return nil, fmt.Errorf("model %q is a regressor; use BuildRegressor", p.Model)
	}

	opts := ModelOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return quantfit.NewLogisticRegression(func(o *quantfit.LogisticRegressionOptions) {
		if p.NBits > 0 {
			o.NBits = p.NBits
		}
		if p.C != nil {
			o.C = *p.C
		}
		if p.Tol != nil {
			o.Tol = *p.Tol
		}
		if p.MaxIter != nil {
			o.MaxIter = *p.MaxIter
		}
		if p.FitIntercept != nil {
			o.FitIntercept = *p.FitIntercept
		}
		o.Logger = opts.Logger
		o.MetricsCollector = opts.MetricsCollector
	}), nil
}

// ModelOptions carries runtime wiring a preset cannot express, like the
// observability hooks to hand to the constructed model.
type ModelOptions struct {
	Logger           *quantfit.Logger
	MetricsCollector quantfit.MetricsCollector
}
