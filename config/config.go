// Package config loads model presets from YAML and constructs models from
// them. A preset names a model kind plus the hyperparameters to override;
// absent fields keep the model's defaults, so a minimal preset is just
//
//	models:
//	  churn:
//	    model: logistic_regression
//	    n_bits: 8
//
// Decoding is strict: unknown YAML fields are rejected, and every preset is
// validated at load time.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model kinds accepted in the "model" field of a preset.
const (
	ModelLinearRegression   = "linear_regression"
	ModelRidge              = "ridge"
	ModelLasso              = "lasso"
	ModelElasticNet         = "elastic_net"
	ModelLogisticRegression = "logistic_regression"
)

// Presets is the root of a preset file: named model presets.
type Presets struct {
	Models map[string]Preset `yaml:"models"`
}

// Preset describes one model. Pointer fields distinguish "absent" from an
// explicit zero, so a preset only overrides what it names. NBits of zero
// keeps the model default.
type Preset struct {
	Model         string   `yaml:"model"`
	NBits         int      `yaml:"n_bits"`
	SumWorkaround bool     `yaml:"sum_workaround"`
	Alpha         *float64 `yaml:"alpha"`
	L1Ratio       *float64 `yaml:"l1_ratio"`
	C             *float64 `yaml:"c"`
	Tol           *float64 `yaml:"tol"`
	MaxIter       *int     `yaml:"max_iter"`
	FitIntercept  *bool    `yaml:"fit_intercept"`
	Positive      *bool    `yaml:"positive"`
}

// Load reads and validates a preset file.
func Load(path string) (*Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates preset YAML.
func Parse(data []byte) (*Presets, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Presets
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing preset file: %w", err)
	}

	for name, preset := range p.Models {
		if err := preset.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return &p, nil
}

// Get returns the named preset.
func (p *Presets) Get(name string) (Preset, error) {
	preset, ok := p.Models[name]
	if !ok {
		return Preset{}, fmt.Errorf("no preset named %q", name)
	}
	return preset, nil
}

// IsClassifier reports whether the preset names a classification model.
func (p Preset) IsClassifier() bool {
	return p.Model == ModelLogisticRegression
}

// Validate checks the model kind, that every named hyperparameter applies to
// that kind, and that values are in range. Bit-width bounds are enforced at
// fit time by the quantizer.
func (p Preset) Validate() error {
	switch p.Model {
	case ModelLinearRegression, ModelRidge, ModelLasso, ModelElasticNet, ModelLogisticRegression:
	case "":
		return fmt.Errorf("missing model kind")
	default:
		return fmt.Errorf("unknown model kind %q (valid: %s, %s, %s, %s, %s)", p.Model,
			ModelLinearRegression, ModelRidge, ModelLasso, ModelElasticNet, ModelLogisticRegression)
	}

	if p.NBits < 0 {
		return fmt.Errorf("n_bits must not be negative, got %d", p.NBits)
	}
	if p.SumWorkaround && p.Model != ModelLinearRegression {
		return fmt.Errorf("sum_workaround does not apply to model %q", p.Model)
	}

	switch p.Model {
	case ModelLinearRegression:
		if err := p.rejectSet("alpha", p.Alpha != nil); err != nil {
			return err
		}
		if err := p.rejectSet("l1_ratio", p.L1Ratio != nil); err != nil {
			return err
		}
		if err := p.rejectClassifierOptions(); err != nil {
			return err
		}
	case ModelRidge:
		if err := p.rejectSet("l1_ratio", p.L1Ratio != nil); err != nil {
			return err
		}
		if err := p.rejectSet("positive", p.Positive != nil); err != nil {
			return err
		}
		if err := p.rejectClassifierOptions(); err != nil {
			return err
		}
	case ModelLasso:
		if err := p.rejectSet("l1_ratio", p.L1Ratio != nil); err != nil {
			return err
		}
		if err := p.rejectClassifierOptions(); err != nil {
			return err
		}
	case ModelElasticNet:
		if err := p.rejectClassifierOptions(); err != nil {
			return err
		}
	case ModelLogisticRegression:
		if err := p.rejectSet("alpha", p.Alpha != nil); err != nil {
			return err
		}
		if err := p.rejectSet("l1_ratio", p.L1Ratio != nil); err != nil {
			return err
		}
		if err := p.rejectSet("positive", p.Positive != nil); err != nil {
			return err
		}
	}

	if p.Alpha != nil && *p.Alpha < 0 {
		return fmt.Errorf("alpha must not be negative, got %g", *p.Alpha)
	}
	if p.L1Ratio != nil && (*p.L1Ratio < 0 || *p.L1Ratio > 1) {
		return fmt.Errorf("l1_ratio must be in [0, 1], got %g", *p.L1Ratio)
	}
	if p.C != nil && *p.C <= 0 {
		return fmt.Errorf("c must be positive, got %g", *p.C)
	}
	if p.Tol != nil && *p.Tol <= 0 {
		return fmt.Errorf("tol must be positive, got %g", *p.Tol)
	}
	if p.MaxIter != nil && *p.MaxIter < 1 {
		return fmt.Errorf("max_iter must be at least 1, got %d", *p.MaxIter)
	}
	return nil
}

func (p Preset) rejectSet(field string, set bool) error {
	if set {
		return fmt.Errorf("%s does not apply to model %q", field, p.Model)
	}
	return nil
}

func (p Preset) rejectClassifierOptions() error {
	if p.C != nil {
		return p.rejectSet("c", true)
	}
	if p.Tol != nil {
		return p.rejectSet("tol", true)
	}
	if p.MaxIter != nil {
		return p.rejectSet("max_iter", true)
	}
	return nil
}
