package artifact

import (
	"github.com/hupe1980/quantfit/quantization"
)

// Artifact bundles a quantized module with the metadata needed to serve it.
type Artifact struct {
	// Kind is the model family, e.g. "linear_regression".
	Kind string
	// Algorithm is the training algorithm, e.g. "ols".
	Algorithm string
	// NBits is the quantization bit width the module was built with.
	NBits int
	// Classes holds the original class labels in encoding order. Nil for
	// regressors.
	Classes []float64
	// Module is the integer computation graph.
	Module *quantization.Module
}

// IsClassifier reports whether the artifact carries class labels.
func (a *Artifact) IsClassifier() bool {
	return len(a.Classes) > 0
}

// metadata is the JSON document stored next to the module payload.
type metadata struct {
	Kind      string    `json:"kind"`
	Algorithm string    `json:"algorithm"`
	NBits     int       `json:"n_bits"`
	Classes   []float64 `json:"classes,omitempty"`
}
