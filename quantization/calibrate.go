package quantization

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/graph"
)

// Calibrator accumulates per-tensor value ranges from float traces of a graph
// over calibration batches. The ranges seed the affine parameters of every
// tensor in the quantized module.
type Calibrator struct {
	ranges map[string]*valueRange
}

type valueRange struct {
	min, max float64
	seen     bool
}

// NewCalibrator returns an empty calibrator.
func NewCalibrator() *Calibrator {
	return &Calibrator{ranges: make(map[string]*valueRange)}
}

// ObserveGraph traces the graph over a calibration batch in the float domain
// and folds every tensor, the input included, into the tracked ranges.
func (c *Calibrator) ObserveGraph(g *graph.Graph, x *mat.Dense) error {
	tensors, err := g.Trace(x)
	if err != nil {
		return err
	}
	for name, t := range tensors {
		c.observe(name, t)
	}
	return nil
}

// Range returns the observed [min, max] for a tensor.
func (c *Calibrator) Range(name string) (min, max float64, err error) {
	r := c.ranges[name]
	if r == nil || !r.seen {
		return 0, 0, fmt.Errorf("no calibration data for tensor %q", name)
	}
	return r.min, r.max, nil
}

func (c *Calibrator) observe(name string, t *mat.Dense) {
	r := c.ranges[name]
	if r == nil {
		r = &valueRange{}
		c.ranges[name] = r
	}
	rows, cols := t.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := t.At(i, j)
			if !r.seen {
				r.min, r.max, r.seen = v, v, true
				continue
			}
			if v < r.min {
				r.min = v
			}
			if v > r.max {
				r.max = v
			}
		}
	}
}
