package quantization

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/graph"
)

// Options configures post-training quantization.
type Options struct {
	// Signed selects a signed integer range for the input tensor.
	// Intermediate tensors pick their own signedness from the calibrated
	// range.
	Signed bool
}

// DefaultOptions is the default configuration for post-training quantization.
var DefaultOptions = Options{
	Signed: true,
}

// PostTrainingQuantizer derives affine parameters for every tensor of a graph
// from calibration data and lowers the graph into integer kernels.
type PostTrainingQuantizer struct {
	nBits int
	opts  Options
}

// NewPostTrainingQuantizer creates a quantizer producing nBits integer levels
// per tensor.
func NewPostTrainingQuantizer(nBits int, optFns ...func(o *Options)) (*PostTrainingQuantizer, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if nBits < 1 || nBits > 16 {
		return nil, fmt.Errorf("bit width must be in [1, 16], got %d", nBits)
	}

	return &PostTrainingQuantizer{nBits: nBits, opts: opts}, nil
}

// QuantizeModule calibrates the graph over the sample batch and returns the
// quantized module. The graph template is left untouched; the module works on
// a deep copy.
func (q *PostTrainingQuantizer) QuantizeModule(g *graph.Graph, calib *mat.Dense) (*Module, error) {
	if calib == nil {
		return nil, errors.New("calibration requires at least one sample")
	}
	rows, _ := calib.Dims()
	if rows == 0 {
		return nil, errors.New("calibration requires at least one sample")
	}

	g = g.Clone()

	cal := NewCalibrator()
	if err := cal.ObserveGraph(g, calib); err != nil {
		return nil, err
	}

	bits := uint8(q.nBits)

	inMin, inMax, err := cal.Range(g.InputName)
	if err != nil {
		return nil, err
	}

	m := &Module{
		features: g.Features,
		outWidth: g.OutputWidth(),
		nBits:    q.nBits,
		inName:   g.InputName,
		input:    FromRange(inMin, inMax, bits, q.opts.Signed),
		nodes:    make([]qnode, len(g.Nodes)),
	}

	prev := m.input
	for i := range g.Nodes {
		n := &g.Nodes[i]
		rMin, rMax, err := cal.Range(n.Output)
		if err != nil {
			return nil, err
		}

		qn := qnode{
			op:       n.Op,
			name:     n.Output,
			out:      FromRange(rMin, rMax, bits, rMin < 0),
			pairwise: n.Pairwise,
		}

		switch n.Op {
		case graph.OpMatMul, graph.OpMul:
			qn.wr, qn.wc = n.Weights.Dims()
			qn.wParams = Symmetric(absMax(n.Weights), bits)
			qn.weights = make([]int32, qn.wr*qn.wc)
			for r := 0; r < qn.wr; r++ {
				for c := 0; c < qn.wc; c++ {
					qn.weights[r*qn.wc+c] = qn.wParams.Quantize(n.Weights.At(r, c))
				}
			}

		case graph.OpAdd:
			qn.bias = append([]float64(nil), n.Bias...)

		case graph.OpSigmoid:
			// Table lookup over every input level, the integer analog of
			// applying the op in the clear.
			qn.lut = sigmoidTable(prev, qn.out)
		}

		m.nodes[i] = qn
		prev = qn.out
	}

	qcalib, err := m.QuantizeInput(calib)
	if err != nil {
		return nil, err
	}
	m.profile(qcalib)

	return m, nil
}

// sigmoidTable precomputes the quantized sigmoid for every representable
// input level.
func sigmoidTable(in, out Params) []int32 {
	lut := make([]int32, in.Levels())
	for i := range lut {
		level := in.QMin() + int32(i)
		lut[i] = out.Quantize(graph.Sigmoid(in.Dequantize(level)))
	}
	return lut
}

func absMax(w *mat.Dense) float64 {
	rows, cols := w.Dims()
	var m float64
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := w.At(r, c); v > m {
				m = v
			} else if -v > m {
				m = -v
			}
		}
	}
	return m
}
