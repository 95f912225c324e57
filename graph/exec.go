package graph

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Run evaluates the graph in the float domain over a batch of samples
// (rows x features) and returns the designated output tensor.
func (g *Graph) Run(x *mat.Dense) (*mat.Dense, error) {
	tensors, err := g.Trace(x)
	if err != nil {
		return nil, err
	}
	return tensors[g.OutputName], nil
}

// Trace evaluates the graph and returns every named tensor, the input
// included. Calibration uses the trace to observe per-tensor value ranges.
//
// The input entry may alias x; all other tensors are freshly allocated.
func (g *Graph) Trace(x *mat.Dense) (map[string]*mat.Dense, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	rows, cols := x.Dims()
	if cols != g.Features {
		return nil, &ErrWidthMismatch{Expected: g.Features, Actual: cols}
	}

	tensors := make(map[string]*mat.Dense, len(g.Nodes)+1)
	tensors[g.InputName] = x

	cur := x
	for i := range g.Nodes {
		n := &g.Nodes[i]
		var out *mat.Dense

		switch n.Op {
		case OpMatMul:
			_, targets := n.Weights.Dims()
			out = mat.NewDense(rows, targets, nil)
			out.Mul(cur, n.Weights)

		case OpMul:
			_, width := cur.Dims()
			out = mat.NewDense(rows, width, nil)
			for r := 0; r < rows; r++ {
				for c := 0; c < width; c++ {
					out.Set(r, c, cur.At(r, c)*n.Weights.At(0, c))
				}
			}

		case OpAdd:
			_, width := cur.Dims()
			out = mat.NewDense(rows, width, nil)
			for r := 0; r < rows; r++ {
				for c := 0; c < width; c++ {
					out.Set(r, c, cur.At(r, c)+n.Bias[c])
				}
			}

		case OpReduceSum:
			_, width := cur.Dims()
			out = mat.NewDense(rows, 1, nil)
			row := make([]float64, width)
			for r := 0; r < rows; r++ {
				mat.Row(row, r, cur)
				if n.Pairwise {
					out.Set(r, 0, pairwiseSum(row))
				} else {
					var s float64
					for _, v := range row {
						s += v
					}
					out.Set(r, 0, s)
				}
			}

		case OpSigmoid:
			_, width := cur.Dims()
			out = mat.NewDense(rows, width, nil)
			for r := 0; r < rows; r++ {
				for c := 0; c < width; c++ {
					out.Set(r, c, Sigmoid(cur.At(r, c)))
				}
			}
		}

		tensors[n.Output] = out
		cur = out
	}

	return tensors, nil
}

// pairwiseSum reduces a power-of-two length row the way the quantized tree
// does: every level adds pairs and halves, and the final value is scaled back
// by the element count. Halving by two is exact in floating point, so this
// equals the plain sum.
func pairwiseSum(row []float64) float64 {
	n := len(row)
	buf := append([]float64(nil), row...)
	for width := n; width > 1; width /= 2 {
		for i := 0; i < width/2; i++ {
			buf[i] = (buf[2*i] + buf[2*i+1]) / 2
		}
	}
	return buf[0] * float64(n)
}

// Sigmoid is the numerically stable logistic function.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
