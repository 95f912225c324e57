package graph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Tensor names produced by the builders.
const (
	TensorInput  = "input"
	TensorGemm   = "gemm"
	TensorProd   = "prod"
	TensorSum    = "sum"
	TensorScore  = "score"
	TensorOutput = "output"
)

// BuildLinear lays out x*W' + b as MatMul -> Add. weights is targets x
// features in the extracted-parameter convention; intercept has one entry per
// target. When withSigmoid is set a trailing sigmoid node is appended, as a
// binary classifier export carries one.
func BuildLinear(weights *mat.Dense, intercept []float64, withSigmoid bool) (*Graph, error) {
	if weights == nil {
		return nil, &ErrInvalidGraph{Reason: "nil weights"}
	}
	targets, features := weights.Dims()
	if len(intercept) != targets {
		return nil, &ErrInvalidGraph{Reason: fmt.Sprintf("intercept has %d entries, want %d", len(intercept), targets)}
	}

	// The graph multiplies row vectors from the left, so the constant is
	// stored features x targets.
	w := mat.NewDense(features, targets, nil)
	for t := 0; t < targets; t++ {
		for f := 0; f < features; f++ {
			w.Set(f, t, weights.At(t, f))
		}
	}

	g := &Graph{
		InputName:  TensorInput,
		OutputName: TensorOutput,
		Features:   features,
	}

	scoreName := TensorOutput
	if withSigmoid {
		scoreName = TensorScore
	}

	g.Nodes = append(g.Nodes,
		Node{Op: OpMatMul, Input: TensorInput, Output: TensorGemm, Weights: w},
		Node{Op: OpAdd, Input: TensorGemm, Output: scoreName, Bias: append([]float64(nil), intercept...)},
	)
	if withSigmoid {
		g.Nodes = append(g.Nodes, Node{Op: OpSigmoid, Input: TensorScore, Output: TensorOutput})
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// BuildPairwiseSum lays out the overflow-safe dot product for a single-target
// model: element-wise Mul -> pairwise ReduceSum -> bias Add. The reduction
// tree halves after every pairwise addition, so the feature count must be a
// power of two; the output scale is compensated by the feature count.
func BuildPairwiseSum(weights *mat.Dense, intercept float64) (*Graph, error) {
	if weights == nil {
		return nil, &ErrInvalidGraph{Reason: "nil weights"}
	}
	targets, features := weights.Dims()
	if targets != 1 {
		return nil, &ErrInvalidGraph{Reason: fmt.Sprintf("pairwise sum supports a single target, got %d", targets)}
	}
	if !isPowerOfTwo(features) {
		return nil, &ErrInvalidGraph{Reason: fmt.Sprintf("pairwise sum requires a power-of-two feature count, got %d", features)}
	}

	w := mat.NewDense(1, features, nil)
	for f := 0; f < features; f++ {
		w.Set(0, f, weights.At(0, f))
	}

	g := &Graph{
		InputName:  TensorInput,
		OutputName: TensorOutput,
		Features:   features,
		Nodes: []Node{
			{Op: OpMul, Input: TensorInput, Output: TensorProd, Weights: w},
			{Op: OpReduceSum, Input: TensorProd, Output: TensorSum, Pairwise: true, KeepDims: true},
			{Op: OpAdd, Input: TensorSum, Output: TensorOutput, Bias: []float64{intercept}},
		},
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
