// Package graph models the small tensor programs that quantized linear models
// execute: a single designated input, a chain of matrix and element-wise ops,
// and a single designated output.
//
// Graphs are plain values. Ownership transfers by cloning at component
// boundaries; nothing in this package shares mutable state between graphs.
package graph

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// OpKind identifies a graph operation.
type OpKind uint8

const (
	// OpMatMul multiplies the incoming batch with a constant weight matrix.
	OpMatMul OpKind = iota + 1
	// OpMul multiplies element-wise with a constant row of weights.
	OpMul
	// OpAdd adds a constant bias row.
	OpAdd
	// OpReduceSum sums across features, optionally as a pairwise tree.
	OpReduceSum
	// OpSigmoid applies the logistic function element-wise.
	OpSigmoid
)

func (k OpKind) String() string {
	switch k {
	case OpMatMul:
		return "MatMul"
	case OpMul:
		return "Mul"
	case OpAdd:
		return "Add"
	case OpReduceSum:
		return "ReduceSum"
	case OpSigmoid:
		return "Sigmoid"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// Node is a single operation in the chain. Exactly one of the constant fields
// is populated depending on Op: Weights for MatMul (features x targets) and
// Mul (1 x features), Bias for Add.
type Node struct {
	Op     OpKind
	Input  string
	Output string

	Weights  *mat.Dense
	Bias     []float64
	Pairwise bool // ReduceSum: overflow-safe tree reduction
	KeepDims bool // ReduceSum: output keeps a width-1 column
}

// Graph is a chain of ops over named tensors with one designated input and one
// designated output.
type Graph struct {
	InputName  string
	OutputName string
	Features   int
	Nodes      []Node
}

// ErrWidthMismatch indicates a batch whose feature count disagrees with the
// graph template.
type ErrWidthMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrWidthMismatch) Error() string {
	return fmt.Sprintf("width mismatch: expected %d features, got %d", e.Expected, e.Actual)
}

// ErrInvalidGraph indicates a graph that violates the single-input,
// single-output chain structure or an op constraint.
type ErrInvalidGraph struct {
	Reason string
}

func (e *ErrInvalidGraph) Error() string {
	return "invalid graph: " + e.Reason
}

var errEmptyGraph = errors.New("graph has no nodes")

// Clone returns a deep copy. The copy shares no tensors with the original.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		InputName:  g.InputName,
		OutputName: g.OutputName,
		Features:   g.Features,
		Nodes:      make([]Node, len(g.Nodes)),
	}
	for i, n := range g.Nodes {
		c := n
		if n.Weights != nil {
			c.Weights = mat.DenseCopyOf(n.Weights)
		}
		if n.Bias != nil {
			c.Bias = append([]float64(nil), n.Bias...)
		}
		out.Nodes[i] = c
	}
	return out
}

// HasTrailingSigmoid reports whether the graph still ends in a sigmoid node.
func (g *Graph) HasTrailingSigmoid() bool {
	if len(g.Nodes) == 0 {
		return false
	}
	return g.Nodes[len(g.Nodes)-1].Op == OpSigmoid
}

// OutputWidth returns the number of columns the graph produces per sample.
func (g *Graph) OutputWidth() int {
	width := g.Features
	for _, n := range g.Nodes {
		switch n.Op {
		case OpMatMul:
			if n.Weights != nil {
				_, width = n.Weights.Dims()
			}
		case OpReduceSum:
			width = 1
		}
	}
	return width
}

// Validate checks the chain structure and per-op constraints.
func (g *Graph) Validate() error {
	if g.Features <= 0 {
		return &ErrInvalidGraph{Reason: fmt.Sprintf("feature count must be positive, got %d", g.Features)}
	}
	if len(g.Nodes) == 0 {
		return &ErrInvalidGraph{Reason: errEmptyGraph.Error()}
	}
	if g.InputName == "" || g.OutputName == "" {
		return &ErrInvalidGraph{Reason: "input and output tensors must be named"}
	}

	prev := g.InputName
	width := g.Features
	seen := map[string]struct{}{g.InputName: {}}

	for i, n := range g.Nodes {
		if n.Input != prev {
			return &ErrInvalidGraph{Reason: fmt.Sprintf("node %d (%s) reads %q, want %q", i, n.Op, n.Input, prev)}
		}
		if n.Output == "" {
			return &ErrInvalidGraph{Reason: fmt.Sprintf("node %d (%s) has no output name", i, n.Op)}
		}
		if _, dup := seen[n.Output]; dup {
			return &ErrInvalidGraph{Reason: fmt.Sprintf("tensor %q produced twice", n.Output)}
		}
		seen[n.Output] = struct{}{}

		switch n.Op {
		case OpMatMul:
			if n.Weights == nil {
				return &ErrInvalidGraph{Reason: fmt.Sprintf("node %d: MatMul without weights", i)}
			}
			r, c := n.Weights.Dims()
			if r != width {
				return &ErrInvalidGraph{Reason: fmt.Sprintf("node %d: MatMul weights have %d rows, want %d", i, r, width)}
			}
			width = c
		case OpMul:
			if n.Weights == nil {
				return &ErrInvalidGraph{Reason: fmt.Sprintf("node %d: Mul without weights", i)}
			}
			r, c := n.Weights.Dims()
			if r != 1 || c != width {
				return &ErrInvalidGraph{Reason: fmt.Sprintf("node %d: Mul weights are %dx%d, want 1x%d", i, r, c, width)}
			}
		case OpAdd:
			if len(n.Bias) != width {
				return &ErrInvalidGraph{Reason: fmt.Sprintf("node %d: bias has %d entries, want %d", i, len(n.Bias), width)}
			}
		case OpReduceSum:
			if n.Pairwise && !isPowerOfTwo(width) {
				return &ErrInvalidGraph{Reason: fmt.Sprintf("node %d: pairwise reduction over %d features, want a power of two", i, width)}
			}
			width = 1
		case OpSigmoid:
			// Width unchanged.
		default:
			return &ErrInvalidGraph{Reason: fmt.Sprintf("node %d: unknown op %d", i, uint8(n.Op))}
		}

		prev = n.Output
	}

	if prev != g.OutputName {
		return &ErrInvalidGraph{Reason: fmt.Sprintf("last node produces %q, want designated output %q", prev, g.OutputName)}
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
