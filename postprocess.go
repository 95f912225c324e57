package quantfit

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PostProcess maps raw decision scores to class probabilities, one row per
// sample and one column per class.
//
// A single score column is the binary case: the score is passed through the
// logistic function, unless sigmoidApplied says the graph already applied
// it, and expanded to the pair (1-p, p). Wider scores are the multi-class
// case: each row is exponentiated and normalized to sum to one.
func (lr *LogisticRegression) PostProcess(scores *mat.Dense, sigmoidApplied bool) *mat.Dense {
	if _, cols := scores.Dims(); cols == 1 {
		return binaryProbabilities(scores, sigmoidApplied)
	}

	return multiclassProbabilities(scores)
}

func binaryProbabilities(scores *mat.Dense, sigmoidApplied bool) *mat.Dense {
	rows, _ := scores.Dims()

	out := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		p := scores.At(i, 0)
		if !sigmoidApplied {
			p = logistic(p)
		}
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}

	return out
}

// multiclassProbabilities normalizes each row of exponentiated scores.
// Scores leave the quantized graph in a narrow range, so no stabilizing max
// shift is applied.
func multiclassProbabilities(scores *mat.Dense) *mat.Dense {
	rows, cols := scores.Dims()

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		var sum float64
		for j := 0; j < cols; j++ {
			v := math.Exp(scores.At(i, j))
			out.Set(i, j, v)
			sum += v
		}
		for j := 0; j < cols; j++ {
			out.Set(i, j, out.At(i, j)/sum)
		}
	}

	return out
}

func logistic(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// argmaxRows returns the column index of each row's maximum, taking the
// first column on ties.
func argmaxRows(m *mat.Dense) []int {
	rows, _ := m.Dims()

	idx := make([]int, rows)
	for i := 0; i < rows; i++ {
		idx[i] = floats.MaxIdx(m.RawRowView(i))
	}

	return idx
}
