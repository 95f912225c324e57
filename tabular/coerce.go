// Package tabular converts caller-supplied feature and target data into dense
// float64 matrices and rejects malformed input before it reaches a fit or
// predict path.
package tabular

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ValidationError describes input data that was rejected during coercion.
//
// Row and Col locate the offending value when the problem is tied to a single
// cell; they are -1 otherwise.
type ValidationError struct {
	Reason string
	Row    int
	Col    int
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Reason
}

func errValidation(row, col int, format string, args ...any) *ValidationError {
	return &ValidationError{
		Reason: fmt.Sprintf(format, args...),
		Row:    row,
		Col:    col,
	}
}

// Coerce converts feature data into a dense row-major float64 matrix.
//
// Supported inputs: *mat.Dense, any mat.Matrix, [][]float64, [][]float32,
// [][]int, and []float64 (interpreted as a single sample row). Slice inputs
// are always copied; a *mat.Dense passes through and may alias the input.
func Coerce(x any) (*mat.Dense, error) {
	switch v := x.(type) {
	case nil:
		return nil, errValidation(-1, -1, "feature data is nil")
	case *mat.Dense:
		return v, checkFinite(v)
	case mat.Matrix:
		d := mat.DenseCopyOf(v)
		return d, checkFinite(d)
	case [][]float64:
		return fromRows(len(v), func(i int) []float64 { return v[i] })
	case [][]float32:
		return fromRows(len(v), func(i int) []float64 { return widen32(v[i]) })
	case [][]int:
		return fromRows(len(v), func(i int) []float64 { return widenInt(v[i]) })
	case []float64:
		return fromRows(1, func(int) []float64 { return v })
	default:
		return nil, errValidation(-1, -1, "unsupported feature type %T", x)
	}
}

// CoerceTargets converts target data into a dense matrix with one column per
// target. Vectors become a single column.
//
// Supported inputs: []float64, []float32, []int, mat.Vector, *mat.Dense, any
// mat.Matrix, and [][]float64.
func CoerceTargets(y any) (*mat.Dense, error) {
	switch v := y.(type) {
	case nil:
		return nil, errValidation(-1, -1, "target data is nil")
	case []float64:
		return fromColumn(v)
	case []float32:
		return fromColumn(widen32(v))
	case []int:
		return fromColumn(widenInt(v))
	case *mat.Dense:
		return v, checkFinite(v)
	case mat.Vector:
		n := v.Len()
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = v.AtVec(i)
		}
		return fromColumn(col)
	case mat.Matrix:
		d := mat.DenseCopyOf(v)
		return d, checkFinite(d)
	case [][]float64:
		return fromRows(len(v), func(i int) []float64 { return v[i] })
	default:
		return nil, errValidation(-1, -1, "unsupported target type %T", y)
	}
}

func fromRows(rows int, row func(i int) []float64) (*mat.Dense, error) {
	if rows == 0 {
		return nil, errValidation(-1, -1, "empty input: 0 rows")
	}

	cols := len(row(0))
	if cols == 0 {
		return nil, errValidation(0, -1, "empty input: row 0 has 0 values")
	}

	d := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		r := row(i)
		if len(r) != cols {
			return nil, errValidation(i, -1, "ragged row: row %d has %d values, want %d", i, len(r), cols)
		}
		for j, val := range r {
			if !isFinite(val) {
				return nil, errValidation(i, j, "non-finite value at row %d, col %d", i, j)
			}
			d.Set(i, j, val)
		}
	}
	return d, nil
}

func fromColumn(col []float64) (*mat.Dense, error) {
	if len(col) == 0 {
		return nil, errValidation(-1, -1, "empty input: 0 rows")
	}
	d := mat.NewDense(len(col), 1, nil)
	for i, val := range col {
		if !isFinite(val) {
			return nil, errValidation(i, 0, "non-finite value at row %d", i)
		}
		d.Set(i, 0, val)
	}
	return d, nil
}

func checkFinite(d *mat.Dense) error {
	rows, cols := d.Dims()
	if rows == 0 || cols == 0 {
		return errValidation(-1, -1, "empty input: %dx%d matrix", rows, cols)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !isFinite(d.At(i, j)) {
				return errValidation(i, j, "non-finite value at row %d, col %d", i, j)
			}
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func widen32(r []float32) []float64 {
	out := make([]float64, len(r))
	for i, v := range r {
		out[i] = float64(v)
	}
	return out
}

func widenInt(r []int) []float64 {
	out := make([]float64, len(r))
	for i, v := range r {
		out[i] = float64(v)
	}
	return out
}

// Labels returns the distinct values of the first column of y in ascending
// order. Used to establish a stable class ordering for classifiers.
func Labels(y *mat.Dense) []float64 {
	rows, _ := y.Dims()
	seen := make(map[float64]struct{}, rows)
	var labels []float64
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			labels = append(labels, v)
		}
	}
	sort.Float64s(labels)
	return labels
}
