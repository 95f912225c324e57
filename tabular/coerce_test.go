package tabular

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCoerceFloat64Rows(t *testing.T) {
	x, err := Coerce([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	rows, cols := x.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 3.0, x.At(1, 0))
}

func TestCoerceCopiesSliceInput(t *testing.T) {
	src := [][]float64{{1, 2}, {3, 4}}
	x, err := Coerce(src)
	require.NoError(t, err)

	src[0][0] = 99
	assert.Equal(t, 1.0, x.At(0, 0))
}

func TestCoerceSingleRow(t *testing.T) {
	x, err := Coerce([]float64{1, 2, 3})
	require.NoError(t, err)

	rows, cols := x.Dims()
	assert.Equal(t, 1, rows)
	assert.Equal(t, 3, cols)
}

func TestCoerceFloat32AndInt(t *testing.T) {
	x32, err := Coerce([][]float32{{1.5, 2.5}})
	require.NoError(t, err)
	assert.Equal(t, 2.5, x32.At(0, 1))

	xi, err := Coerce([][]int{{7, 8}, {9, 10}})
	require.NoError(t, err)
	assert.Equal(t, 10.0, xi.At(1, 1))
}

func TestCoerceDensePassthrough(t *testing.T) {
	d := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	x, err := Coerce(d)
	require.NoError(t, err)
	assert.Same(t, d, x)
}

func TestCoerceRaggedRows(t *testing.T) {
	_, err := Coerce([][]float64{{1, 2, 3}, {4, 5}})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Row)
	assert.Contains(t, ve.Error(), "ragged row")
}

func TestCoerceRejectsNaN(t *testing.T) {
	_, err := Coerce([][]float64{{1, 2}, {math.NaN(), 4}})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Row)
	assert.Equal(t, 0, ve.Col)
	assert.Contains(t, ve.Error(), "non-finite")
}

func TestCoerceRejectsEmpty(t *testing.T) {
	_, err := Coerce([][]float64{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = Coerce(nil)
	require.ErrorAs(t, err, &ve)

	_, err = Coerce("not a matrix")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "unsupported feature type")
}

func TestCoerceTargetsVector(t *testing.T) {
	y, err := CoerceTargets([]float64{1, 0, 1})
	require.NoError(t, err)

	rows, cols := y.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 1, cols)
}

func TestCoerceTargetsIntLabels(t *testing.T) {
	y, err := CoerceTargets([]int{2, 0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 2.0, y.At(0, 0))
}

func TestCoerceTargetsVecDense(t *testing.T) {
	v := mat.NewVecDense(2, []float64{0.5, 1.5})
	y, err := CoerceTargets(v)
	require.NoError(t, err)

	rows, cols := y.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1.5, y.At(1, 0))
}

func TestCoerceTargetsRejectsInf(t *testing.T) {
	_, err := CoerceTargets([]float64{1, math.Inf(1)})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Row)
}

func TestLabels(t *testing.T) {
	y, err := CoerceTargets([]float64{2, 0, 1, 0, 2})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1, 2}, Labels(y))
}
