package integration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit"
	"github.com/hupe1980/quantfit/artifact"
	"github.com/hupe1980/quantfit/testutil"
)

// TestClassifierLifecycle walks a multi-class model through the full
// train/publish/serve cycle. Application labels are non-contiguous to make
// sure the class mapping survives the registry round trip.
func TestClassifierLifecycle(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(7)

	centroids := [][]float64{{-2, 0}, {2, 0}, {0, 2}}
	labels := []float64{2, 5, 9}
	x, y := rng.Clusters(12, centroids, 0.25, labels)

	// 1. Train.
	clf := quantfit.NewLogisticRegression(func(o *quantfit.LogisticRegressionOptions) {
		o.NBits = 8
	})
	require.NoError(t, clf.Fit(x, y))
	require.Equal(t, []float64{2, 5, 9}, clf.Classes())

	acc, err := clf.Score(ctx, x, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)

	// 2. Probabilities normalize row-wise.
	proba, err := clf.PredictProba(ctx, x)
	require.NoError(t, err)
	rows, cols := proba.Dims()
	require.Equal(t, len(x), rows)
	require.Equal(t, 3, cols)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			p := proba.At(i, j)
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	// 3. Publish.
	registry := artifact.NewRegistry(artifact.NewLocalStore(t.TempDir()))
	module, err := clf.Artifact()
	require.NoError(t, err)

	_, err = registry.Save(ctx, "churn", &artifact.Artifact{
		Kind:      "logistic_regression",
		Algorithm: "logistic",
		NBits:     8,
		Classes:   clf.Classes(),
		Module:    module,
	})
	require.NoError(t, err)

	// 4. Serve: the loaded module reproduces the live decision function and
	// carries the original labels.
	loaded, err := registry.Load(ctx, "churn")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5, 9}, loaded.Classes)
	assert.False(t, loaded.Module.SigmoidInGraph())

	want, err := clf.DecisionFunction(ctx, x)
	require.NoError(t, err)

	xd := mat.NewDense(len(x), len(x[0]), nil)
	for i, row := range x {
		xd.SetRow(i, row)
	}
	got, err := loaded.Module.Predict(xd)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}
