package benchmark_test

import (
	"testing"

	"github.com/hupe1980/quantfit"
	"github.com/hupe1980/quantfit/testutil"
)

const benchSeed = 42

// fitRegressor trains an 8-bit linear regression on a dataset of the given
// size, shared by the predict benchmarks.
func fitRegressor(b *testing.B, samples, features int) (*quantfit.LinearRegression, testutil.RegressionDataset) {
	b.Helper()

	rng := testutil.NewRNG(benchSeed)
	ds := rng.Regression(samples, features, 0.05)

	model := quantfit.NewLinearRegression(func(o *quantfit.LinearRegressionOptions) {
		o.NBits = 8
	})
	if err := model.Fit(ds.X, ds.Y); err != nil {
		b.Fatalf("Fit failed: %v", err)
	}
	return model, ds
}

// fitWorkaroundRegressor trains the default-precision pairwise-sum model,
// the only regressor whose module fits the encryptable budget.
func fitWorkaroundRegressor(b *testing.B, samples int) (*quantfit.LinearRegression, testutil.RegressionDataset) {
	b.Helper()

	rng := testutil.NewRNG(benchSeed)
	ds := rng.Regression(samples, 4, 0.05)

	model := quantfit.NewLinearRegression(func(o *quantfit.LinearRegressionOptions) {
		o.UseSumWorkaround = true
	})
	if err := model.Fit(ds.X, ds.Y); err != nil {
		b.Fatalf("Fit failed: %v", err)
	}
	return model, ds
}

func fitClassifier(b *testing.B, perClass int) (*quantfit.LogisticRegression, [][]float64) {
	b.Helper()

	rng := testutil.NewRNG(benchSeed)
	x, y := rng.Clusters(perClass, [][]float64{{-2, 0}, {2, 0}, {0, 2}}, 0.3, []float64{0, 1, 2})

	clf := quantfit.NewLogisticRegression(func(o *quantfit.LogisticRegressionOptions) {
		o.NBits = 8
	})
	if err := clf.Fit(x, y); err != nil {
		b.Fatalf("Fit failed: %v", err)
	}
	return clf, x
}
