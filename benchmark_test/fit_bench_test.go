package benchmark_test

import (
	"fmt"
	"testing"

	"github.com/hupe1980/quantfit"
	"github.com/hupe1980/quantfit/testutil"
)

// BenchmarkFit measures end-to-end fit cost: float training, graph export,
// and post-training quantization with calibration on the training set.
func BenchmarkFit(b *testing.B) {
	sizes := []struct {
		samples  int
		features int
	}{
		{256, 4},
		{1024, 16},
		{4096, 16},
	}

	for _, size := range sizes {
		rng := testutil.NewRNG(benchSeed)
		ds := rng.Regression(size.samples, size.features, 0.05)

		b.Run(fmt.Sprintf("LinearRegression/%dx%d", size.samples, size.features), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				model := quantfit.NewLinearRegression(func(o *quantfit.LinearRegressionOptions) {
					o.NBits = 8
				})
				if err := model.Fit(ds.X, ds.Y); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(fmt.Sprintf("Ridge/%dx%d", size.samples, size.features), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				model := quantfit.NewRidge(func(o *quantfit.RidgeOptions) {
					o.NBits = 8
				})
				if err := model.Fit(ds.X, ds.Y); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(fmt.Sprintf("Lasso/%dx%d", size.samples, size.features), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				model := quantfit.NewLasso(func(o *quantfit.LassoOptions) {
					o.NBits = 8
					o.Alpha = 0.01
				})
				if err := model.Fit(ds.X, ds.Y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkFitLogistic isolates the iterative solver, which dominates
// classifier fits.
func BenchmarkFitLogistic(b *testing.B) {
	for _, perClass := range []int{64, 512} {
		rng := testutil.NewRNG(benchSeed)
		x, y := rng.Clusters(perClass, [][]float64{{-2, 0}, {2, 0}, {0, 2}}, 0.3, []float64{0, 1, 2})

		b.Run(fmt.Sprintf("3x%d", perClass), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				clf := quantfit.NewLogisticRegression(func(o *quantfit.LogisticRegressionOptions) {
					o.NBits = 8
				})
				if err := clf.Fit(x, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
