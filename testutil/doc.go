// Package testutil provides testing utilities for quantfit.
//
// This package is intended for use in tests and benchmarks only.
// It provides a resettable seeded RNG and generators for synthetic
// datasets with known ground truth.
//
// # Regression Fixtures
//
//	rng := testutil.NewRNG(seed)
//	ds := rng.Regression(256, 4, 0.1) // 256 samples, 4 features, σ=0.1 noise
//	// ds.Weights and ds.Intercept hold the generating model
//
// # Classification Fixtures
//
//	x, y := rng.Clusters(50, [][]float64{{-2, 0}, {2, 0}}, 0.3, []float64{0, 1})
package testutil
