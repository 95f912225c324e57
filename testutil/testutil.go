package testutil

import (
	"math/rand"
	"sync"
)

// RNG encapsulates a seeded random number generator. It is thread-safe and
// can be reset to its initial seed, so fixtures are reproducible across
// test runs and benchmark iterations.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// NormFloat64 returns a standard-normal pseudo-random number.
func (r *RNG) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.NormFloat64()
}

// RegressionDataset is a synthetic dataset drawn from a known linear model.
type RegressionDataset struct {
	X         [][]float64
	Y         []float64
	Weights   []float64
	Intercept float64
}

// Regression generates n samples from a random linear model with additive
// Gaussian noise. Features are uniform in [-2, 2), weights in [-2, 2), the
// intercept in [-1, 1). Noise of 0 yields an exactly linear target.
func (r *RNG) Regression(n, features int, noise float64) RegressionDataset {
	r.mu.Lock()
	defer r.mu.Unlock()

	ds := RegressionDataset{
		X:         make([][]float64, n),
		Y:         make([]float64, n),
		Weights:   make([]float64, features),
		Intercept: r.rand.Float64()*2 - 1,
	}
	for j := range ds.Weights {
		ds.Weights[j] = r.rand.Float64()*4 - 2
	}

	for i := range ds.X {
		row := make([]float64, features)
		target := ds.Intercept
		for j := range row {
			row[j] = r.rand.Float64()*4 - 2
			target += ds.Weights[j] * row[j]
		}
		if noise > 0 {
			target += r.rand.NormFloat64() * noise
		}
		ds.X[i] = row
		ds.Y[i] = target
	}
	return ds
}

// MultiRegression generates n samples from targets independent linear
// models over the same features, for multi-output regression fixtures.
func (r *RNG) MultiRegression(n, features, targets int, noise float64) (x [][]float64, y [][]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	weights := make([][]float64, targets)
	intercepts := make([]float64, targets)
	for t := range weights {
		weights[t] = make([]float64, features)
		for j := range weights[t] {
			weights[t][j] = r.rand.Float64()*4 - 2
		}
		intercepts[t] = r.rand.Float64()*2 - 1
	}

	x = make([][]float64, n)
	y = make([][]float64, n)
	for i := range x {
		row := make([]float64, features)
		for j := range row {
			row[j] = r.rand.Float64()*4 - 2
		}
		out := make([]float64, targets)
		for t := range out {
			out[t] = intercepts[t]
			for j := range row {
				out[t] += weights[t][j] * row[j]
			}
			if noise > 0 {
				out[t] += r.rand.NormFloat64() * noise
			}
		}
		x[i] = row
		y[i] = out
	}
	return x, y
}

// Clusters generates perClass points around each centroid with Gaussian
// spread and assigns the matching label from labels. len(labels) must equal
// len(centroids). Points are emitted class by class, so sample i carries
// labels[i/perClass].
func (r *RNG) Clusters(perClass int, centroids [][]float64, spread float64, labels []float64) (x [][]float64, y []float64) {
	if len(labels) != len(centroids) {
		panic("testutil: centroids and labels must have the same length")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for c, center := range centroids {
		for i := 0; i < perClass; i++ {
			point := make([]float64, len(center))
			for j := range point {
				point[j] = center[j] + r.rand.NormFloat64()*spread
			}
			x = append(x, point)
			y = append(y, labels[c])
		}
	}
	return x, y
}
