package linmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// logisticTrainer minimizes the L2-penalized cross-entropy with L-BFGS.
// Binary problems (two classes) produce a single weight row; three or more
// classes produce one row per class via the multinomial loss.
//
// Targets arrive as class indices 0..K-1 in a single column.
type logisticTrainer struct {
	hp Hyperparams
}

func (t *logisticTrainer) Fit(x, y *mat.Dense) (*Params, error) {
	n, f := x.Dims()

	labels := make([]int, n)
	k := 0
	for i := 0; i < n; i++ {
		labels[i] = int(math.Round(y.At(i, 0)))
		if labels[i] < 0 {
			return nil, fmt.Errorf("class index %d at row %d is negative", labels[i], i)
		}
		if labels[i]+1 > k {
			k = labels[i] + 1
		}
	}
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", k)
	}

	if k == 2 {
		return t.fitBinary(x, labels, n, f)
	}
	return t.fitMultinomial(x, labels, n, f, k)
}

func (t *logisticTrainer) fitBinary(x *mat.Dense, labels []int, n, f int) (*Params, error) {
	nb := 0
	if t.hp.FitIntercept {
		nb = 1
	}

	fn := func(theta []float64) float64 {
		loss := 0.0
		for i := 0; i < n; i++ {
			z := rowDot(x, i, theta[:f])
			if nb == 1 {
				z += theta[f]
			}
			loss += log1pExp(z) - float64(labels[i])*z
		}
		for j := 0; j < f; j++ {
			loss += 0.5 / t.hp.C * theta[j] * theta[j]
		}
		return loss
	}

	grad := func(g, theta []float64) {
		for j := range g {
			g[j] = 0
		}
		for i := 0; i < n; i++ {
			z := rowDot(x, i, theta[:f])
			if nb == 1 {
				z += theta[f]
			}
			d := logistic(z) - float64(labels[i])
			for j := 0; j < f; j++ {
				g[j] += x.At(i, j) * d
			}
			if nb == 1 {
				g[f] += d
			}
		}
		for j := 0; j < f; j++ {
			g[j] += theta[j] / t.hp.C
		}
	}

	theta, err := t.minimize(fn, grad, f+nb)
	if err != nil {
		return nil, err
	}

	weights := mat.NewDense(1, f, append([]float64(nil), theta[:f]...))
	intercept := []float64{0}
	if nb == 1 {
		intercept[0] = theta[f]
	}
	return &Params{Weights: weights, Intercept: intercept}, nil
}

func (t *logisticTrainer) fitMultinomial(x *mat.Dense, labels []int, n, f, k int) (*Params, error) {
	nb := 0
	if t.hp.FitIntercept {
		nb = 1
	}
	dim := k*f + nb*k

	scores := make([]float64, k)

	logits := func(theta []float64, i int) {
		for c := 0; c < k; c++ {
			scores[c] = rowDot(x, i, theta[c*f:(c+1)*f])
			if nb == 1 {
				scores[c] += theta[k*f+c]
			}
		}
	}

	fn := func(theta []float64) float64 {
		loss := 0.0
		for i := 0; i < n; i++ {
			logits(theta, i)
			loss += logSumExp(scores) - scores[labels[i]]
		}
		for j := 0; j < k*f; j++ {
			loss += 0.5 / t.hp.C * theta[j] * theta[j]
		}
		return loss
	}

	grad := func(g, theta []float64) {
		for j := range g {
			g[j] = 0
		}
		for i := 0; i < n; i++ {
			logits(theta, i)
			lse := logSumExp(scores)
			for c := 0; c < k; c++ {
				d := math.Exp(scores[c] - lse)
				if c == labels[i] {
					d -= 1
				}
				for j := 0; j < f; j++ {
					g[c*f+j] += x.At(i, j) * d
				}
				if nb == 1 {
					g[k*f+c] += d
				}
			}
		}
		for j := 0; j < k*f; j++ {
			g[j] += theta[j] / t.hp.C
		}
	}

	theta, err := t.minimize(fn, grad, dim)
	if err != nil {
		return nil, err
	}

	weights := mat.NewDense(k, f, append([]float64(nil), theta[:k*f]...))
	intercept := make([]float64, k)
	if nb == 1 {
		copy(intercept, theta[k*f:])
	}
	return &Params{Weights: weights, Intercept: intercept}, nil
}

func (t *logisticTrainer) minimize(fn func([]float64) float64, grad func([]float64, []float64), dim int) ([]float64, error) {
	problem := optimize.Problem{Func: fn, Grad: grad}
	settings := &optimize.Settings{
		MajorIterations:   t.hp.MaxIter,
		GradientThreshold: t.hp.Tol,
	}

	result, err := optimize.Minimize(problem, make([]float64, dim), settings, &optimize.LBFGS{})
	if err != nil && result == nil {
		return nil, fmt.Errorf("logistic solver: %w", err)
	}
	if result == nil || len(result.X) != dim {
		return nil, fmt.Errorf("logistic solver returned no solution")
	}
	// Hitting the iteration limit still yields the best point found, matching
	// the usual solver behavior of returning rather than failing.
	return result.X, nil
}

func rowDot(x *mat.Dense, i int, w []float64) float64 {
	s := 0.0
	for j, wj := range w {
		s += x.At(i, j) * wj
	}
	return s
}

func log1pExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

func logistic(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func logSumExp(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	s := 0.0
	for _, x := range v {
		s += math.Exp(x - m)
	}
	return m + math.Log(s)
}
