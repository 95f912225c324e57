package linmodel

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// olsTrainer solves ordinary least squares via thin SVD, taking the
// minimum-norm solution when the system is rank deficient. With Positive set
// it runs the Lawson-Hanson active-set method so all weights stay
// non-negative.
type olsTrainer struct {
	hp Hyperparams
}

func (t *olsTrainer) Fit(x, y *mat.Dense) (*Params, error) {
	xc, yc, xMean, yMean := center(x, y, t.hp.FitIntercept)
	_, f := xc.Dims()
	_, targets := yc.Dims()

	var w *mat.Dense

	if t.hp.Positive {
		w = mat.NewDense(f, targets, nil)
		for j := 0; j < targets; j++ {
			yj := mat.Col(nil, j, yc)
			wj, err := nnls(xc, yj)
			if err != nil {
				return nil, fmt.Errorf("non-negative least squares: %w", err)
			}
			for k := 0; k < f; k++ {
				w.Set(k, j, wj[k])
			}
		}
	} else {
		var err error
		w, err = minNormSolve(xc, yc)
		if err != nil {
			return nil, fmt.Errorf("least squares: %w", err)
		}
	}

	return paramsFromSolution(w, xMean, yMean), nil
}

// minNormSolve computes the least squares solution w of a*w = b through the
// pseudo-inverse, so rank-deficient systems (fewer independent samples than
// features, collinear columns) yield the minimum-norm solution instead of
// failing.
func minNormSolve(a, b *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, errors.New("svd did not converge")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	rows, f := a.Dims()
	_, targets := b.Dims()
	k := len(s)

	// Same cutoff numpy's lstsq applies: singular values below
	// max(rows, f) * eps * s_max count as zero.
	const eps = 2.220446049250313e-16
	tol := float64(max(rows, f)) * eps * s[0]

	w := mat.NewDense(f, targets, nil)
	c := make([]float64, k)
	for t := 0; t < targets; t++ {
		for i := 0; i < k; i++ {
			c[i] = 0
			if s[i] > tol {
				var dot float64
				for r := 0; r < rows; r++ {
					dot += u.At(r, i) * b.At(r, t)
				}
				c[i] = dot / s[i]
			}
		}
		for j := 0; j < f; j++ {
			var dot float64
			for i := 0; i < k; i++ {
				dot += v.At(j, i) * c[i]
			}
			w.Set(j, t, dot)
		}
	}

	return w, nil
}

// nnls solves min ||Ax - b|| subject to x >= 0 with the Lawson-Hanson
// active-set method. A is samples x features, b has one entry per sample.
func nnls(a *mat.Dense, b []float64) ([]float64, error) {
	_, f := a.Dims()

	x := make([]float64, f)
	passive := make([]bool, f)

	resid := residual(a, b, x)
	grad := make([]float64, f)

	// Outer loop: move the most promising zero weight into the passive set.
	for iter := 0; iter < 3*f+30; iter++ {
		mulTransVec(grad, a, resid)

		best, bestVal := -1, 0.0
		for j := 0; j < f; j++ {
			if !passive[j] && grad[j] > bestVal+1e-12 {
				best, bestVal = j, grad[j]
			}
		}
		if best < 0 {
			return x, nil
		}
		passive[best] = true

		// Inner loop: solve the unconstrained subproblem on the passive set
		// and walk back any weight that went negative.
		for {
			z, err := solvePassive(a, b, passive)
			if err != nil {
				return nil, err
			}

			minAlpha, feasible := 1.0, true
			for j := 0; j < f; j++ {
				if passive[j] && z[j] <= 0 {
					feasible = false
					alpha := x[j] / (x[j] - z[j])
					if alpha < minAlpha {
						minAlpha = alpha
					}
				}
			}

			if feasible {
				copy(x, z)
				break
			}

			for j := 0; j < f; j++ {
				if passive[j] {
					x[j] += minAlpha * (z[j] - x[j])
					if x[j] <= 1e-12 {
						x[j] = 0
						passive[j] = false
					}
				}
			}
		}

		resid = residual(a, b, x)
	}
	return x, nil
}

// solvePassive solves least squares restricted to the passive columns.
func solvePassive(a *mat.Dense, b []float64, passive []bool) ([]float64, error) {
	n, f := a.Dims()

	var cols []int
	for j, p := range passive {
		if p {
			cols = append(cols, j)
		}
	}

	sub := mat.NewDense(n, len(cols), nil)
	for i := 0; i < n; i++ {
		for k, j := range cols {
			sub.Set(i, k, a.At(i, j))
		}
	}

	var sol mat.Dense
	if err := sol.Solve(sub, mat.NewDense(n, 1, append([]float64(nil), b...))); err != nil {
		return nil, err
	}

	z := make([]float64, f)
	for k, j := range cols {
		z[j] = sol.At(k, 0)
	}
	return z, nil
}

func residual(a *mat.Dense, b []float64, x []float64) []float64 {
	n, f := a.Dims()
	r := make([]float64, n)
	for i := 0; i < n; i++ {
		s := b[i]
		for j := 0; j < f; j++ {
			s -= a.At(i, j) * x[j]
		}
		r[i] = s
	}
	return r
}

func mulTransVec(dst []float64, a *mat.Dense, v []float64) {
	n, f := a.Dims()
	for j := 0; j < f; j++ {
		s := 0.0
		for i := 0; i < n; i++ {
			s += a.At(i, j) * v[i]
		}
		dst[j] = s
	}
}
