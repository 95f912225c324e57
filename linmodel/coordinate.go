package linmodel

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// coordinateTrainer runs cyclic coordinate descent on the elastic-net
// objective
//
//	(1/2n) ||y - Xw||^2 + alpha*l1*||w||_1 + (alpha*(1-l1)/2) ||w||^2
//
// which covers lasso at l1 == 1. Targets are fitted independently.
type coordinateTrainer struct {
	hp Hyperparams
}

func (t *coordinateTrainer) Fit(x, y *mat.Dense) (*Params, error) {
	xc, yc, xMean, yMean := center(x, y, t.hp.FitIntercept)
	n, f := xc.Dims()
	_, targets := yc.Dims()

	// Per-feature squared norms are loop invariants.
	sqNorm := make([]float64, f)
	for j := 0; j < f; j++ {
		var s float64
		for i := 0; i < n; i++ {
			v := xc.At(i, j)
			s += v * v
		}
		sqNorm[j] = s / float64(n)
	}

	l1 := t.hp.Alpha * t.hp.L1Ratio
	l2 := t.hp.Alpha * (1 - t.hp.L1Ratio)

	w := mat.NewDense(f, targets, nil)
	for target := 0; target < targets; target++ {
		wt := make([]float64, f)
		r := mat.Col(nil, target, yc) // residual: y - Xw, with w = 0

		for iter := 0; iter < t.hp.MaxIter; iter++ {
			var maxDelta float64
			for j := 0; j < f; j++ {
				if sqNorm[j] == 0 {
					continue
				}

				// rho is the correlation of feature j with the residual,
				// with feature j's own contribution added back.
				var rho float64
				for i := 0; i < n; i++ {
					rho += xc.At(i, j) * r[i]
				}
				rho = rho/float64(n) + sqNorm[j]*wt[j]

				next := softThreshold(rho, l1) / (sqNorm[j] + l2)
				if t.hp.Positive && next < 0 {
					next = 0
				}

				if delta := next - wt[j]; delta != 0 {
					for i := 0; i < n; i++ {
						r[i] -= xc.At(i, j) * delta
					}
					if ad := math.Abs(delta); ad > maxDelta {
						maxDelta = ad
					}
					wt[j] = next
				}
			}
			if maxDelta < t.hp.Tol {
				break
			}
		}

		for j := 0; j < f; j++ {
			w.Set(j, target, wt[j])
		}
	}

	return paramsFromSolution(w, xMean, yMean), nil
}

func softThreshold(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	default:
		return 0
	}
}
