package linmodel

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ridgeTrainer solves the L2-penalized normal equations
// (X'X + alpha*I) w = X'y with a Cholesky factorization.
type ridgeTrainer struct {
	hp Hyperparams
}

func (t *ridgeTrainer) Fit(x, y *mat.Dense) (*Params, error) {
	xc, yc, xMean, yMean := center(x, y, t.hp.FitIntercept)
	_, f := xc.Dims()

	gram := mat.NewDense(f, f, nil)
	gram.Mul(xc.T(), xc)

	sym := mat.NewSymDense(f, nil)
	for i := 0; i < f; i++ {
		for j := i; j < f; j++ {
			v := gram.At(i, j)
			if i == j {
				v += t.hp.Alpha
			}
			sym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, errors.New("ridge: normal equations are not positive definite")
	}

	_, targets := yc.Dims()
	rhs := mat.NewDense(f, targets, nil)
	rhs.Mul(xc.T(), yc)

	var w mat.Dense
	if err := chol.SolveTo(&w, rhs); err != nil {
		return nil, err
	}

	return paramsFromSolution(&w, xMean, yMean), nil
}
