package models

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// leastSquares solves min ||X b - y|| through the normal equations
// (X'X) b = X'y using a Cholesky factorisation. It returns
// ErrSingularMatrix when X'X is not positive definite.
func leastSquares(rows, cols int, design, target []float64) ([]float64, error) {
	X := mat.NewDense(rows, cols, design)
	y := mat.NewVecDense(rows, target)

	var xtx mat.SymDense
	xtx.SymOuterK(1, X.T())

	var xty mat.VecDense
	xty.MulVec(X.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, ErrSingularMatrix
	}

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, ErrSingularMatrix
	}

	out := make([]float64, cols)
	for i := range out {
		out[i] = beta.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, ErrSingularMatrix
		}
	}
	return out, nil
}

// autocovariance returns the biased sample autocovariances of a zero-mean
// series for lags 0..maxLag.
func autocovariance(y []float64, maxLag int) []float64 {
	n := len(y)
	acov := make([]float64, maxLag+1)
	for k := 0; k <= maxLag && k < n; k++ {
		var s float64
		for t := k; t < n; t++ {
			s += y[t] * y[t-k]
		}
		acov[k] = s / float64(n)
	}
	return acov
}

// yuleWalker estimates AR(p) coefficients from autocovariances with the
// Levinson-Durbin recursion. The estimate is always causal.
func yuleWalker(acov []float64, p int) ([]float64, error) {
	if p == 0 {
		return []float64{}, nil
	}
	if acov[0] <= 0 {
		return nil, ErrSingularMatrix
	}

	phi := make([]float64, p)
	prev := make([]float64, p)
	v := acov[0]

	for k := 1; k <= p; k++ {
		num := acov[k]
		for j := 1; j < k; j++ {
			num -= prev[j-1] * acov[k-j]
		}
		if v <= 0 {
			return nil, ErrSingularMatrix
		}
		reflection := num / v

		phi[k-1] = reflection
		for j := 1; j < k; j++ {
			phi[j-1] = prev[j-1] - reflection*prev[k-j-1]
		}

		v *= 1 - reflection*reflection
		copy(prev, phi)
	}

	return phi, nil
}
