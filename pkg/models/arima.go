// Package models fits ARIMA(p,d,q) models to a single univariate series,
// selects orders by AIC and produces forecasts with normal-theory bounds.
package models

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/HatiCode/finplan/pkg/series"
)

// minVariance floors the residual variance when scoring so that a perfect
// fit does not produce an infinite AIC.
const minVariance = 1e-12

// FittedModel is an estimated ARIMA model. It is immutable once returned
// by Fit and safe for concurrent use; accessors return copies.
type FittedModel struct {
	order     Order
	ar        []float64
	ma        []float64
	intercept float64
	sigma2    float64
	aic       float64
	nobs      int

	values     []float64 // original scale, as passed to Fit
	stationary []float64 // differenced and centred
	residuals  []float64 // aligned with stationary; zero before start
	start      int       // first residual index used for estimation
	tails      []float64
}

// Fit estimates an ARIMA model of the given order on values.
//
// The series is differenced d times. When d = 0 the mean of the series is
// estimated as the intercept; with d > 0 the model carries no drift. Pure AR
// coefficients come from ordinary least squares. When q > 0 the
// Hannan-Rissanen procedure is used: a long autoregression provides residual
// estimates which then enter a second regression as MA regressors.
//
// Errors are *FitError values wrapping ErrFit and a specific sentinel.
func Fit(values []float64, order Order) (*FittedModel, error) {
	if err := order.Validate(-1, -1, -1); err != nil {
		return nil, &FitError{Order: order, Err: err}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fitErr(order, "%w: value at %d is not finite", ErrInsufficientData, i)
		}
	}

	w := series.Difference(values, order.D)
	n := len(w)
	if n <= order.P+order.Q || n == 0 {
		return nil, fitErr(order, "%w: %d differenced values for p+q=%d",
			ErrInsufficientData, n, order.P+order.Q)
	}

	var intercept float64
	if order.D == 0 {
		intercept = stat.Mean(w, nil)
	}
	y := make([]float64, n)
	for i, v := range w {
		y[i] = v - intercept
	}

	var (
		ar, ma []float64
		err    error
	)
	switch {
	case order.Q == 0 && order.P == 0:
		ar, ma = []float64{}, []float64{}
	case order.Q == 0:
		ar, err = fitAR(y, order.P)
		ma = []float64{}
	default:
		ar, ma, err = hannanRissanen(y, order.P, order.Q)
	}
	if err != nil {
		return nil, &FitError{Order: order, Err: err}
	}

	start := max(order.P, order.Q)
	residuals, err := recursiveResiduals(y, ar, ma, start)
	if err != nil {
		return nil, &FitError{Order: order, Err: err}
	}

	nobs := n - start
	var ss float64
	for _, e := range residuals[start:] {
		ss += e * e
	}
	sigma2 := ss / float64(nobs)
	if math.IsNaN(sigma2) || math.IsInf(sigma2, 0) {
		return nil, fitErr(order, "%w: residual variance is not finite", ErrNonConvergent)
	}

	k := order.P + order.Q + 1
	aic := float64(nobs)*math.Log(math.Max(sigma2, minVariance)) + 2*float64(k)

	return &FittedModel{
		order:      order,
		ar:         ar,
		ma:         ma,
		intercept:  intercept,
		sigma2:     sigma2,
		aic:        aic,
		nobs:       nobs,
		values:     clone(values),
		stationary: y,
		residuals:  residuals,
		start:      start,
		tails:      series.Tails(values, order.D),
	}, nil
}

// Order returns the fitted order.
func (m *FittedModel) Order() Order { return m.order }

// AR returns a copy of the autoregressive coefficients φ1..φp.
func (m *FittedModel) AR() []float64 { return clone(m.ar) }

// MA returns a copy of the moving-average coefficients θ1..θq.
func (m *FittedModel) MA() []float64 { return clone(m.ma) }

// Intercept is the mean of the series when d = 0 and zero otherwise.
func (m *FittedModel) Intercept() float64 { return m.intercept }

// Sigma2 is the residual variance.
func (m *FittedModel) Sigma2() float64 { return m.sigma2 }

// AIC is n·ln(σ²) + 2(p+q+1) with n the number of residuals used.
func (m *FittedModel) AIC() float64 { return m.aic }

// NObs is the number of residuals the variance and AIC were computed from.
func (m *FittedModel) NObs() int { return m.nobs }

// Residuals returns the in-sample residuals used for estimation.
func (m *FittedModel) Residuals() []float64 { return clone(m.residuals[m.start:]) }

// FittedValues returns one-step-ahead in-sample predictions on the original
// scale, aligned with the values passed to Fit. Positions without a
// prediction (the first d+max(p,q)) are NaN.
func (m *FittedModel) FittedValues() []float64 {
	out := make([]float64, len(m.values))
	d := m.order.D
	for i := range out {
		t := i - d
		if t < m.start {
			out[i] = math.NaN()
			continue
		}
		// x_i minus its d-th difference depends only on the past, so the
		// prediction on the original scale shifts by the same amount.
		predicted := m.stationary[t] - m.residuals[t]
		out[i] = m.values[i] - m.stationary[t] + predicted
	}
	return out
}

// fitAR regresses y_t on y_{t-1..t-p}.
func fitAR(y []float64, p int) ([]float64, error) {
	rows := len(y) - p
	if rows <= p {
		return nil, ErrInsufficientData
	}

	design := make([]float64, 0, rows*p)
	target := make([]float64, 0, rows)
	for t := p; t < len(y); t++ {
		for i := 1; i <= p; i++ {
			design = append(design, y[t-i])
		}
		target = append(target, y[t])
	}
	return leastSquares(rows, p, design, target)
}

// longAROrder picks the order of the first-stage autoregression and
// shrinks it until both regressions have more rows than parameters.
func longAROrder(n, p, q int) (int, bool) {
	m := max(p+q, int(math.Ceil(math.Log(float64(n))))+1)
	floor := max(q, 1)
	for ; m >= floor; m-- {
		longRows := n - m
		secondRows := n - max(p, m+q)
		if longRows > m && secondRows > p+q {
			return m, true
		}
	}
	return 0, false
}

// hannanRissanen estimates an ARMA(p,q) on a zero-mean series.
func hannanRissanen(y []float64, p, q int) ([]float64, []float64, error) {
	n := len(y)
	m, ok := longAROrder(n, p, q)
	if !ok {
		return nil, nil, ErrInsufficientData
	}

	long, err := fitAR(y, m)
	if err != nil {
		// Yule-Walker always yields a causal AR and only fails on a
		// constant series.
		long, err = yuleWalker(autocovariance(y, m), m)
		if err != nil {
			return nil, nil, err
		}
	}

	innovations := make([]float64, n)
	for t := m; t < n; t++ {
		pred := 0.0
		for i, phi := range long {
			pred += phi * y[t-1-i]
		}
		innovations[t] = y[t] - pred
	}

	first := max(p, m+q)
	rows := n - first
	cols := p + q
	design := make([]float64, 0, rows*cols)
	target := make([]float64, 0, rows)
	for t := first; t < n; t++ {
		for i := 1; i <= p; i++ {
			design = append(design, y[t-i])
		}
		for j := 1; j <= q; j++ {
			design = append(design, innovations[t-j])
		}
		target = append(target, y[t])
	}

	beta, err := leastSquares(rows, cols, design, target)
	if err != nil {
		return nil, nil, err
	}
	return beta[:p], beta[p:], nil
}

// recursiveResiduals computes e_t = y_t - Σφ_i y_{t-i} - Σθ_j e_{t-j} from
// start onwards with pre-sample residuals set to zero.
func recursiveResiduals(y, ar, ma []float64, start int) ([]float64, error) {
	e := make([]float64, len(y))
	for t := start; t < len(y); t++ {
		pred := 0.0
		for i, phi := range ar {
			pred += phi * y[t-1-i]
		}
		for j, theta := range ma {
			pred += theta * e[t-1-j]
		}
		e[t] = y[t] - pred
		if math.IsNaN(e[t]) || math.IsInf(e[t], 0) {
			return nil, ErrNonConvergent
		}
	}
	return e, nil
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
