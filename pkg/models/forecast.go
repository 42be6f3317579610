package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/HatiCode/finplan/pkg/series"
)

// ForecastPoint is the prediction for one step beyond the observed data.
type ForecastPoint struct {
	Step  int     `json:"step"`
	Mean  float64 `json:"mean"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Forecast is a horizon of point predictions with symmetric bounds at the
// given confidence level.
type Forecast struct {
	Confidence float64         `json:"confidence"`
	Points     []ForecastPoint `json:"points"`
}

// Means returns the point predictions in step order.
func (f Forecast) Means() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Mean
	}
	return out
}

// Total is the sum of the point predictions.
func (f Forecast) Total() float64 {
	var sum float64
	for _, p := range f.Points {
		sum += p.Mean
	}
	return sum
}

// Forecast predicts horizon steps past the end of the fitted data. Future
// innovations are taken as zero; bounds are mean ± z·sqrt(var(h)) where
// var(h) = σ²·Σψ_j² over the first h ψ-weights of the integrated model.
func (m *FittedModel) Forecast(horizon int, confidence float64) (Forecast, error) {
	if horizon <= 0 {
		return Forecast{}, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}
	if !(confidence > 0 && confidence < 1) {
		return Forecast{}, fmt.Errorf("%w: got %v", ErrInvalidConfidence, confidence)
	}

	n := len(m.stationary)
	y := make([]float64, n+horizon)
	copy(y, m.stationary)
	e := make([]float64, n+horizon)
	copy(e, m.residuals)

	future := make([]float64, horizon)
	for h := range horizon {
		t := n + h
		pred := 0.0
		for i, phi := range m.ar {
			pred += phi * y[t-1-i]
		}
		for j, theta := range m.ma {
			pred += theta * e[t-1-j]
		}
		y[t] = pred
		future[h] = pred + m.intercept
	}

	means := series.Undifference(future, m.tails)
	psi := m.psiWeights(horizon)
	z := zScore(confidence)

	out := Forecast{Confidence: confidence, Points: make([]ForecastPoint, horizon)}
	var cumulative float64
	for h := range horizon {
		cumulative += psi[h] * psi[h]
		half := z * math.Sqrt(m.sigma2*cumulative)
		out.Points[h] = ForecastPoint{
			Step:  h + 1,
			Mean:  means[h],
			Lower: means[h] - half,
			Upper: means[h] + half,
		}
	}
	return out, nil
}

// psiWeights returns ψ_0..ψ_{count-1} of the MA(∞) form of
// φ(B)(1-B)^d x_t = θ(B) e_t.
func (m *FittedModel) psiWeights(count int) []float64 {
	// c(B) = φ(B)·(1-B)^d with c_0 = 1
	c := make([]float64, len(m.ar)+1)
	c[0] = 1
	for i, phi := range m.ar {
		c[i+1] = -phi
	}
	for range m.order.D {
		next := make([]float64, len(c)+1)
		for i, v := range c {
			next[i] += v
			next[i+1] -= v
		}
		c = next
	}

	psi := make([]float64, count)
	psi[0] = 1
	for j := 1; j < count; j++ {
		var v float64
		if j <= len(m.ma) {
			v = m.ma[j-1]
		}
		for i := 1; i < len(c) && i <= j; i++ {
			v -= c[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

// zScore is the two-sided standard normal critical value for a confidence
// level, e.g. 1.95996 for 0.95.
func zScore(confidence float64) float64 {
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
}
