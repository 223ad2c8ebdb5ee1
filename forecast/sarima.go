// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// variance floor keeps the likelihood finite when a model fits the training
// data exactly and guarantees strictly separated confidence bounds
const minVariance = 1e-10

// objective value returned for parameter vectors that drive the residual
// recursion out of floating point range
const unstableObjective = 1e100

// Model is a seasonal autoregressive integrated moving-average model with
// optional exogenous regressors, estimated by conditional sum of squares.
// Seasonal polynomials are expanded into ordinary lag polynomials, the series
// is differenced d regular and D seasonal times, and the ARMA parameters,
// intercept and regression coefficients are found by minimizing the sum of
// squared one-step residuals.
type Model struct {
	Order    Order
	Seasonal SeasonalOrder

	ar        []float64 // expanded autoregressive lag coefficients
	ma        []float64 // expanded moving-average lag coefficients
	intercept float64
	beta      []float64

	sigma2  float64
	logLike float64
	aic     float64

	w      []float64 // differenced series net of intercept and regressors
	resid  []float64
	stages []diffStage
}

// diffStage records the series as it stood before one round of differencing
// so forecasts can be integrated back to the original scale
type diffStage struct {
	lag    int
	series []float64
}

// Fit estimates a SARIMA model on y. exog is column-major with each column
// the same length as y; pass nil for a univariate model. Returns an error
// wrapping ErrFitFailure when the series is too short for the requested
// order or the estimation is numerically unstable.
func Fit(y []float64, exog [][]float64, order Order, seasonal SeasonalOrder) (*Model, error) {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return nil, fmt.Errorf("%w: negative order %s", ErrFitFailure, order)
	}
	if seasonal.Period == 0 {
		seasonal = SeasonalOrder{}
	}

	for _, col := range exog {
		if len(col) != len(y) {
			return nil, fmt.Errorf("%w: exogenous column length %d does not match series length %d", ErrFitFailure, len(col), len(y))
		}
	}

	// difference the target; remember each stage for integration later
	z := make([]float64, len(y))
	copy(z, y)
	stages := []diffStage{}
	for ii := 0; ii < order.D; ii++ {
		stages = append(stages, diffStage{lag: 1, series: z})
		z = difference(z, 1)
	}
	for ii := 0; ii < seasonal.D; ii++ {
		stages = append(stages, diffStage{lag: seasonal.Period, series: z})
		z = difference(z, seasonal.Period)
	}

	// align regressors with the differenced series by dropping the rows
	// consumed by differencing
	lost := len(y) - len(z)
	x := make([][]float64, len(exog))
	for ii, col := range exog {
		x[ii] = col[lost:]
	}

	nParams := order.P + order.Q + seasonal.P + seasonal.Q + 1 + len(x)
	maxLag := maxInt(order.P+seasonal.P*seasonal.Period, order.Q+seasonal.Q*seasonal.Period)
	if len(z) <= nParams+maxLag {
		return nil, fmt.Errorf("%w: %d observations after differencing cannot support order %s%s", ErrFitFailure, len(z), order, seasonal)
	}

	model := &Model{
		Order:    order,
		Seasonal: seasonal,
		stages:   stages,
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			sse, _, _ := cssResiduals(z, x, params, order, seasonal)
			return sse
		},
	}

	initial := make([]float64, nParams)
	for ii := 0; ii < order.P+order.Q+seasonal.P+seasonal.Q; ii++ {
		initial[ii] = 0.1
	}
	// seed the intercept with the mean of the differenced series
	initial[order.P+order.Q+seasonal.P+seasonal.Q] = floats.Sum(z) / float64(len(z))

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFitFailure, err)
	}
	if result.F >= unstableObjective {
		return nil, fmt.Errorf("%w: estimation numerically unstable for order %s%s", ErrFitFailure, order, seasonal)
	}

	sse, w, resid := cssResiduals(z, x, result.X, order, seasonal)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return nil, fmt.Errorf("%w: residuals diverged for order %s%s", ErrFitFailure, order, seasonal)
	}

	phi, theta, sphi, stheta, c, beta := splitParams(result.X, order, seasonal)
	model.ar = expandSeasonal(phi, sphi, seasonal.Period, -1)
	model.ma = expandSeasonal(theta, stheta, seasonal.Period, 1)
	model.intercept = c
	model.beta = beta
	model.w = w
	model.resid = resid

	n := float64(len(z))
	model.sigma2 = math.Max(sse/n, minVariance)
	model.logLike = -0.5 * n * (math.Log(2*math.Pi*model.sigma2) + 1)
	model.aic = -2*model.logLike + 2*float64(nParams+1)

	return model, nil
}

// AIC returns the Akaike Information Criterion of the fitted model;
// lower is better
func (m *Model) AIC() float64 {
	return m.aic
}

// LogLikelihood returns the Gaussian log-likelihood at the CSS optimum
func (m *Model) LogLikelihood() float64 {
	return m.logLike
}

// Forecast produces an h-step-ahead forecast with 95% confidence bounds.
// futureExog must supply h values per regression column when the model was
// fit with exogenous regressors.
func (m *Model) Forecast(h int, futureExog [][]float64) (mean, lower, upper []float64, err error) {
	if h < 1 {
		return nil, nil, nil, ErrInvalidHorizon
	}

	if len(m.beta) > 0 {
		if len(futureExog) != len(m.beta) {
			return nil, nil, nil, fmt.Errorf("%w: model has %d regressors but %d future columns were supplied", ErrFitFailure, len(m.beta), len(futureExog))
		}
		for _, col := range futureExog {
			if len(col) < h {
				return nil, nil, nil, fmt.Errorf("%w: future regressor values shorter than horizon", ErrFitFailure)
			}
		}
	}

	// recursive forecast on the differenced, mean-adjusted scale; future
	// shocks are zero, past shocks come from the fit residuals
	n := len(m.w)
	wAll := make([]float64, n, n+h)
	copy(wAll, m.w)

	zf := make([]float64, h)
	for jj := 0; jj < h; jj++ {
		t := n + jj
		var next float64
		for ii, coef := range m.ar {
			idx := t - ii - 1
			if idx >= 0 {
				next += coef * wAll[idx]
			}
		}
		for ii, coef := range m.ma {
			idx := t - ii - 1
			if idx >= 0 && idx < n {
				next += coef * m.resid[idx]
			}
		}

		wAll = append(wAll, next)

		zf[jj] = next + m.intercept
		for ii, b := range m.beta {
			zf[jj] += b * futureExog[ii][jj]
		}
	}

	// integrate back through the differencing stages in reverse order
	mean = zf
	for ii := len(m.stages) - 1; ii >= 0; ii-- {
		mean = integrate(mean, m.stages[ii])
	}

	// forecast error variance from the psi weights of the full integrated
	// process
	psi := m.psiWeights(h)
	z975 := distuv.UnitNormal.Quantile(0.975)

	lower = make([]float64, h)
	upper = make([]float64, h)
	cumVar := 0.0
	for jj := 0; jj < h; jj++ {
		cumVar += psi[jj] * psi[jj]
		se := math.Sqrt(m.sigma2 * cumVar)
		lower[jj] = mean[jj] - z975*se
		upper[jj] = mean[jj] + z975*se
	}

	return mean, lower, upper, nil
}

// psiWeights computes the first h weights of the MA(∞) representation of the
// integrated process; psi[0] is always 1
func (m *Model) psiWeights(h int) []float64 {
	// phi*(B) = phi(B) (1-B)^d (1-B^s)^D
	arPoly := lagPolynomial(m.ar, -1)
	for ii := 0; ii < m.Order.D; ii++ {
		arPoly = polyMul(arPoly, []float64{1, -1})
	}
	for ii := 0; ii < m.Seasonal.D; ii++ {
		seasonalDiff := make([]float64, m.Seasonal.Period+1)
		seasonalDiff[0] = 1
		seasonalDiff[m.Seasonal.Period] = -1
		arPoly = polyMul(arPoly, seasonalDiff)
	}

	phiStar := make([]float64, len(arPoly)-1)
	for ii := 1; ii < len(arPoly); ii++ {
		phiStar[ii-1] = -arPoly[ii]
	}

	maPoly := lagPolynomial(m.ma, 1)

	psi := make([]float64, h)
	psi[0] = 1
	for jj := 1; jj < h; jj++ {
		if jj < len(maPoly) {
			psi[jj] = maPoly[jj]
		}
		for ii := 1; ii <= jj && ii <= len(phiStar); ii++ {
			psi[jj] += phiStar[ii-1] * psi[jj-ii]
		}
	}

	return psi
}

// cssResiduals runs the conditional sum of squares recursion. Returns the
// objective along with the mean-adjusted series and the residuals evaluated
// at params.
func cssResiduals(z []float64, x [][]float64, params []float64, order Order, seasonal SeasonalOrder) (float64, []float64, []float64) {
	phi, theta, sphi, stheta, c, beta := splitParams(params, order, seasonal)
	ar := expandSeasonal(phi, sphi, seasonal.Period, -1)
	ma := expandSeasonal(theta, stheta, seasonal.Period, 1)

	n := len(z)
	w := make([]float64, n)
	for tt := 0; tt < n; tt++ {
		w[tt] = z[tt] - c
		for ii, col := range x {
			w[tt] -= beta[ii] * col[tt]
		}
	}

	resid := make([]float64, n)
	sse := 0.0
	for tt := 0; tt < n; tt++ {
		e := w[tt]
		for ii, coef := range ar {
			idx := tt - ii - 1
			if idx >= 0 {
				e -= coef * w[idx]
			}
		}
		for ii, coef := range ma {
			idx := tt - ii - 1
			if idx >= 0 {
				e -= coef * resid[idx]
			}
		}

		if math.IsNaN(e) || math.IsInf(e, 0) {
			return unstableObjective, w, resid
		}

		resid[tt] = e
		sse += e * e
		if sse >= unstableObjective {
			return unstableObjective, w, resid
		}
	}

	return sse, w, resid
}

func splitParams(params []float64, order Order, seasonal SeasonalOrder) (phi, theta, sphi, stheta []float64, c float64, beta []float64) {
	idx := 0
	phi = params[idx : idx+order.P]
	idx += order.P
	theta = params[idx : idx+order.Q]
	idx += order.Q
	sphi = params[idx : idx+seasonal.P]
	idx += seasonal.P
	stheta = params[idx : idx+seasonal.Q]
	idx += seasonal.Q
	c = params[idx]
	idx++
	beta = params[idx:]
	return
}

// expandSeasonal multiplies a regular lag polynomial by its seasonal
// counterpart and returns the combined lag coefficients. sign is -1 for AR
// polynomials of the form (1 - a_1 B - ...) and +1 for MA polynomials of the
// form (1 + b_1 B + ...).
func expandSeasonal(reg []float64, seas []float64, period int, sign float64) []float64 {
	regPoly := lagPolynomial(reg, sign)
	seasPoly := []float64{1}
	for ii, coef := range seas {
		lag := (ii + 1) * period
		for len(seasPoly) <= lag {
			seasPoly = append(seasPoly, 0)
		}
		seasPoly[lag] = sign * coef
	}

	combined := polyMul(regPoly, seasPoly)
	coefs := make([]float64, len(combined)-1)
	for ii := 1; ii < len(combined); ii++ {
		coefs[ii-1] = sign * combined[ii]
	}
	return coefs
}

// lagPolynomial converts lag coefficients to polynomial form
// 1 + sign*c_1 B + sign*c_2 B^2 + ...
func lagPolynomial(coefs []float64, sign float64) []float64 {
	poly := make([]float64, len(coefs)+1)
	poly[0] = 1
	for ii, coef := range coefs {
		poly[ii+1] = sign * coef
	}
	return poly
}

func polyMul(a, b []float64) []float64 {
	res := make([]float64, len(a)+len(b)-1)
	for ii, av := range a {
		for jj, bv := range b {
			res[ii+jj] += av * bv
		}
	}
	return res
}

func difference(x []float64, lag int) []float64 {
	if len(x) <= lag {
		return []float64{}
	}
	res := make([]float64, len(x)-lag)
	for ii := lag; ii < len(x); ii++ {
		res[ii-lag] = x[ii] - x[ii-lag]
	}
	return res
}

// integrate reverses one round of differencing for a block of future values
func integrate(forecasts []float64, stage diffStage) []float64 {
	res := make([]float64, len(forecasts))
	for ii := range forecasts {
		prevIdx := ii - stage.lag
		var prev float64
		if prevIdx >= 0 {
			prev = res[prevIdx]
		} else {
			prev = stage.series[len(stage.series)+prevIdx]
		}
		res[ii] = forecasts[ii] + prev
	}
	return res
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
