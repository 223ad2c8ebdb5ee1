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

package portfolio

import (
	"math"

	"github.com/quantscope/qs-api/dataframe"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/mat"
)

// Point is a portfolio on the risk/return plane
type Point struct {
	Volatility  float64 `json:"volatility"`
	Return      float64 `json:"return"`
	SharpeRatio float64 `json:"sharpeRatio"`
}

// AnnualizationFactor returns the number of sampling periods per year used to
// annualize statistics computed over returns of the given frequency. The
// original analysis scripts applied a fixed 252 factor regardless of the
// sampling interval; set `portfolio.fixed_annualization` to retain that
// behavior for comparison against their output.
func AnnualizationFactor(freq dataframe.Frequency) float64 {
	if viper.GetBool("portfolio.fixed_annualization") {
		return 252
	}
	return freq.TradingPeriods()
}

// Stats computes the annualized return, annualized volatility and Sharpe
// ratio of the portfolio described by weights. meanReturns and cov are the
// per-period mean return vector and sample covariance matrix; periodsPerYear
// is the annualization factor for the sampling frequency.
//
// Pure function. When volatility is exactly zero the Sharpe ratio is defined
// as zero rather than dividing by zero.
func Stats(weights []float64, meanReturns []float64, cov *mat.SymDense, riskFreeRate float64, periodsPerYear float64) Point {
	w := mat.NewVecDense(len(weights), weights)
	mu := mat.NewVecDense(len(meanReturns), meanReturns)

	annualReturn := mat.Dot(w, mu) * periodsPerYear

	var sigmaW mat.VecDense
	sigmaW.MulVec(cov, w)
	variance := mat.Dot(w, &sigmaW)
	annualVolatility := math.Sqrt(math.Max(variance, 0)) * math.Sqrt(periodsPerYear)

	sharpe := 0.0
	if annualVolatility > 0 {
		sharpe = (annualReturn - riskFreeRate) / annualVolatility
	}

	return Point{
		Volatility:  annualVolatility,
		Return:      annualReturn,
		SharpeRatio: sharpe,
	}
}
