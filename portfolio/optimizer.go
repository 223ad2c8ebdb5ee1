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
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

var (
	ErrOptimizationFailed = errors.New("optimization failed")
)

// sum-to-one violations are penalized quadratically; the weight is large
// relative to any attainable Sharpe ratio
const sumPenalty = 1000.0

// MaxSharpe finds the fully-invested long-only weight vector maximizing the
// Sharpe ratio. Weights are constrained to [0,1] and sum to 1; the search is
// seeded from the equal-weight portfolio. The negative Sharpe ratio is
// minimized with a penalty on the sum-to-one constraint, first with
// Nelder-Mead and, if that fails to converge, BFGS.
//
// Returns ErrOptimizationFailed with the solver diagnostic when neither
// method converges. There is no retry with different seeds.
func MaxSharpe(meanReturns []float64, cov *mat.SymDense, riskFreeRate float64, periodsPerYear float64) ([]float64, error) {
	n := len(meanReturns)
	if n == 0 {
		return nil, fmt.Errorf("%w: no assets", ErrOptimizationFailed)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToUnitBox(x)

			point := Stats(xProj, meanReturns, cov, riskFreeRate, periodsPerYear)

			sum := 0.0
			for _, w := range xProj {
				sum += w
			}

			obj := -point.SharpeRatio
			obj += sumPenalty * (sum - 1.0) * (sum - 1.0)
			return obj
		},
	}

	initial := make([]float64, n)
	for ii := range initial {
		initial[ii] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
	if err != nil || !converged(result.Status) {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrOptimizationFailed, err)
		}
		if !converged(result.Status) {
			return nil, fmt.Errorf("%w: status=%v", ErrOptimizationFailed, result.Status)
		}
	}

	weights := projectToUnitBox(result.X)
	normalize(weights)
	return weights, nil
}

// RandomPortfolios draws count weight vectors uniformly over the simplex and
// computes the risk/return point of each. Used to visualize the feasible
// region around the efficient frontier. Sampling is unseeded and not
// reproducible across runs.
func RandomPortfolios(meanReturns []float64, cov *mat.SymDense, riskFreeRate float64, periodsPerYear float64, count int) []Point {
	if count <= 0 {
		count = 5000
	}

	n := len(meanReturns)
	points := make([]Point, count)
	weights := make([]float64, n)

	for ii := 0; ii < count; ii++ {
		for jj := range weights {
			weights[jj] = rand.Float64()
		}
		normalize(weights)
		points[ii] = Stats(weights, meanReturns, cov, riskFreeRate, periodsPerYear)
	}

	return points
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.FunctionThreshold:
		return true
	default:
		return false
	}
}

func projectToUnitBox(x []float64) []float64 {
	proj := make([]float64, len(x))
	for ii := range x {
		proj[ii] = math.Max(0, math.Min(1, x[ii]))
	}
	return proj
}

func normalize(weights []float64) {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return
	}
	for ii := range weights {
		weights[ii] /= sum
	}
}
