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

package portfolio_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/quantscope/qs-api/portfolio"
	"gonum.org/v1/gonum/mat"
)

var _ = Describe("Stats", func() {
	Context("with a single zero-variance asset", func() {
		It("defines the sharpe ratio as zero", func() {
			cov := mat.NewSymDense(1, []float64{0})
			point := portfolio.Stats([]float64{1}, []float64{0.001}, cov, 0.02, 252)

			Expect(point.Volatility).To(Equal(0.0))
			Expect(point.SharpeRatio).To(Equal(0.0))
		})
	})

	Context("with two assets", func() {
		var (
			meanReturns []float64
			cov         *mat.SymDense
		)

		BeforeEach(func() {
			meanReturns = []float64{0.001, 0.002}
			cov = mat.NewSymDense(2, []float64{
				0.0001, 0.00002,
				0.00002, 0.0002,
			})
		})

		It("annualizes return by the period count", func() {
			point := portfolio.Stats([]float64{0.5, 0.5}, meanReturns, cov, 0.0, 252)
			Expect(point.Return).To(BeNumerically("~", 0.0015*252, 1e-12))
		})

		It("annualizes volatility by the square root of the period count", func() {
			point := portfolio.Stats([]float64{1, 0}, meanReturns, cov, 0.0, 252)
			Expect(point.Volatility).To(BeNumerically("~", math.Sqrt(0.0001)*math.Sqrt(252), 1e-12))
		})

		It("is idempotent", func() {
			weights := []float64{0.3, 0.7}
			first := portfolio.Stats(weights, meanReturns, cov, 0.02, 252)
			second := portfolio.Stats(weights, meanReturns, cov, 0.02, 252)
			Expect(first).To(Equal(second))
		})

		It("subtracts the risk-free rate in the sharpe numerator", func() {
			weights := []float64{0.5, 0.5}
			withRf := portfolio.Stats(weights, meanReturns, cov, 0.02, 252)
			noRf := portfolio.Stats(weights, meanReturns, cov, 0.0, 252)
			Expect(withRf.SharpeRatio).To(BeNumerically("<", noRf.SharpeRatio))
		})

		It("scales with a weekly annualization factor", func() {
			daily := portfolio.Stats([]float64{0.5, 0.5}, meanReturns, cov, 0.0, 252)
			weekly := portfolio.Stats([]float64{0.5, 0.5}, meanReturns, cov, 0.0, 52)
			Expect(weekly.Return).To(BeNumerically("<", daily.Return))
		})
	})
})
