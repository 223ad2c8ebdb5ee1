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
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/quantscope/qs-api/dataframe"
	"github.com/quantscope/qs-api/portfolio"
	"gonum.org/v1/gonum/mat"
)

var _ = Describe("MaxSharpe", func() {
	Context("with two assets where one dominates", func() {
		var (
			meanReturns []float64
			cov         *mat.SymDense
		)

		BeforeEach(func() {
			// asset B has a higher mean and lower variance
			meanReturns = []float64{0.000667, 0.002}
			cov = mat.NewSymDense(2, []float64{
				2.33e-6, 5.0e-7,
				5.0e-7, 1.0e-6,
			})
		})

		It("returns weights on the simplex", func() {
			weights, err := portfolio.MaxSharpe(meanReturns, cov, 0.02, 252)
			Expect(err).To(BeNil())

			sum := 0.0
			for _, w := range weights {
				Expect(w).To(BeNumerically(">=", 0.0))
				Expect(w).To(BeNumerically("<=", 1.0))
				sum += w
			}
			Expect(sum).To(BeNumerically("~", 1.0, 1e-6))
		})

		It("allocates the majority to the dominant asset", func() {
			weights, err := portfolio.MaxSharpe(meanReturns, cov, 0.02, 252)
			Expect(err).To(BeNil())
			Expect(weights[1]).To(BeNumerically(">=", 0.5))
		})
	})

	Context("with no assets", func() {
		It("returns ErrOptimizationFailed", func() {
			_, err := portfolio.MaxSharpe(nil, mat.NewSymDense(1, []float64{1}), 0.02, 252)
			Expect(err).To(MatchError(portfolio.ErrOptimizationFailed))
		})
	})
})

var _ = Describe("RandomPortfolios", func() {
	var (
		meanReturns []float64
		cov         *mat.SymDense
	)

	BeforeEach(func() {
		meanReturns = []float64{0.001, 0.002, 0.0005}
		cov = mat.NewSymDense(3, []float64{
			1e-4, 1e-5, 2e-5,
			1e-5, 2e-4, 3e-5,
			2e-5, 3e-5, 1.5e-4,
		})
	})

	It("produces the requested number of points", func() {
		points := portfolio.RandomPortfolios(meanReturns, cov, 0.02, 252, 250)
		Expect(len(points)).To(Equal(250))
	})

	It("defaults to several thousand points", func() {
		points := portfolio.RandomPortfolios(meanReturns, cov, 0.02, 252, 0)
		Expect(len(points)).To(Equal(5000))
	})

	It("only produces points with non-negative volatility", func() {
		points := portfolio.RandomPortfolios(meanReturns, cov, 0.02, 252, 100)
		for _, p := range points {
			Expect(p.Volatility).To(BeNumerically(">=", 0.0))
		}
	})
})

var _ = Describe("Optimize", func() {
	Context("with two assets aligned on the same dates", func() {
		var req *portfolio.OptimizeRequest

		BeforeEach(func() {
			start := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
			// price paths realizing return vectors [0.001, 0.002, -0.001]
			// and [0.002, 0.001, 0.003]
			pricesA := []float64{100}
			for _, r := range []float64{0.001, 0.002, -0.001} {
				pricesA = append(pricesA, pricesA[len(pricesA)-1]*(1+r))
			}
			pricesB := []float64{100}
			for _, r := range []float64{0.002, 0.001, 0.003} {
				pricesB = append(pricesB, pricesB[len(pricesB)-1]*(1+r))
			}

			req = &portfolio.OptimizeRequest{
				Prices: map[string]*dataframe.DataFrame{
					"AAA": priceFrame("AAA", start, pricesA),
					"BBB": priceFrame("BBB", start, pricesB),
				},
				RiskFreeRate: 0.02,
				NumSamples:   100,
			}
		})

		It("returns weights summing to one with the dominant asset at or above half", func() {
			result, err := portfolio.Optimize(context.Background(), req)
			Expect(err).To(BeNil())

			sum := 0.0
			for _, w := range result.Weights {
				sum += w
			}
			Expect(sum).To(BeNumerically("~", 1.0, 1e-6))

			// BBB has the higher mean return and lower variance
			Expect(result.Tickers).To(Equal([]string{"AAA", "BBB"}))
			Expect(result.Weights[1]).To(BeNumerically(">=", 0.5))
		})

		It("reports per-asset summaries and a frontier cloud", func() {
			result, err := portfolio.Optimize(context.Background(), req)
			Expect(err).To(BeNil())
			Expect(len(result.Assets)).To(Equal(2))
			Expect(len(result.Frontier)).To(Equal(100))
			Expect(result.Assets["BBB"].Return).To(BeNumerically(">", result.Assets["AAA"].Return))
		})
	})

	Context("with an empty price map", func() {
		It("returns ErrInsufficientData", func() {
			_, err := portfolio.Optimize(context.Background(), &portfolio.OptimizeRequest{
				Prices:       map[string]*dataframe.DataFrame{},
				RiskFreeRate: 0.02,
			})
			Expect(err).To(MatchError(portfolio.ErrInsufficientData))
		})
	})
})
