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

package forecast_test

import (
	"math"

	"github.com/quantscope/qs-api/forecast"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Sarima", func() {
	Describe("Fit", func() {
		Context("with invalid inputs", func() {
			It("rejects negative orders", func() {
				_, err := forecast.Fit([]float64{1, 2, 3, 4, 5}, nil, forecast.Order{P: -1, D: 0, Q: 0}, forecast.SeasonalOrder{})
				Expect(err).To(MatchError(forecast.ErrFitFailure))
			})

			It("rejects regressor columns that do not match the series length", func() {
				y := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
				exog := [][]float64{{1, 2, 3}}
				_, err := forecast.Fit(y, exog, forecast.Order{P: 1, D: 0, Q: 0}, forecast.SeasonalOrder{})
				Expect(err).To(MatchError(forecast.ErrFitFailure))
			})

			It("fails when the series cannot support the requested order", func() {
				_, err := forecast.Fit([]float64{1, 2}, nil, forecast.Order{P: 1, D: 1, Q: 1}, forecast.SeasonalOrder{})
				Expect(err).To(MatchError(forecast.ErrFitFailure))
			})
		})

		Context("with a linear trend", func() {
			var y []float64

			BeforeEach(func() {
				y = make([]float64, 50)
				for ii := range y {
					y[ii] = 100 + float64(ii)
				}
			})

			It("captures the trend as drift under first differencing", func() {
				model, err := forecast.Fit(y, nil, forecast.Order{P: 0, D: 1, Q: 0}, forecast.SeasonalOrder{})
				Expect(err).To(BeNil())

				mean, lower, upper, err := model.Forecast(3, nil)
				Expect(err).To(BeNil())
				Expect(mean).To(HaveLen(3))
				for ii := range mean {
					Expect(mean[ii]).To(BeNumerically("~", 150+float64(ii), 1e-6))
					Expect(lower[ii]).To(BeNumerically("<", mean[ii]))
					Expect(upper[ii]).To(BeNumerically(">", mean[ii]))
				}
			})

			It("reports a finite information criterion", func() {
				model, err := forecast.Fit(y, nil, forecast.Order{P: 0, D: 1, Q: 0}, forecast.SeasonalOrder{})
				Expect(err).To(BeNil())
				Expect(math.IsInf(model.AIC(), 0)).To(BeFalse())
				Expect(math.IsNaN(model.AIC())).To(BeFalse())
			})
		})

		Context("with a repeating seasonal pattern", func() {
			It("reproduces the pattern after seasonal differencing", func() {
				pattern := []float64{10, 20, 30, 40}
				y := make([]float64, 0, 24)
				for ii := 0; ii < 6; ii++ {
					y = append(y, pattern...)
				}

				model, err := forecast.Fit(y, nil, forecast.Order{}, forecast.SeasonalOrder{D: 1, Period: 4})
				Expect(err).To(BeNil())

				mean, _, _, err := model.Forecast(4, nil)
				Expect(err).To(BeNil())
				for ii := range pattern {
					Expect(mean[ii]).To(BeNumerically("~", pattern[ii], 1e-6))
				}
			})
		})
	})

	Describe("Forecast", func() {
		It("rejects a non-positive horizon", func() {
			y := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
			model, err := forecast.Fit(y, nil, forecast.Order{P: 0, D: 1, Q: 0}, forecast.SeasonalOrder{})
			Expect(err).To(BeNil())

			_, _, _, err = model.Forecast(0, nil)
			Expect(err).To(MatchError(forecast.ErrInvalidHorizon))
		})

		It("requires future regressor values when fit with regressors", func() {
			y := make([]float64, 30)
			x := make([]float64, 30)
			for ii := range y {
				x[ii] = float64(ii % 5)
				y[ii] = 10 + 2*x[ii]
			}

			model, err := forecast.Fit(y, [][]float64{x}, forecast.Order{P: 1, D: 0, Q: 0}, forecast.SeasonalOrder{})
			Expect(err).To(BeNil())

			_, _, _, err = model.Forecast(2, nil)
			Expect(err).To(MatchError(forecast.ErrFitFailure))
		})

		It("widens the confidence interval with the horizon", func() {
			y := []float64{5, 7, 4, 8, 6, 9, 5, 7, 6, 8, 5, 9, 6, 7, 8, 5, 6, 9, 7, 8}
			model, err := forecast.Fit(y, nil, forecast.Order{P: 1, D: 0, Q: 0}, forecast.SeasonalOrder{})
			Expect(err).To(BeNil())

			mean, lower, upper, err := model.Forecast(5, nil)
			Expect(err).To(BeNil())

			firstWidth := upper[0] - lower[0]
			lastWidth := upper[4] - lower[4]
			Expect(firstWidth).To(BeNumerically(">", 0))
			Expect(lastWidth).To(BeNumerically(">=", firstWidth))
			for ii := range mean {
				Expect(lower[ii]).To(BeNumerically("<", mean[ii]))
				Expect(upper[ii]).To(BeNumerically(">", mean[ii]))
			}
		})
	})
})
