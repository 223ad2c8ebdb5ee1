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
	"context"
	"time"

	"github.com/quantscope/qs-api/dataframe"
	"github.com/quantscope/qs-api/forecast"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Engine", func() {
	var (
		ctx    context.Context
		engine *forecast.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		engine = forecast.NewEngine()
	})

	Context("with invalid requests", func() {
		It("rejects a non-positive horizon", func() {
			_, err := engine.Forecast(ctx, &forecast.Request{
				Ticker:  "VFINX",
				Prices:  trendSeries("VFINX", 100, 1, 50),
				Horizon: 0,
			})
			Expect(err).To(MatchError(forecast.ErrInvalidHorizon))
		})

		It("rejects an empty series", func() {
			_, err := engine.Forecast(ctx, &forecast.Request{
				Ticker:  "VFINX",
				Prices:  dataframe.New([]time.Time{}, []string{"VFINX"}, []float64{}),
				Horizon: 5,
			})
			Expect(err).To(MatchError(forecast.ErrInsufficientData))
		})

		It("rejects a series shorter than the minimum observation count", func() {
			_, err := engine.Forecast(ctx, &forecast.Request{
				Ticker:  "VFINX",
				Prices:  trendSeries("VFINX", 100, 1, 5),
				Horizon: 5,
			})
			Expect(err).To(MatchError(forecast.ErrInsufficientData))
		})
	})

	Context("with a linear uptrend", func() {
		var result *forecast.Result

		BeforeEach(func() {
			var err error
			result, err = engine.Forecast(ctx, &forecast.Request{
				Ticker:  "VFINX",
				Prices:  trendSeries("VFINX", 100, 1, 100),
				Horizon: 5,
			})
			Expect(err).To(BeNil())
		})

		It("continues the trend", func() {
			Expect(result.Forecast).To(HaveLen(5))
			for ii := range result.Forecast {
				expected := 200 + float64(ii)
				Expect(result.Forecast[ii]).To(BeNumerically("~", expected, expected*0.01))
			}
		})

		It("brackets the forecast with strict confidence bounds", func() {
			for ii := range result.Forecast {
				Expect(result.Lower[ii]).To(BeNumerically("<", result.Forecast[ii]))
				Expect(result.Upper[ii]).To(BeNumerically(">", result.Forecast[ii]))
			}
		})

		It("supplies one future date per forecast step", func() {
			Expect(result.Dates).To(HaveLen(5))
			for ii, dt := range result.Dates {
				Expect(dt.Weekday()).ToNot(Equal(time.Saturday))
				Expect(dt.Weekday()).ToNot(Equal(time.Sunday))
				if ii > 0 {
					Expect(dt.After(result.Dates[ii-1])).To(BeTrue())
				}
			}
		})

		It("reports near-zero backtest error", func() {
			Expect(result.Metrics).ToNot(BeNil())
			Expect(result.Metrics.RMSE).To(BeNumerically("<", 1e-6))
			Expect(result.Metrics.MAE).To(BeNumerically("<", 1e-6))
		})
	})

	Context("with a zero-valued actual in the backtest window", func() {
		It("skips that observation when computing MAPE", func() {
			// y_i = 40 - i crosses zero inside the 20% test slice, so the
			// percentage error there is undefined and must be excluded.
			result, err := engine.Forecast(ctx, &forecast.Request{
				Ticker:  "VFINX",
				Prices:  trendSeries("VFINX", 40, -1, 50),
				Horizon: 1,
				Order:   &forecast.Order{P: 0, D: 1, Q: 0},
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Metrics).ToNot(BeNil())
			Expect(result.Metrics.MAPE).To(BeNumerically("~", 0, 1e-4))
		})
	})

	Context("with an explicit model order", func() {
		It("skips the search and uses the requested order", func() {
			result, err := engine.Forecast(ctx, &forecast.Request{
				Ticker:  "VFINX",
				Prices:  trendSeries("VFINX", 100, 1, 60),
				Horizon: 3,
				Order:   &forecast.Order{P: 0, D: 1, Q: 0},
			})
			Expect(err).To(BeNil())
			Expect(result.Order).To(Equal(forecast.Order{P: 0, D: 1, Q: 0}))
			Expect(result.Forecast).To(HaveLen(3))
		})
	})

	Context("with exogenous regressors", func() {
		It("aligns the regressors and forecasts the full horizon", func() {
			n := 60
			dates := tradingDates(time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), n)
			prices := make([]float64, n)
			signal := make([]float64, n)
			for ii := 0; ii < n; ii++ {
				signal[ii] = float64(ii % 7)
				prices[ii] = 100 + float64(ii)
			}

			result, err := engine.Forecast(ctx, &forecast.Request{
				Ticker:  "VFINX",
				Prices:  dataframe.New(dates, []string{"VFINX"}, prices),
				Exog:    dataframe.New(dates, []string{"signal"}, signal),
				Horizon: 4,
				Order:   &forecast.Order{P: 1, D: 1, Q: 0},
			})
			Expect(err).To(BeNil())
			Expect(result.Forecast).To(HaveLen(4))
			Expect(result.Lower).To(HaveLen(4))
			Expect(result.Upper).To(HaveLen(4))
		})

		It("fails when regressor dates never overlap the series", func() {
			n := 30
			seriesDates := tradingDates(time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), n)
			exogDates := tradingDates(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), n)
			vals := make([]float64, n)
			for ii := range vals {
				vals[ii] = float64(ii)
			}

			_, err := engine.Forecast(ctx, &forecast.Request{
				Ticker:  "VFINX",
				Prices:  dataframe.New(seriesDates, []string{"VFINX"}, vals),
				Exog:    dataframe.New(exogDates, []string{"signal"}, vals),
				Horizon: 2,
			})
			Expect(err).To(MatchError(forecast.ErrInsufficientData))
		})
	})
})
