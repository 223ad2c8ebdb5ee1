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

	"github.com/quantscope/qs-api/forecast"
	"github.com/spf13/viper"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Search", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("NewSearcher", func() {
		AfterEach(func() {
			viper.Set("forecast.search", "")
		})

		It("returns the stepwise strategy by default", func() {
			_, ok := forecast.NewSearcher().(*forecast.StepwiseSearch)
			Expect(ok).To(BeTrue())
		})

		It("returns the grid strategy when configured", func() {
			viper.Set("forecast.search", "grid")
			_, ok := forecast.NewSearcher().(*forecast.GridSearch)
			Expect(ok).To(BeTrue())
		})
	})

	Describe("GridSearch", func() {
		It("falls back to (1,1,1) when no candidate can be fit", func() {
			order := forecast.NewGridSearch().Search(ctx, []float64{1, 2}, nil)
			Expect(order).To(Equal(forecast.Order{P: 1, D: 1, Q: 1}))
		})

		It("returns an order inside its bounds for a fittable series", func() {
			y := make([]float64, 40)
			for ii := range y {
				y[ii] = 100 + float64(ii)
			}

			search := forecast.NewGridSearch()
			order := search.Search(ctx, y, nil)
			Expect(order).ToNot(Equal(forecast.Order{}))
			Expect(order.P).To(BeNumerically("<=", search.MaxP))
			Expect(order.D).To(BeNumerically("<=", search.MaxD))
			Expect(order.Q).To(BeNumerically("<=", search.MaxQ))
		})
	})

	Describe("StepwiseSearch", func() {
		It("falls back to (1,1,1) when no candidate can be fit", func() {
			order := forecast.NewStepwiseSearch().Search(ctx, []float64{1, 2}, nil)
			Expect(order).To(Equal(forecast.Order{P: 1, D: 1, Q: 1}))
		})

		It("chooses first differencing for a linear trend", func() {
			y := make([]float64, 60)
			for ii := range y {
				y[ii] = 50 + 2*float64(ii)
			}

			order := forecast.NewStepwiseSearch().Search(ctx, y, nil)
			Expect(order.D).To(Equal(1))
		})

		It("stays within its order bounds", func() {
			y := []float64{3, 9, 2, 8, 4, 7, 1, 9, 5, 6, 2, 8, 3, 7, 4, 9, 1, 6, 5, 8, 2, 7, 3, 9, 4, 6, 1, 8, 5, 7}
			search := forecast.NewStepwiseSearch()

			order := search.Search(ctx, y, nil)
			Expect(order.P).To(BeNumerically("<=", search.MaxP))
			Expect(order.Q).To(BeNumerically("<=", search.MaxQ))
			Expect(order.D).To(BeNumerically("<=", search.MaxD))
		})
	})
})
