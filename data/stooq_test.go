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

package data_test

import (
	"context"
	"math"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/quantscope/qs-api/data"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const vfinxCSV = `Date,Open,High,Low,Close,Volume
2021-01-04,341.69,343.06,339.15,341.96,1000
2021-01-05,341.50,344.25,341.10,344.30,1100
2021-01-06,343.80,347.12,342.55,346.34,1200
2021-01-07,347.00,351.80,346.90,351.49,1300
2021-01-08,352.10,353.45,350.60,353.44,1400
`

var _ = Describe("Stooq", func() {
	var (
		ctx      context.Context
		provider data.Provider
		begin    time.Time
		end      time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = data.NewStooq()
		begin = time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
		end = time.Date(2021, 1, 8, 0, 0, 0, 0, time.UTC)

		httpmock.Reset()
	})

	Describe("GetQuotes", func() {
		It("rejects an inverted time range", func() {
			_, err := provider.GetQuotes(ctx, "VFINX", end, begin)
			Expect(err).To(MatchError(data.ErrInvalidTimeRange))
		})

		It("parses the daily download format", func() {
			httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=vfinx&d1=20210104&d2=20210108&i=d",
				httpmock.NewStringResponder(200, vfinxCSV))

			series, err := provider.GetQuotes(ctx, "VFINX", begin, end)
			Expect(err).To(BeNil())
			Expect(series.Ticker).To(Equal("VFINX"))
			Expect(series.Dates).To(HaveLen(5))
			Expect(series.Close[0]).To(Equal(341.96))
			Expect(series.Close[4]).To(Equal(353.44))
			Expect(series.Volume[2]).To(Equal(1200.0))
		})

		It("turns unparsable prices into NaN", func() {
			csv := "Date,Open,High,Low,Close,Volume\n2021-02-01,10.0,11.0,9.5,N/D,500\n"
			httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=brk-b&d1=20210201&d2=20210205&i=d",
				httpmock.NewStringResponder(200, csv))

			series, err := provider.GetQuotes(ctx, "BRK-B",
				time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 2, 5, 0, 0, 0, 0, time.UTC))
			Expect(err).To(BeNil())
			Expect(math.IsNaN(series.Close[0])).To(BeTrue())
			Expect(series.Open[0]).To(Equal(10.0))
		})

		It("returns ErrNotFound for an unknown ticker", func() {
			httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=zzzz&d1=20210104&d2=20210108&i=d",
				httpmock.NewStringResponder(404, "not found"))

			_, err := provider.GetQuotes(ctx, "ZZZZ", begin, end)
			Expect(err).To(MatchError(data.ErrNotFound))
		})

		It("returns ErrEmptyResponse when the body has no quote rows", func() {
			httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=empt&d1=20210104&d2=20210108&i=d",
				httpmock.NewStringResponder(200, "Date,Open,High,Low,Close,Volume\n"))

			_, err := provider.GetQuotes(ctx, "EMPT", begin, end)
			Expect(err).To(MatchError(data.ErrEmptyResponse))
		})

		It("serves repeated requests from the cache", func() {
			httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=vustx&d1=20210104&d2=20210108&i=d",
				httpmock.NewStringResponder(200, vfinxCSV))

			_, err := provider.GetQuotes(ctx, "VUSTX", begin, end)
			Expect(err).To(BeNil())

			httpmock.Reset()

			// no responder registered anymore; only the cache can answer
			series, err := provider.GetQuotes(ctx, "VUSTX", begin, end)
			Expect(err).To(BeNil())
			Expect(series.Dates).To(HaveLen(5))
		})
	})

	Describe("GetMultiple", func() {
		It("fetches each ticker concurrently", func() {
			httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=multi1&d1=20210104&d2=20210108&i=d",
				httpmock.NewStringResponder(200, vfinxCSV))
			httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=multi2&d1=20210104&d2=20210108&i=d",
				httpmock.NewStringResponder(200, vfinxCSV))

			quotes, err := provider.GetMultiple(ctx, []string{"MULTI1", "MULTI2"}, begin, end)
			Expect(err).To(BeNil())
			Expect(quotes).To(HaveLen(2))
			Expect(quotes["MULTI1"].Close).To(HaveLen(5))
			Expect(quotes["MULTI2"].Close).To(HaveLen(5))
		})

		It("fails the batch when any ticker fails", func() {
			httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=good1&d1=20210104&d2=20210108&i=d",
				httpmock.NewStringResponder(200, vfinxCSV))
			httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=bad1&d1=20210104&d2=20210108&i=d",
				httpmock.NewStringResponder(500, "internal error"))

			_, err := provider.GetMultiple(ctx, []string{"GOOD1", "BAD1"}, begin, end)
			Expect(err).To(MatchError(data.ErrProviderFailure))
		})
	})

	Describe("CloseFrames", func() {
		It("builds one single-column frame per ticker", func() {
			httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=frame1&d1=20210104&d2=20210108&i=d",
				httpmock.NewStringResponder(200, vfinxCSV))

			quotes, err := provider.GetMultiple(ctx, []string{"FRAME1"}, begin, end)
			Expect(err).To(BeNil())

			frames := data.CloseFrames(quotes)
			Expect(frames).To(HaveKey("FRAME1"))
			Expect(frames["FRAME1"].ColNames).To(Equal([]string{"FRAME1"}))
			Expect(frames["FRAME1"].Len()).To(Equal(5))
		})
	})
})
