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

package data

import (
	"context"
	"time"

	"github.com/quantscope/qs-api/dataframe"
)

// PriceSeries holds the daily quote history of a single security. All value
// slices share the Dates index.
type PriceSeries struct {
	Ticker string      `json:"ticker"`
	Dates  []time.Time `json:"dates"`
	Open   []float64   `json:"open"`
	High   []float64   `json:"high"`
	Low    []float64   `json:"low"`
	Close  []float64   `json:"close"`
	Volume []float64   `json:"volume"`
}

// CloseFrame returns the closing prices as a single-column frame named after
// the ticker
func (ps *PriceSeries) CloseFrame() *dataframe.DataFrame {
	return dataframe.New(ps.Dates, []string{ps.Ticker}, ps.Close)
}

// Provider retrieves quote history for securities. Implementations are safe
// for concurrent use.
type Provider interface {
	// GetQuotes downloads the quote history of a single ticker over the
	// closed interval [begin, end]
	GetQuotes(ctx context.Context, ticker string, begin, end time.Time) (*PriceSeries, error)

	// GetMultiple downloads quote histories for each ticker concurrently.
	// Tickers that cannot be retrieved cause the whole call to fail.
	GetMultiple(ctx context.Context, tickers []string, begin, end time.Time) (map[string]*PriceSeries, error)
}

// CloseFrames converts a quote map into the per-ticker closing price frames
// the portfolio and forecast layers consume
func CloseFrames(quotes map[string]*PriceSeries) map[string]*dataframe.DataFrame {
	frames := make(map[string]*dataframe.DataFrame, len(quotes))
	for ticker, series := range quotes {
		frames[ticker] = series.CloseFrame()
	}
	return frames
}
