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
	"sort"

	"github.com/quantscope/qs-api/dataframe"
)

var (
	ErrInsufficientData = errors.New("insufficient data to compute returns")
)

// BuildReturns converts per-asset close-price frames into a single aligned
// return matrix. Per asset the period-over-period fractional return is
// computed with the first, undefined, observation dropped. The per-asset
// return series are then combined on the strict intersection of their dates;
// any date where at least one asset has a missing value is dropped for all
// assets. The resulting frame has one column per asset, sorted by ticker, and
// no missing cells.
//
// Returns ErrInsufficientData when no aligned rows remain.
func BuildReturns(prices map[string]*dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if len(prices) == 0 {
		return nil, ErrInsufficientData
	}

	tickers := make([]string, 0, len(prices))
	for ticker := range prices {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	frames := make([]*dataframe.DataFrame, 0, len(tickers))
	for _, ticker := range tickers {
		df := prices[ticker]
		returns := df.PercentChange()
		// a single column per asset, named by ticker
		returns.ColNames = []string{ticker}
		frames = append(frames, returns)
	}

	matrix := dataframe.InnerJoin(frames...).DropNA()
	if matrix.Len() == 0 {
		return nil, ErrInsufficientData
	}

	return matrix, nil
}
