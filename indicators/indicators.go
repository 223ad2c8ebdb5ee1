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

// Package indicators derives technical signal columns from price series.
// The resulting frames share the source date index so they can be joined
// directly as exogenous regressors.
package indicators

import (
	"fmt"
	"math"

	"github.com/quantscope/qs-api/dataframe"
)

// Momentum computes the n-period rate of change for every column of the
// input frame. The first n rows are NaN.
func Momentum(df *dataframe.DataFrame, n int) *dataframe.DataFrame {
	res := df.Copy()
	for colIdx, col := range df.Vals {
		out := make([]float64, len(col))
		for ii := range col {
			if ii < n || col[ii-n] == 0 {
				out[ii] = math.NaN()
				continue
			}
			out[ii] = col[ii]/col[ii-n] - 1
		}
		res.Vals[colIdx] = out
		res.ColNames[colIdx] = fmt.Sprintf("%s_mom_%d", df.ColNames[colIdx], n)
	}
	return res
}

// SMA computes the n-period simple moving average for every column of the
// input frame. The first n-1 rows are NaN.
func SMA(df *dataframe.DataFrame, n int) *dataframe.DataFrame {
	res := df.Copy()
	for colIdx, col := range df.Vals {
		out := make([]float64, len(col))
		sum := 0.0
		for ii := range col {
			sum += col[ii]
			if ii >= n {
				sum -= col[ii-n]
			}
			if ii < n-1 {
				out[ii] = math.NaN()
				continue
			}
			out[ii] = sum / float64(n)
		}
		res.Vals[colIdx] = out
		res.ColNames[colIdx] = fmt.Sprintf("%s_sma_%d", df.ColNames[colIdx], n)
	}
	return res
}
