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

package dataframe

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PercentChange computes the period-over-period fractional change of every
// column. The first observation has no defined return and is dropped, so the
// result has Len()-1 rows. A NaN on either side of a period propagates to the
// return for that period.
func (df *DataFrame) PercentChange() *DataFrame {
	if df.Len() < 2 {
		return &DataFrame{
			ColNames: df.ColNames,
			Vals:     make([][]float64, len(df.ColNames)),
		}
	}

	res := &DataFrame{
		Dates:    df.Dates[1:],
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}

	for colIdx, col := range df.Vals {
		changes := make([]float64, len(col)-1)
		for rowIdx := 1; rowIdx < len(col); rowIdx++ {
			prev := col[rowIdx-1]
			if prev == 0 {
				changes[rowIdx-1] = math.NaN()
				continue
			}
			changes[rowIdx-1] = (col[rowIdx] - prev) / prev
		}
		res.Vals[colIdx] = changes
	}

	return res
}

// AddScalar adds the scalar value to all columns in dataframe df and returns
// a new dataframe
func (df *DataFrame) AddScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] += scalar
		}
	}
	return df
}

// MulScalar multiplies all columns in dataframe df by the scalar value and
// returns a new dataframe
func (df *DataFrame) MulScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] *= scalar
		}
	}
	return df
}

// MeanVector returns the arithmetic mean of each column, ordered as ColNames
func (df *DataFrame) MeanVector() []float64 {
	means := make([]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		means[colIdx] = stat.Mean(col, nil)
	}
	return means
}

// CovarianceMatrix returns the sample covariance matrix of the columns.
// Symmetric positive semi-definite by construction.
func (df *DataFrame) CovarianceMatrix() *mat.SymDense {
	n := len(df.Vals)
	cov := mat.NewSymDense(n, nil)
	for ii := 0; ii < n; ii++ {
		for jj := ii; jj < n; jj++ {
			cov.SetSym(ii, jj, stat.Covariance(df.Vals[ii], df.Vals[jj], nil))
		}
	}
	return cov
}
