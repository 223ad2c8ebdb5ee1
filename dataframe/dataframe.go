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
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// New creates a dataframe with the given dates and a column of values per name.
// Columns that are shorter than the date index are padded with NaN.
func New(dates []time.Time, colNames []string, vals ...[]float64) *DataFrame {
	df := &DataFrame{
		Dates:    dates,
		ColNames: colNames,
		Vals:     make([][]float64, len(colNames)),
	}

	for colIdx := range colNames {
		var col []float64
		if colIdx < len(vals) {
			col = vals[colIdx]
		}
		if len(col) < len(dates) {
			padded := make([]float64, len(dates))
			copy(padded, col)
			for ii := len(col); ii < len(dates); ii++ {
				padded[ii] = math.NaN()
			}
			col = padded
		}
		df.Vals[colIdx] = col
	}

	return df
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// ColIndex returns the index of the named column; -1 if the column doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// Col returns the values of the named column
func (df *DataFrame) Col(colName string) ([]float64, error) {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return nil, ErrColumnNotFound
	}
	return df.Vals[colIdx], nil
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		Dates:    make([]time.Time, len(df.Dates)),
		ColNames: make([]string, len(df.ColNames)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.Dates, df.Dates)
	copy(df2.ColNames, df.ColNames)
	for idx := range df.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// Breakout splits the dataframe into a map of single-column dataframes keyed
// by column name
func (df *DataFrame) Breakout() map[string]*DataFrame {
	dfMap := make(map[string]*DataFrame, len(df.ColNames))
	for idx, col := range df.ColNames {
		dfMap[col] = &DataFrame{
			Dates:    df.Dates,
			ColNames: []string{col},
			Vals:     [][]float64{df.Vals[idx]},
		}
	}
	return dfMap
}

// Last returns a single-row dataframe with the final observation of df
func (df *DataFrame) Last() *DataFrame {
	if df.Len() == 0 {
		return df
	}

	last := &DataFrame{
		Dates:    []time.Time{df.Dates[len(df.Dates)-1]},
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}
	for idx := range df.Vals {
		last.Vals[idx] = []float64{df.Vals[idx][len(df.Vals[idx])-1]}
	}
	return last
}

// Trim removes rows that fall outside of the period [begin, end]
func (df *DataFrame) Trim(begin, end time.Time) *DataFrame {
	if df.Len() == 0 {
		return df
	}

	if begin.After(end) {
		df.Dates = []time.Time{}
		df.Vals = make([][]float64, len(df.ColNames))
		return df
	}

	beginIdx := sort.Search(df.Len(), func(i int) bool {
		return !df.Dates[i].Before(begin)
	})
	endIdx := sort.Search(df.Len(), func(i int) bool {
		return df.Dates[i].After(end)
	})

	df.Dates = df.Dates[beginIdx:endIdx]
	for idx := range df.Vals {
		df.Vals[idx] = df.Vals[idx][beginIdx:endIdx]
	}

	return df
}

// DropNA removes all rows that contain at least one NaN value; modifies the
// dataframe in-place and returns it for chaining
func (df *DataFrame) DropNA() *DataFrame {
	keepDates := make([]time.Time, 0, len(df.Dates))
	keepVals := make([][]float64, len(df.Vals))
	for colIdx := range df.Vals {
		keepVals[colIdx] = make([]float64, 0, len(df.Dates))
	}

	for rowIdx := range df.Dates {
		keep := true
		for colIdx := range df.Vals {
			if math.IsNaN(df.Vals[colIdx][rowIdx]) {
				keep = false
				break
			}
		}

		if keep {
			keepDates = append(keepDates, df.Dates[rowIdx])
			for colIdx := range df.Vals {
				keepVals[colIdx] = append(keepVals[colIdx], df.Vals[colIdx][rowIdx])
			}
		}
	}

	df.Dates = keepDates
	df.Vals = keepVals
	return df
}

// Lag shifts all values forward in time by n periods. The first n rows become
// NaN and the final n observations fall off the end of the frame. Used to
// align exogenous regressors so that the value at date t is the observation
// from date t-n.
func (df *DataFrame) Lag(n int) *DataFrame {
	df = df.Copy()
	for colIdx := range df.Vals {
		col := df.Vals[colIdx]
		shifted := make([]float64, len(col))
		for ii := range shifted {
			if ii < n {
				shifted[ii] = math.NaN()
			} else {
				shifted[ii] = col[ii-n]
			}
		}
		df.Vals[colIdx] = shifted
	}
	return df
}

// InnerJoin combines the dataframes on the strict intersection of their date
// indexes. A date missing from any input is dropped for all inputs. Column
// names must be unique across the inputs.
func InnerJoin(dfs ...*DataFrame) *DataFrame {
	if len(dfs) == 0 {
		return &DataFrame{}
	}

	if len(dfs) == 1 {
		return dfs[0].Copy()
	}

	// count how many frames each date appears in
	dateCnt := make(map[int64]int, len(dfs[0].Dates))
	for _, df := range dfs {
		for _, dt := range df.Dates {
			dateCnt[dt.Unix()]++
		}
	}

	common := make([]time.Time, 0, len(dfs[0].Dates))
	for _, dt := range dfs[0].Dates {
		if dateCnt[dt.Unix()] == len(dfs) {
			common = append(common, dt)
		}
	}

	res := &DataFrame{
		Dates:    common,
		ColNames: []string{},
		Vals:     [][]float64{},
	}

	for _, df := range dfs {
		rowMap := make(map[int64]int, len(df.Dates))
		for rowIdx, dt := range df.Dates {
			rowMap[dt.Unix()] = rowIdx
		}

		for colIdx, colName := range df.ColNames {
			col := make([]float64, len(common))
			for ii, dt := range common {
				col[ii] = df.Vals[colIdx][rowMap[dt.Unix()]]
			}

			res.ColNames = append(res.ColNames, colName)
			res.Vals = append(res.Vals, col)
		}
	}

	return res
}

// InferFrequency estimates the sampling frequency of the date index from the
// median spacing between consecutive observations
func (df *DataFrame) InferFrequency() Frequency {
	if df.Len() < 2 {
		return Daily
	}

	deltas := make([]float64, 0, df.Len()-1)
	for idx := 1; idx < df.Len(); idx++ {
		deltas = append(deltas, df.Dates[idx].Sub(df.Dates[idx-1]).Hours()/24)
	}
	sort.Float64s(deltas)
	median := deltas[len(deltas)/2]

	switch {
	case median <= 4:
		return Daily
	case median <= 14:
		return Weekly
	case median <= 45:
		return Monthly
	default:
		return Annual
	}
}

// ExtendDates generates n future dates continuing the frequency of the date
// index after the final observation
func (df *DataFrame) ExtendDates(n int, freq Frequency) []time.Time {
	future := make([]time.Time, n)
	if df.Len() == 0 {
		return future
	}

	last := df.Dates[df.Len()-1]
	for ii := 0; ii < n; ii++ {
		switch freq {
		case Weekly:
			last = last.AddDate(0, 0, 7)
		case Monthly:
			last = last.AddDate(0, 1, 0)
		case Annual:
			last = last.AddDate(1, 0, 0)
		default:
			last = last.AddDate(0, 0, 1)
			// skip weekends for daily series
			for last.Weekday() == time.Saturday || last.Weekday() == time.Sunday {
				last = last.AddDate(0, 0, 1)
			}
		}
		future[ii] = last
	}

	return future
}

// Table renders the dataframe as a string formatted for console output
func (df *DataFrame) Table() string {
	if df.Len() == 0 {
		return ""
	}

	s := &strings.Builder{}

	tableCols := append([]string{"Date"}, df.ColNames...)
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	footer[1] = fmt.Sprintf("%d", df.Len())
	table.SetFooter(footer)
	table.SetBorder(false)

	for rowIdx, date := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, date.Format("2006-01-02"))
		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[rowIdx]))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}
