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
	"errors"
	"time"
)

// DataFrame stores a table of values organized by date
// the vals array is column major - e.g.,
// AAPL   MSFT
// 1      4
// 2      5
// 3      6
//
// Vals[0][0] = 1
// Vals[0][1] = 2
//
// NaN marks a missing observation.
type DataFrame struct {
	Dates    []time.Time
	ColNames []string
	Vals     [][]float64
}

// Frequency describes the sampling interval of a date index
type Frequency string

const (
	Daily   Frequency = "Daily"
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
	Annual  Frequency = "Annual"
)

var (
	ErrDateIndexNotAligned = errors.New("date index does not align")
	ErrEmpty               = errors.New("dataframe has no rows")
	ErrColumnNotFound      = errors.New("column not found")
)

// TradingPeriods returns the number of sampling periods per year for the
// frequency; used to annualize returns and volatility.
func (freq Frequency) TradingPeriods() float64 {
	switch freq {
	case Weekly:
		return 52
	case Monthly:
		return 12
	case Annual:
		return 1
	default:
		return 252
	}
}
