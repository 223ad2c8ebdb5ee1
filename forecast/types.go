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

package forecast

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInsufficientData = errors.New("insufficient data for forecast")
	ErrFitFailure       = errors.New("model could not be fit")
	ErrSearchExhausted  = errors.New("no model order could be fit")
	ErrInvalidHorizon   = errors.New("forecast horizon must be at least 1")
)

// Order is the non-seasonal (p,d,q) specification of an autoregressive
// integrated moving-average model
type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// SeasonalOrder is the seasonal (P,D,Q,s) specification. A zero Period
// disables the seasonal component.
type SeasonalOrder struct {
	P      int `json:"p"`
	D      int `json:"d"`
	Q      int `json:"q"`
	Period int `json:"s"`
}

func (o SeasonalOrder) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", o.P, o.D, o.Q, o.Period)
}

// Metrics are backtest accuracy measures computed over the held-out tail of
// the input series
type Metrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`
}

// Result is the complete output of one forecast run. Forecast, Lower, Upper
// and Dates all have length equal to the requested horizon. Metrics is nil
// when the held-out tail was empty or could not be evaluated.
type Result struct {
	Ticker   string        `json:"ticker"`
	Order    Order         `json:"order"`
	Seasonal SeasonalOrder `json:"seasonalOrder"`
	Dates    []time.Time   `json:"dates"`
	Forecast []float64     `json:"forecast"`
	Lower    []float64     `json:"lowerBound"`
	Upper    []float64     `json:"upperBound"`
	Metrics  *Metrics      `json:"metrics,omitempty"`
}
