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
	"context"
	"fmt"
	"math"

	"github.com/quantscope/qs-api/dataframe"
	"github.com/quantscope/qs-api/observability/opentelemetry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

const (
	// minObservations is the shortest series the engine will model
	minObservations = 10

	// trainFraction is the share of the series used when searching for a
	// model order and computing backtest metrics; the remainder is held out
	trainFraction = 0.8
)

// Request describes a single forecast run. Prices must be a single-column
// series of observations; Exog optionally carries exogenous regressors on
// the same date index. When Order is nil the engine searches for one.
type Request struct {
	Ticker   string
	Prices   *dataframe.DataFrame
	Exog     *dataframe.DataFrame
	Horizon  int
	Order    *Order
	Seasonal SeasonalOrder
}

// Engine runs forecasts. The zero value is not usable; construct with
// NewEngine.
type Engine struct {
	searcher Searcher
}

func NewEngine() *Engine {
	return &Engine{searcher: NewSearcher()}
}

// NewEngineWithSearcher constructs an engine with an explicit order search
// strategy
func NewEngineWithSearcher(searcher Searcher) *Engine {
	return &Engine{searcher: searcher}
}

// Forecast fits a model to the request's series and projects it Horizon
// steps ahead. Exogenous regressors are lagged one period before alignment
// so the last observed value is available for every forecast step. Backtest
// metrics come from a model fit on the first 80% of the series and
// evaluated on the remainder; the published forecast always comes from a
// model fit on the full series.
func (e *Engine) Forecast(ctx context.Context, req *Request) (*Result, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "forecast.Forecast")
	defer span.End()

	subLog := log.With().Str("Ticker", req.Ticker).Logger()

	if req.Horizon < 1 {
		return nil, ErrInvalidHorizon
	}
	if req.Prices == nil || req.Prices.Len() == 0 {
		return nil, ErrInsufficientData
	}

	aligned, exogCols, futureExog, err := alignExog(req.Prices, req.Exog)
	if err != nil {
		return nil, err
	}

	y, err := aligned.Col(aligned.ColNames[0])
	if err != nil {
		return nil, err
	}
	if len(y) < minObservations {
		return nil, fmt.Errorf("%w: %d observations, need at least %d", ErrInsufficientData, len(y), minObservations)
	}

	trainLen := int(trainFraction * float64(len(y)))
	trainY := y[:trainLen]
	trainExog := sliceCols(exogCols, 0, trainLen)

	order := Order{}
	if req.Order != nil {
		order = *req.Order
	} else {
		order = e.searcher.Search(ctx, trainY, trainExog)
		subLog.Debug().Str("Order", order.String()).Msg("order search complete")
	}

	// the published forecast uses every observation
	model, err := Fit(y, exogCols, order, req.Seasonal)
	if err != nil {
		return nil, err
	}

	future := repeatCols(futureExog, req.Horizon)
	mean, lower, upper, err := model.Forecast(req.Horizon, future)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Ticker:   req.Ticker,
		Order:    order,
		Seasonal: model.Seasonal,
		Dates:    aligned.ExtendDates(req.Horizon, aligned.InferFrequency()),
		Forecast: mean,
		Lower:    lower,
		Upper:    upper,
		Metrics:  e.backtest(y, exogCols, trainLen, order, req.Seasonal, subLog),
	}

	subLog.Info().
		Str("Order", order.String()).
		Float64("AIC", model.AIC()).
		Int("Horizon", req.Horizon).
		Msg("forecast complete")

	return result, nil
}

// backtest fits the model on the training portion only and measures its
// accuracy over the held-out tail. Returns nil when there is no tail or the
// training fit fails.
func (e *Engine) backtest(y []float64, exogCols [][]float64, trainLen int, order Order, seasonal SeasonalOrder, subLog zerolog.Logger) *Metrics {
	testLen := len(y) - trainLen
	if testLen == 0 {
		return nil
	}

	trainModel, err := Fit(y[:trainLen], sliceCols(exogCols, 0, trainLen), order, seasonal)
	if err != nil {
		subLog.Warn().Err(err).Msg("backtest fit failed; omitting accuracy metrics")
		return nil
	}

	predicted, _, _, err := trainModel.Forecast(testLen, sliceCols(exogCols, trainLen, len(y)))
	if err != nil {
		subLog.Warn().Err(err).Msg("backtest forecast failed; omitting accuracy metrics")
		return nil
	}

	actual := y[trainLen:]
	var sse, sae, sape float64
	mapeCount := 0
	for ii := range actual {
		diff := predicted[ii] - actual[ii]
		sse += diff * diff
		sae += math.Abs(diff)
		if actual[ii] != 0 {
			sape += math.Abs(diff / actual[ii])
			mapeCount++
		}
	}

	metrics := &Metrics{
		RMSE: math.Sqrt(sse / float64(testLen)),
		MAE:  sae / float64(testLen),
	}
	if mapeCount > 0 {
		metrics.MAPE = sape / float64(mapeCount) * 100
	}

	return metrics
}

// alignExog lags the regressors one period and inner-joins them against the
// series so each observation is explained by the prior period's regressor
// values. Returns the aligned frame, the regressor columns, and the final
// observed regressor row to hold constant across the forecast horizon.
func alignExog(prices *dataframe.DataFrame, exog *dataframe.DataFrame) (*dataframe.DataFrame, [][]float64, []float64, error) {
	if exog == nil || exog.ColCount() == 0 {
		aligned := prices.DropNA()
		return aligned, nil, nil, nil
	}

	aligned := dataframe.InnerJoin(prices, exog.Lag(1)).DropNA()
	if aligned.Len() == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no overlapping dates between series and regressors", ErrInsufficientData)
	}

	exogCols := make([][]float64, aligned.ColCount()-1)
	for ii := 1; ii < aligned.ColCount(); ii++ {
		exogCols[ii-1] = aligned.Vals[ii]
	}

	// future regressor values are unknown; hold the last observed row
	lastRow := make([]float64, exog.ColCount())
	for ii, col := range exog.Vals {
		lastRow[ii] = col[len(col)-1]
	}

	return aligned, exogCols, lastRow, nil
}

func sliceCols(cols [][]float64, begin, end int) [][]float64 {
	if cols == nil {
		return nil
	}
	out := make([][]float64, len(cols))
	for ii, col := range cols {
		out[ii] = col[begin:end]
	}
	return out
}

func repeatCols(row []float64, h int) [][]float64 {
	if row == nil {
		return nil
	}
	out := make([][]float64, len(row))
	for ii, v := range row {
		col := make([]float64, h)
		for jj := range col {
			col[jj] = v
		}
		out[ii] = col
	}
	return out
}
