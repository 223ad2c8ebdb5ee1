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
	"math"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/stat"
)

// fallbackOrder is returned when no candidate model can be fit at all; the
// forecast proceeds with a minimal ARIMA(1,1,1) rather than failing outright
var fallbackOrder = Order{P: 1, D: 1, Q: 1}

// Searcher selects a model order for a training series. Implementations
// never fail: an exhausted search degrades to a fixed fallback order.
type Searcher interface {
	Search(ctx context.Context, y []float64, exog [][]float64) Order
}

// NewSearcher returns the searcher selected by the `forecast.search`
// configuration key; stepwise unless "grid" is configured.
func NewSearcher() Searcher {
	if viper.GetString("forecast.search") == "grid" {
		return NewGridSearch()
	}
	return NewStepwiseSearch()
}

// GridSearch exhaustively fits every (p,d,q) combination within its bounds
// and keeps the one with the lowest AIC. Combinations that fail to fit are
// skipped. Bounds follow the original exhaustive search: p,q up to 3 and d
// up to 2.
type GridSearch struct {
	MaxP int
	MaxD int
	MaxQ int
}

func NewGridSearch() *GridSearch {
	return &GridSearch{MaxP: 3, MaxD: 2, MaxQ: 3}
}

func (g *GridSearch) Search(ctx context.Context, y []float64, exog [][]float64) Order {
	bestAIC := math.Inf(1)
	var bestOrder Order
	found := false

	for p := 0; p <= g.MaxP; p++ {
		for d := 0; d <= g.MaxD; d++ {
			for q := 0; q <= g.MaxQ; q++ {
				if p == 0 && d == 0 && q == 0 {
					continue
				}
				if ctx.Err() != nil {
					break
				}

				model, err := Fit(y, exog, Order{P: p, D: d, Q: q}, SeasonalOrder{})
				if err != nil {
					continue
				}

				if model.AIC() < bestAIC {
					bestAIC = model.AIC()
					bestOrder = model.Order
					found = true
				}
			}
		}
	}

	if !found {
		// ErrSearchExhausted is absorbed here; never surfaced to the caller
		log.Warn().Int("NumObservations", len(y)).Msgf("%s; falling back to %s", ErrSearchExhausted, fallbackOrder)
		return fallbackOrder
	}

	log.Debug().Str("Order", bestOrder.String()).Float64("AIC", bestAIC).Msg("grid search selected order")
	return bestOrder
}

// StepwiseSearch implements a stepwise order search in the manner of
// Hyndman-Khandakar: the differencing order comes from a variance-reduction
// heuristic, then a hill climb over (p,q) neighbors of four starting models
// minimizes AIC. Much cheaper than the exhaustive grid for the default
// bounds (p,q up to 5). Falls back to GridSearch when no starting model can
// be fit.
type StepwiseSearch struct {
	MaxP int
	MaxD int
	MaxQ int
}

func NewStepwiseSearch() *StepwiseSearch {
	return &StepwiseSearch{MaxP: 5, MaxD: 2, MaxQ: 5}
}

func (s *StepwiseSearch) Search(ctx context.Context, y []float64, exog [][]float64) Order {
	d := chooseDifferencing(y, s.MaxD)

	type scored struct {
		order Order
		aic   float64
	}

	tried := map[Order]float64{}
	eval := func(order Order) float64 {
		if aic, ok := tried[order]; ok {
			return aic
		}
		aic := math.Inf(1)
		if model, err := Fit(y, exog, order, SeasonalOrder{}); err == nil {
			aic = model.AIC()
		}
		tried[order] = aic
		return aic
	}

	best := scored{aic: math.Inf(1)}
	for _, start := range []Order{
		{P: 2, D: d, Q: 2},
		{P: 0, D: d, Q: 0},
		{P: 1, D: d, Q: 0},
		{P: 0, D: d, Q: 1},
	} {
		if start.P == 0 && start.D == 0 && start.Q == 0 {
			continue
		}
		if aic := eval(start); aic < best.aic {
			best = scored{order: start, aic: aic}
		}
	}

	if math.IsInf(best.aic, 1) {
		// no starting point could be fit; defer to the exhaustive strategy
		log.Warn().Int("NumObservations", len(y)).Msg("stepwise search failed; falling back to grid search")
		return NewGridSearch().Search(ctx, y, exog)
	}

	improved := true
	for improved && ctx.Err() == nil {
		improved = false
		for _, neighbor := range []Order{
			{P: best.order.P + 1, D: d, Q: best.order.Q},
			{P: best.order.P - 1, D: d, Q: best.order.Q},
			{P: best.order.P, D: d, Q: best.order.Q + 1},
			{P: best.order.P, D: d, Q: best.order.Q - 1},
			{P: best.order.P + 1, D: d, Q: best.order.Q + 1},
			{P: best.order.P - 1, D: d, Q: best.order.Q - 1},
		} {
			if neighbor.P < 0 || neighbor.Q < 0 || neighbor.P > s.MaxP || neighbor.Q > s.MaxQ {
				continue
			}
			if neighbor.P == 0 && neighbor.D == 0 && neighbor.Q == 0 {
				continue
			}

			if aic := eval(neighbor); aic < best.aic {
				best = scored{order: neighbor, aic: aic}
				improved = true
			}
		}
	}

	log.Debug().Str("Order", best.order.String()).Float64("AIC", best.aic).Msg("stepwise search selected order")
	return best.order
}

// chooseDifferencing increases d until another round of differencing no
// longer shrinks the standard deviation of the series
func chooseDifferencing(y []float64, maxD int) int {
	if len(y) < 3 {
		return 1
	}

	current := y
	sd := stat.StdDev(current, nil)
	d := 0
	for d < maxD {
		next := difference(current, 1)
		if len(next) < 3 {
			break
		}
		nextSD := stat.StdDev(next, nil)
		if nextSD >= sd*0.95 {
			break
		}
		current = next
		sd = nextSD
		d++
	}

	return d
}
