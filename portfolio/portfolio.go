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
	"context"
	"math"
	"time"

	"github.com/quantscope/qs-api/dataframe"
	"github.com/quantscope/qs-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// OptimizeRequest describes a single mean-variance optimization run. Prices
// maps ticker to a single-column frame of close prices.
type OptimizeRequest struct {
	Prices       map[string]*dataframe.DataFrame
	RiskFreeRate float64
	NumSamples   int
}

// AssetStat summarizes an individual asset on the risk/return plane
type AssetStat struct {
	Return     float64 `json:"return"`
	Volatility float64 `json:"volatility"`
}

// OptimizeResult is the complete output of one optimization run. Weights is
// ordered by Tickers.
type OptimizeResult struct {
	Tickers  []string             `json:"tickers"`
	Weights  []float64            `json:"weights"`
	Optimal  Point                `json:"optimal"`
	Assets   map[string]AssetStat `json:"assets"`
	Frontier []Point              `json:"frontier"`
}

// Optimize runs the full Markowitz pipeline: build the aligned return matrix,
// derive mean returns and the sample covariance matrix, solve for the
// maximum-Sharpe weight vector and sample the feasible region. All derived
// statistics are recomputed from scratch; nothing is retained between calls.
func Optimize(ctx context.Context, req *OptimizeRequest) (*OptimizeResult, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "portfolio.Optimize")
	defer span.End()

	start := time.Now()

	returns, err := BuildReturns(req.Prices)
	if err != nil {
		return nil, err
	}

	ppy := AnnualizationFactor(returns.InferFrequency())
	meanReturns := returns.MeanVector()
	cov := returns.CovarianceMatrix()

	weights, err := MaxSharpe(meanReturns, cov, req.RiskFreeRate, ppy)
	if err != nil {
		log.Error().Err(err).Strs("Tickers", returns.ColNames).Msg("max sharpe solver did not converge")
		return nil, err
	}

	assets := make(map[string]AssetStat, len(returns.ColNames))
	for idx, ticker := range returns.ColNames {
		assets[ticker] = AssetStat{
			Return:     meanReturns[idx] * ppy,
			Volatility: math.Sqrt(cov.At(idx, idx) * ppy),
		}
	}

	result := &OptimizeResult{
		Tickers:  returns.ColNames,
		Weights:  weights,
		Optimal:  Stats(weights, meanReturns, cov, req.RiskFreeRate, ppy),
		Assets:   assets,
		Frontier: RandomPortfolios(meanReturns, cov, req.RiskFreeRate, ppy, req.NumSamples),
	}

	log.Info().
		Strs("Tickers", returns.ColNames).
		Int("ReturnRows", returns.Len()).
		Dur("Elapsed", time.Since(start)).
		Float64("SharpeRatio", result.Optimal.SharpeRatio).
		Msg("optimized portfolio")

	return result, nil
}
