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
	"sync"

	"github.com/quantscope/qs-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc is called as each asset in a batch completes. completed and
// total count assets, not forecast steps.
type ProgressFunc func(ticker string, completed, total int)

// BatchResult carries the per-asset outcomes of a batch run. Failed assets
// appear in Errors keyed by ticker; the batch as a whole succeeds when at
// least one asset does.
type BatchResult struct {
	Results map[string]*Result
	Errors  map[string]error
}

// Batch forecasts each request concurrently, bounded by the
// `forecast.max_concurrency` configuration key (default 4). A canceled
// context abandons unstarted assets and returns the context's error.
func (e *Engine) Batch(ctx context.Context, reqs []*Request, progress ProgressFunc) (*BatchResult, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "forecast.Batch")
	defer span.End()

	limit := viper.GetInt("forecast.max_concurrency")
	if limit <= 0 {
		limit = 4
	}

	batch := &BatchResult{
		Results: make(map[string]*Result, len(reqs)),
		Errors:  make(map[string]error),
	}

	var mu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, req := range reqs {
		req := req
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			result, err := e.Forecast(gctx, req)

			mu.Lock()
			defer mu.Unlock()
			completed++
			if err != nil {
				log.Warn().Err(err).Str("Ticker", req.Ticker).Msg("forecast failed for asset")
				batch.Errors[req.Ticker] = err
			} else {
				batch.Results[req.Ticker] = result
			}
			if progress != nil {
				progress(req.Ticker, completed, len(reqs))
			}

			// per-asset failures are recorded, not propagated; only
			// cancellation stops the group
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return batch, nil
}
