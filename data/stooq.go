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

package data

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quantscope/qs-api/common"
	"github.com/quantscope/qs-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

var stooqURL = "https://stooq.com"

type stooq struct{}

// NewStooq creates a provider backed by the stooq.com CSV download endpoint
func NewStooq() Provider {
	return &stooq{}
}

func (s *stooq) GetQuotes(ctx context.Context, ticker string, begin, end time.Time) (*PriceSeries, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "stooq.GetQuotes")
	defer span.End()

	if !begin.Before(end) {
		return nil, ErrInvalidTimeRange
	}

	subLog := log.With().Str("Ticker", ticker).Str("Source", "stooq").Logger()

	key := common.CacheKey("stooq", ticker, begin.Format("20060102"), end.Format("20060102"))
	if body, err := common.CacheGet(key); err == nil {
		subLog.Debug().Msg("serving quotes from cache")
		return parseQuoteCSV(ticker, body)
	}

	url := fmt.Sprintf("%s/q/d/l/?s=%s&d1=%s&d2=%s&i=d", stooqURL,
		strings.ToLower(ticker), begin.Format("20060102"), end.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		subLog.Warn().Err(err).Msg("quote download failed")
		return nil, fmt.Errorf("%w: %s", ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		subLog.Warn().Int("StatusCode", resp.StatusCode).Msg("quote download returned error status")
		return nil, fmt.Errorf("%w: status %d", ErrProviderFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderFailure, err)
	}

	series, err := parseQuoteCSV(ticker, body)
	if err != nil {
		return nil, err
	}

	if err := common.CacheSet(key, body); err != nil {
		subLog.Warn().Err(err).Msg("could not cache quotes")
	}

	return series, nil
}

func (s *stooq) GetMultiple(ctx context.Context, tickers []string, begin, end time.Time) (map[string]*PriceSeries, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "stooq.GetMultiple")
	defer span.End()

	limit := viper.GetInt("data.max_concurrency")
	if limit <= 0 {
		limit = 4
	}

	quotes := make(map[string]*PriceSeries, len(tickers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			series, err := s.GetQuotes(gctx, ticker, begin, end)
			if err != nil {
				return fmt.Errorf("%s: %w", ticker, err)
			}

			mu.Lock()
			quotes[ticker] = series
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return quotes, nil
}

// parseQuoteCSV decodes the stooq daily download format:
// Date,Open,High,Low,Close,Volume with dates in YYYY-MM-DD. Rows with an
// unparsable date are skipped; unparsable prices become NaN.
func parseQuoteCSV(ticker string, body []byte) (*PriceSeries, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderFailure, err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyResponse
	}

	tz := common.GetTimezone()
	series := &PriceSeries{Ticker: ticker}

	for _, record := range records[1:] {
		if len(record) < 5 {
			continue
		}

		dt, err := time.ParseInLocation("2006-01-02", record[0], tz)
		if err != nil {
			continue
		}

		series.Dates = append(series.Dates, dt)
		series.Open = append(series.Open, parsePrice(record[1]))
		series.High = append(series.High, parsePrice(record[2]))
		series.Low = append(series.Low, parsePrice(record[3]))
		series.Close = append(series.Close, parsePrice(record[4]))
		if len(record) > 5 {
			series.Volume = append(series.Volume, parsePrice(record[5]))
		} else {
			series.Volume = append(series.Volume, math.NaN())
		}
	}

	if len(series.Dates) == 0 {
		return nil, ErrEmptyResponse
	}

	return series, nil
}

func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
