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

package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/quantscope/qs-api/common"
	"github.com/quantscope/qs-api/data"
	"github.com/quantscope/qs-api/observability/opentelemetry"
	"github.com/quantscope/qs-api/portfolio"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// quoteProvider backs every handler that needs market data
var quoteProvider = data.NewStooq()

type OptimizeRequest struct {
	Tickers      []string `json:"tickers"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	RiskFreeRate float64  `json:"riskFreeRate"`
	NumSamples   int      `json:"numSamples"`
}

// Optimize computes the maximum-Sharpe portfolio over the requested tickers
// and date range
func Optimize(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.Context(), "handler.Optimize")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	var req OptimizeRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Msg("could not parse optimize request body")
		return fiber.ErrBadRequest
	}

	if len(req.Tickers) < 2 {
		return fiber.NewError(fiber.StatusBadRequest, "at least two tickers are required")
	}

	begin, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	common.ArrToUpper(req.Tickers)
	quotes, err := quoteProvider.GetMultiple(ctx, req.Tickers, begin, end)
	if err != nil {
		return dataError(err)
	}

	result, err := portfolio.Optimize(ctx, &portfolio.OptimizeRequest{
		Prices:       data.CloseFrames(quotes),
		RiskFreeRate: req.RiskFreeRate,
		NumSamples:   req.NumSamples,
	})
	if err != nil {
		if errors.Is(err, portfolio.ErrInsufficientData) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		log.Error().Err(err).Strs("Tickers", req.Tickers).Msg("optimization failed")
		return fiber.ErrInternalServerError
	}

	return c.JSON(result)
}

func parseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	tz := common.GetTimezone()

	begin, err := time.ParseInLocation("2006-01-02", startDate, tz)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("startDate must be formatted as YYYY-MM-DD")
	}

	var end time.Time
	if endDate == "" || endDate == "now" {
		year, month, day := time.Now().In(tz).Date()
		end = time.Date(year, month, day, 0, 0, 0, 0, tz)
	} else {
		end, err = time.ParseInLocation("2006-01-02", endDate, tz)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("endDate must be formatted as YYYY-MM-DD")
		}
	}

	if !begin.Before(end) {
		return time.Time{}, time.Time{}, errors.New("startDate must be before endDate")
	}

	return begin, end, nil
}

// dataError maps provider failures onto HTTP statuses
func dataError(err error) error {
	switch {
	case errors.Is(err, data.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, data.ErrInvalidTimeRange), errors.Is(err, data.ErrEmptyResponse):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("quote download failed")
		return fiber.ErrBadGateway
	}
}
