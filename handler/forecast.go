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
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/quantscope/qs-api/dataframe"
	"github.com/quantscope/qs-api/forecast"
	"github.com/quantscope/qs-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

type ForecastRequest struct {
	Ticker    string          `json:"ticker"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Horizon   int             `json:"horizon"`
	Order     *forecast.Order `json:"order,omitempty"`
	Exog      []string        `json:"exogenousTickers,omitempty"`
}

// Forecast projects a ticker's closing price Horizon periods into the
// future. Additional tickers may be supplied as exogenous regressors.
func Forecast(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.Context(), "handler.Forecast")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	var req ForecastRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Msg("could not parse forecast request body")
		return fiber.ErrBadRequest
	}

	if req.Ticker == "" {
		return fiber.NewError(fiber.StatusBadRequest, "ticker is required")
	}

	begin, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ticker := strings.ToUpper(req.Ticker)
	series, err := quoteProvider.GetQuotes(ctx, ticker, begin, end)
	if err != nil {
		return dataError(err)
	}

	var exog *dataframe.DataFrame
	if len(req.Exog) > 0 {
		exogTickers := make([]string, len(req.Exog))
		for ii, t := range req.Exog {
			exogTickers[ii] = strings.ToUpper(t)
		}

		exogQuotes, err := quoteProvider.GetMultiple(ctx, exogTickers, begin, end)
		if err != nil {
			return dataError(err)
		}

		frames := make([]*dataframe.DataFrame, 0, len(exogQuotes))
		for _, t := range exogTickers {
			frames = append(frames, exogQuotes[t].CloseFrame())
		}
		exog = dataframe.InnerJoin(frames...)
	}

	engine := forecast.NewEngine()
	result, err := engine.Forecast(ctx, &forecast.Request{
		Ticker:  ticker,
		Prices:  series.CloseFrame(),
		Exog:    exog,
		Horizon: req.Horizon,
		Order:   req.Order,
	})
	if err != nil {
		switch {
		case errors.Is(err, forecast.ErrInvalidHorizon):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, forecast.ErrInsufficientData):
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, forecast.ErrFitFailure):
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		default:
			log.Error().Err(err).Str("Ticker", ticker).Msg("forecast failed")
			return fiber.ErrInternalServerError
		}
	}

	return c.JSON(result)
}
