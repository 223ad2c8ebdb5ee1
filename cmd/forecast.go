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

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/quantscope/qs-api/common"
	"github.com/quantscope/qs-api/data"
	"github.com/quantscope/qs-api/dataframe"
	"github.com/quantscope/qs-api/forecast"
	"github.com/quantscope/qs-api/indicators"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	forecastStartDate string
	forecastEndDate   string
	forecastHorizon   int
	forecastExog      []string
	forecastMomentum  int
)

func init() {
	forecastCmd.Flags().StringVar(&forecastStartDate, "start", "2015-01-01", "History start date (YYYY-MM-DD)")
	forecastCmd.Flags().StringVar(&forecastEndDate, "end", "now", "History end date (YYYY-MM-DD or 'now')")
	forecastCmd.Flags().IntVar(&forecastHorizon, "horizon", 30, "Number of periods to forecast")
	forecastCmd.Flags().StringSliceVar(&forecastExog, "exog", nil, "Tickers to use as exogenous regressors")
	forecastCmd.Flags().IntVar(&forecastMomentum, "momentum", 0, "Add an n-period momentum regressor derived from each exogenous ticker (0 disables)")

	rootCmd.AddCommand(forecastCmd)
}

var forecastCmd = &cobra.Command{
	Use:   "forecast [ticker]...",
	Short: "Forecast the closing price of one or more tickers",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()
		ctx := context.Background()

		begin, end, err := cliDateRange(forecastStartDate, forecastEndDate)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid date range")
		}

		common.ArrToUpper(args)
		common.ArrToUpper(forecastExog)
		provider := data.NewStooq()

		quotes, err := provider.GetMultiple(ctx, args, begin, end)
		if err != nil {
			log.Fatal().Err(err).Strs("Tickers", args).Msg("could not download quotes")
		}

		var exog *dataframe.DataFrame
		if len(forecastExog) > 0 {
			exogQuotes, err := provider.GetMultiple(ctx, forecastExog, begin, end)
			if err != nil {
				log.Fatal().Err(err).Strs("Tickers", forecastExog).Msg("could not download exogenous quotes")
			}

			frames := make([]*dataframe.DataFrame, 0, len(forecastExog))
			for _, ticker := range forecastExog {
				closes := exogQuotes[ticker].CloseFrame()
				frames = append(frames, closes)
				if forecastMomentum > 0 {
					frames = append(frames, indicators.Momentum(closes, forecastMomentum))
				}
			}
			exog = dataframe.InnerJoin(frames...)
		}

		reqs := make([]*forecast.Request, 0, len(args))
		for _, ticker := range args {
			reqs = append(reqs, &forecast.Request{
				Ticker:  ticker,
				Prices:  quotes[ticker].CloseFrame(),
				Exog:    exog,
				Horizon: forecastHorizon,
			})
		}

		engine := forecast.NewEngine()
		batch, err := engine.Batch(ctx, reqs, func(ticker string, completed, total int) {
			log.Info().Str("Ticker", ticker).Int("Completed", completed).Int("Total", total).Msg("asset forecast finished")
		})
		if err != nil {
			log.Fatal().Err(err).Msg("forecast batch failed")
		}

		for ticker, ferr := range batch.Errors {
			log.Warn().Err(ferr).Str("Ticker", ticker).Msg("could not forecast asset")
		}

		for _, ticker := range args {
			result, ok := batch.Results[ticker]
			if !ok {
				continue
			}

			fmt.Printf("\n%s ARIMA%s\n", ticker, result.Order)
			if result.Metrics != nil {
				fmt.Printf("Backtest RMSE %.4f  MAE %.4f  MAPE %.2f%%\n",
					result.Metrics.RMSE, result.Metrics.MAE, result.Metrics.MAPE)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Date", "Forecast", "Lower 95%", "Upper 95%"})
			table.SetBorder(false)

			for idx, dt := range result.Dates {
				table.Append([]string{dt.Format("2006-01-02"),
					fmt.Sprintf("%.4f", result.Forecast[idx]),
					fmt.Sprintf("%.4f", result.Lower[idx]),
					fmt.Sprintf("%.4f", result.Upper[idx])})
			}

			table.Render()
		}
	},
}
