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
	"time"

	"github.com/quantscope/qs-api/common"
	"github.com/quantscope/qs-api/data"
	"github.com/quantscope/qs-api/portfolio"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	optimizeStartDate    string
	optimizeEndDate      string
	optimizeRiskFreeRate float64
	optimizeNumSamples   int
)

func init() {
	optimizeCmd.Flags().StringVar(&optimizeStartDate, "start", "2015-01-01", "History start date (YYYY-MM-DD)")
	optimizeCmd.Flags().StringVar(&optimizeEndDate, "end", "now", "History end date (YYYY-MM-DD or 'now')")
	optimizeCmd.Flags().Float64Var(&optimizeRiskFreeRate, "risk-free-rate", 0.0, "Annual risk free rate used in the sharpe ratio")
	optimizeCmd.Flags().IntVar(&optimizeNumSamples, "samples", 5000, "Number of random portfolios to sample for the frontier")

	rootCmd.AddCommand(optimizeCmd)
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize [ticker]...",
	Short: "Compute the maximum sharpe ratio portfolio for a set of tickers",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()
		ctx := context.Background()

		begin, end, err := cliDateRange(optimizeStartDate, optimizeEndDate)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid date range")
		}

		common.ArrToUpper(args)
		provider := data.NewStooq()
		quotes, err := provider.GetMultiple(ctx, args, begin, end)
		if err != nil {
			log.Fatal().Err(err).Strs("Tickers", args).Msg("could not download quotes")
		}

		result, err := portfolio.Optimize(ctx, &portfolio.OptimizeRequest{
			Prices:       data.CloseFrames(quotes),
			RiskFreeRate: optimizeRiskFreeRate,
			NumSamples:   optimizeNumSamples,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("optimization failed")
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Ticker", "Weight", "Annual Return", "Annual Volatility"})
		table.SetFooter([]string{"Portfolio", fmt.Sprintf("Sharpe %.4f", result.Optimal.SharpeRatio),
			fmt.Sprintf("%.4f", result.Optimal.Return), fmt.Sprintf("%.4f", result.Optimal.Volatility)})
		table.SetBorder(false)

		for idx, ticker := range result.Tickers {
			stat := result.Assets[ticker]
			table.Append([]string{ticker, fmt.Sprintf("%.4f", result.Weights[idx]),
				fmt.Sprintf("%.4f", stat.Return), fmt.Sprintf("%.4f", stat.Volatility)})
		}

		table.Render()
	},
}

func cliDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	tz := common.GetTimezone()

	begin, err := time.ParseInLocation("2006-01-02", startDate, tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	var end time.Time
	if endDate == "now" || endDate == "" {
		year, month, day := time.Now().In(tz).Date()
		end = time.Date(year, month, day, 0, 0, 0, 0, tz)
	} else {
		end, err = time.ParseInLocation("2006-01-02", endDate, tz)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	return begin, end, nil
}
