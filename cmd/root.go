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
	"fmt"
	"os"

	"github.com/quantscope/qs-api/common"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Profile bool
var Trace bool

func init() {
	// Logging configuration
	viper.BindEnv("log.level", "QS_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "QS_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "QS_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in human readable format")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Tracing
	viper.BindEnv("otlp.endpoint", "OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP trace collector endpoint")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))

	// Cache
	viper.BindEnv("cache.local_size", "QS_CACHE_SIZE")
	rootCmd.PersistentFlags().Int("cache-size", 128, "Maximum number of quote responses held in the local cache")
	viper.BindPFlag("cache.local_size", rootCmd.PersistentFlags().Lookup("cache-size"))

	// Forecasting
	rootCmd.PersistentFlags().String("forecast-search", "stepwise", "Model order search strategy: stepwise or grid")
	viper.BindPFlag("forecast.search", rootCmd.PersistentFlags().Lookup("forecast-search"))

	rootCmd.PersistentFlags().BoolVar(&Profile, "cpu-profile", false, "Run pprof and save in profile.out")
	rootCmd.PersistentFlags().BoolVar(&Trace, "trace", false, "Trace program execution and save in trace.out")
}

var rootCmd = &cobra.Command{
	Use:     "qsapi",
	Version: common.CurrentVersion.String(),
	Short:   "QuantScope is a portfolio analytics package",
	Long:    `A portfolio analytics service that optimizes asset allocations and forecasts prices with seasonal ARIMA models.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
