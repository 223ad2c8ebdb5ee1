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
	"os"
	"os/signal"
	"runtime/pprof"
	"runtime/trace"

	"github.com/quantscope/qs-api/common"
	"github.com/quantscope/qs-api/middleware"
	"github.com/quantscope/qs-api/observability/opentelemetry"
	"github.com/quantscope/qs-api/router"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	serveCmd.Flags().String("cors-origins", "http://localhost:8080", "Comma separated list of allowed CORS origins")
	viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the qs-api server",
	Long:  `Run HTTP server that implements the QuantScope API`,
	Run: func(cmd *cobra.Command, args []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile output file")
			}
			pprof.StartCPUProfile(f)
			defer pprof.StopCPUProfile()
		}

		if Trace {
			f, err := os.Create("trace.out")
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create trace output file")
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal().Err(err).Msg("failed to close trace file")
				}
			}()

			if err := trace.Start(f); err != nil {
				log.Fatal().Err(err).Msg("failed to start trace")
			}
			defer trace.Stop()
		}

		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging")

		if viper.GetString("otlp.endpoint") != "" {
			shutdownTracing, err := opentelemetry.Setup()
			if err != nil {
				log.Fatal().Err(err).Msg("could not initialize tracing")
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					log.Error().Err(err).Msg("error shutting down tracing")
				}
			}()
		}

		app := fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			log.Info().Str("Signal", sig.String()).Msg("received signal; shutting down")
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("error during shutdown")
			}
		}()

		app.Use(cors.New(cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}))

		app.Use(middleware.NewLogger())

		router.SetupRoutes(app)

		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("server exited with error")
		}
	},
}
