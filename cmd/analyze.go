// Copyright 2021-2025
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
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/risk"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
)

var (
	analyzeStartDate string
	analyzeEndDate   string
	analyzeSimulate  bool
	analyzeWatchlist string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeStartDate, "start", "2023-01-01", "First date of the analysis period (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeEndDate, "end", "now", "Last date of the analysis period (YYYY-MM-DD or 'now')")
	analyzeCmd.Flags().BoolVar(&analyzeSimulate, "simulate", false, "Run a monte carlo simulation of the first ticker")
	analyzeCmd.Flags().StringVarP(&analyzeWatchlist, "watchlist", "w", "", "Analyze the tickers of the named watchlist")
}

var analyzeCmd = &cobra.Command{
	Use:        "analyze [flags] TICKER...",
	Short:      "Analyze the risk profile of a basket of tickers",
	Args:       cobra.ArbitraryArgs,
	ArgAliases: []string{"TICKER"},
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		// Initialize data framework
		data.InitializeWatchlists()
		log.Info().Msg("initialized data framework")

		tickers := data.ParseTickers(strings.Join(args, ","))
		if analyzeWatchlist != "" {
			watchlist, err := data.GetWatchlist(analyzeWatchlist)
			if err != nil {
				log.Fatal().Err(err).Str("Watchlist", analyzeWatchlist).Msg("watchlist not found")
			}
			tickers = append(tickers, watchlist.Tickers...)
		}
		if len(tickers) == 0 {
			log.Fatal().Msg("no tickers requested; list tickers as arguments or use --watchlist")
		}

		tz := common.GetTimezone()
		startDate, err := time.ParseInLocation("2006-01-02", analyzeStartDate, tz)
		if err != nil {
			log.Fatal().Err(err).Str("StartDate", analyzeStartDate).Msg("cannot parse start date")
		}

		var endDate time.Time
		if analyzeEndDate == "now" {
			endDate = time.Now()
			year, month, day := endDate.Date()
			endDate = time.Date(year, month, day, 0, 0, 0, 0, tz)
		} else {
			endDate, err = time.ParseInLocation("2006-01-02", analyzeEndDate, tz)
			if err != nil {
				log.Fatal().Err(err).Str("EndDate", analyzeEndDate).Msg("cannot parse end date")
			}
		}

		manager, err := data.NewManager()
		if err != nil {
			log.Fatal().Err(err).Msg("could not create data manager")
		}

		analyzer := risk.New(manager)
		analyzer.Simulate = analyzeSimulate

		analysis, err := analyzer.Run(context.Background(), tickers, startDate, endDate)
		if err != nil {
			if errors.Is(err, data.ErrNoData) {
				log.Fatal().Strs("Tickers", tickers).Msg("no data found; please check ticker symbols")
			}
			log.Fatal().Err(err).Strs("Tickers", tickers).Msg("could not analyze tickers")
		}

		fmt.Printf("Risk analysis of %s\n", strings.Join(analysis.Tickers, ", "))
		fmt.Printf("Period: %s through %s\n\n", analysis.Begin.Format("2006-01-02"), analysis.End.Format("2006-01-02"))

		preview := analysis.Prices
		if preview.Len() > 5 {
			preview = preview.Trim(preview.Index[preview.Len()-5], preview.End())
		}
		fmt.Println("Latest Prices:")
		fmt.Println(preview.Table())

		fmt.Println("Annualized Volatility:")
		fmt.Println(analysis.Volatility.Table())

		fmt.Println("Correlation Matrix:")
		fmt.Println(analysis.Correlation.Table())

		// rows with missing quotes cannot be charted
		priceHistory := analysis.Prices.Copy().Drop(math.NaN())
		if priceHistory.Len() > 1 {
			fmt.Println(asciigraph.PlotMany(priceHistory.Vals,
				asciigraph.Height(15),
				asciigraph.Caption("Price history")))
			fmt.Println()
		}

		fmt.Println(asciigraph.PlotMany(analysis.Cumulative.Vals,
			asciigraph.Height(15),
			asciigraph.Caption("Growth of $1")))
		fmt.Println()

		for idx, ticker := range analysis.Cumulative.ColNames {
			col := analysis.Cumulative.Vals[idx]
			fmt.Printf("%s\t%.2f%%\n", ticker, (col[len(col)-1]-1)*100)
		}

		if analysis.Simulation != nil {
			firstTicker := analysis.Tickers[0]
			lastPriceCol := analysis.Prices.Vals[0]
			lastPrice := lastPriceCol[len(lastPriceCol)-1]

			envelope := analysis.Simulation.Min()
			envelope.Insert("max", analysis.Simulation.Max().Vals[0])
			envelope = envelope.Drop(math.NaN())
			if envelope.Len() > 1 {
				fmt.Println()
				fmt.Println(asciigraph.PlotMany(envelope.Vals,
					asciigraph.Height(15),
					asciigraph.Caption(fmt.Sprintf("Simulated %s price envelope over the next trading year", firstTicker))))
			}
			fmt.Println()

			up := analysis.Simulation.Last().Count(func(x float64) bool { return x > lastPrice })
			fmt.Printf("%d of %d simulated paths end above the last %s price of %.2f\n",
				int(up.Vals[0][0]), len(analysis.Simulation.ColNames), firstTicker, lastPrice)
		}
	},
}
