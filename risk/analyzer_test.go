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

package risk_test

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/risk"
)

const oneRowCSV = `date,close,high,low,open,volume,adjClose,adjHigh,adjLow,adjOpen,adjVolume,divCash,splitFactor
2023-01-03,100.5,101.9,99.4,99.9,1000000,100.0,101.4,98.9,99.4,1000000,0.0,1.0
`

var _ = Describe("Analyzer", func() {
	var (
		ctx      context.Context
		analyzer *risk.Analyzer
		tz       *time.Location
		begin    time.Time
		end      time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		tz = common.GetTimezone()
		begin = time.Date(2023, 1, 3, 0, 0, 0, 0, tz)
		end = time.Date(2023, 1, 9, 0, 0, 0, 0, tz)

		httpmock.Activate()

		viper.Set("data.provider", "tiingo")
		viper.Set("tiingo.token", "TEST")

		manager, err := data.NewManager()
		Expect(err).To(BeNil())
		analyzer = risk.New(manager)

		content, err := os.ReadFile("../data/testdata/aapl.csv")
		Expect(err).To(BeNil())
		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/AAPL/prices?startDate=2023-01-03&endDate=2023-01-09&format=csv&resampleFreq=daily&token=TEST",
			httpmock.NewBytesResponder(200, content))

		content, err = os.ReadFile("../data/testdata/msft.csv")
		Expect(err).To(BeNil())
		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/MSFT/prices?startDate=2023-01-03&endDate=2023-01-09&format=csv&resampleFreq=daily&token=TEST",
			httpmock.NewBytesResponder(200, content))

		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/ONEROW/prices?startDate=2023-01-03&endDate=2023-01-09&format=csv&resampleFreq=daily&token=TEST",
			httpmock.NewStringResponder(200, oneRowCSV))

		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/BOGUS/prices?startDate=2023-01-03&endDate=2023-01-09&format=csv&resampleFreq=daily&token=TEST",
			httpmock.NewStringResponder(404, "Not Found"))
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	Context("with a single ticker", func() {
		It("computes every risk table", func() {
			analysis, err := analyzer.Run(ctx, []string{"AAPL"}, begin, end)
			Expect(err).To(BeNil())

			Expect(analysis.Tickers).To(Equal([]string{"AAPL"}))
			Expect(analysis.Prices.Len()).To(Equal(5))
			Expect(analysis.Returns.Len()).To(Equal(4))
			Expect(analysis.Cumulative.Len()).To(Equal(4))
			Expect(analysis.Volatility.Index).To(Equal([]string{"AAPL"}))
			Expect(analysis.Correlation.Vals[0][0]).To(BeNumerically("~", 1.0, 1e-9))
			Expect(analysis.Cumulative.Vals[0][3]).To(BeNumerically("~", 1.03, 1e-9))
		})

		It("does not simulate unless asked", func() {
			analysis, err := analyzer.Run(ctx, []string{"AAPL"}, begin, end)
			Expect(err).To(BeNil())
			Expect(analysis.Simulation).To(BeNil())
		})

		It("simulates future prices when asked", func() {
			analyzer.Simulate = true
			analysis, err := analyzer.Run(ctx, []string{"AAPL"}, begin, end)
			Expect(err).To(BeNil())

			Expect(analysis.Simulation).ToNot(BeNil())
			Expect(analysis.Simulation.Len()).To(Equal(252))
			Expect(analysis.Simulation.Vals).To(HaveLen(50))
			for _, col := range analysis.Simulation.Vals {
				for _, v := range col {
					Expect(v).To(BeNumerically(">", 0.0))
				}
			}
		})
	})

	Context("with multiple tickers", func() {
		It("drops return rows around missing quotes", func() {
			// msft has no quote on 2023-01-06 so two return rows are lost
			analysis, err := analyzer.Run(ctx, []string{"AAPL", "MSFT"}, begin, end)
			Expect(err).To(BeNil())

			Expect(analysis.Prices.Len()).To(Equal(5))
			Expect(analysis.Returns.Len()).To(Equal(2))
			Expect(analysis.Correlation.Index).To(Equal([]string{"AAPL", "MSFT"}))
			Expect(analysis.Correlation.Vals[0][1]).To(BeNumerically("~", analysis.Correlation.Vals[1][0], 1e-9))
		})
	})

	Context("when no data is available", func() {
		It("halts with ErrNoData when a ticker has too few rows to compute a return", func() {
			_, err := analyzer.Run(ctx, []string{"ONEROW"}, begin, end)
			Expect(err).ToNot(BeNil())
			Expect(errors.Is(err, data.ErrNoData)).To(BeTrue())
		})

		It("propagates download failures", func() {
			_, err := analyzer.Run(ctx, []string{"BOGUS"}, begin, end)
			Expect(err).ToNot(BeNil())
			Expect(errors.Is(err, data.ErrNoData)).To(BeFalse())
		})
	})

	Context("analysis identity", func() {
		It("fingerprints the analysis inputs", func() {
			first, err := analyzer.Run(ctx, []string{"AAPL"}, begin, end)
			Expect(err).To(BeNil())

			second, err := analyzer.Run(ctx, []string{"AAPL"}, begin, end)
			Expect(err).To(BeNil())

			Expect(first.Fingerprint).To(Equal(second.Fingerprint))
			Expect(first.ID).ToNot(Equal(second.ID))

			other, err := analyzer.Run(ctx, []string{"AAPL", "MSFT"}, begin, end)
			Expect(err).To(BeNil())
			Expect(other.Fingerprint).ToNot(Equal(first.Fingerprint))
		})
	})
})
