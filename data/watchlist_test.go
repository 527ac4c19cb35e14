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

package data_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-risk/data"
)

var _ = Describe("Watchlist", func() {
	BeforeEach(func() {
		data.InitializeWatchlists()
	})

	It("loads the embedded watchlists", func() {
		Expect(len(data.WatchlistList)).To(BeNumerically(">=", 3))
		Expect(data.WatchlistMap).To(HaveKey("megacap"))
	})

	It("looks up a watchlist by shortcode", func() {
		watchlist, err := data.GetWatchlist("megacap")
		Expect(err).To(BeNil())
		Expect(watchlist.Name).To(Equal("Megacap Tech"))
		Expect(watchlist.Tickers).To(Equal([]string{"AAPL", "TSLA", "GOOGL", "MSFT", "AMZN"}))
	})

	It("errors for unknown shortcodes", func() {
		_, err := data.GetWatchlist("unknown")
		Expect(err).ToNot(BeNil())
		Expect(errors.Is(err, data.ErrWatchlistNotFound)).To(BeTrue())
	})

	It("does not duplicate watchlists when initialized twice", func() {
		count := len(data.WatchlistList)
		data.InitializeWatchlists()
		Expect(data.WatchlistList).To(HaveLen(count))
	})
})
