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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-risk/data"
)

var _ = Describe("ParseTickers", func() {
	DescribeTable("parsing a comma separated ticker list",
		func(input string, expected []string) {
			Expect(data.ParseTickers(input)).To(Equal(expected))
		},
		Entry("a single ticker", "AAPL", []string{"AAPL"}),
		Entry("lower case tickers are converted to upper case", "aapl", []string{"AAPL"}),
		Entry("surrounding whitespace is trimmed", " aapl ,\tmsft ", []string{"AAPL", "MSFT"}),
		Entry("input order is preserved", "tsla,aapl,msft", []string{"TSLA", "AAPL", "MSFT"}),
		Entry("duplicates are kept", "AAPL,aapl", []string{"AAPL", "AAPL"}),
		Entry("empty entries are removed", "AAPL,,MSFT,", []string{"AAPL", "MSFT"}),
		Entry("an empty string has no tickers", "", []string{}),
		Entry("separators only has no tickers", ",,,", []string{}),
	)
})
