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

package data

import (
	"strings"

	"github.com/penny-vault/pv-risk/common"
)

// ParseTickers splits a comma separated list of ticker symbols, trimming
// whitespace and upper-casing each symbol. Empty fragments are removed.
// Symbols are not validated here; unknown symbols come back from the data
// provider as missing data. Order is preserved and duplicates are kept.
func ParseTickers(list string) []string {
	parts := strings.Split(list, ",")
	tickers := make([]string, 0, len(parts))

	for _, part := range parts {
		symbol := strings.TrimSpace(part)
		if symbol == "" {
			continue
		}
		tickers = append(tickers, symbol)
	}

	common.ArrToUpper(tickers)
	return tickers
}
