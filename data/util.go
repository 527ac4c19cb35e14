// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"math"
	"sort"
	"time"

	"github.com/penny-vault/pv-risk/dataframe"
)

func partitionArray(xs []string, chunkSize int) [][]string {
	if len(xs) == 0 {
		return nil
	}
	divided := make([][]string, (len(xs)+chunkSize-1)/chunkSize)
	prev := 0
	i := 0
	till := len(xs) - chunkSize
	for prev < till {
		next := prev + chunkSize
		divided[i] = xs[prev:next]
		prev = next
		i++
	}
	divided[i] = xs[prev:]
	return divided
}

func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	unique := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if !seen[symbol] {
			seen[symbol] = true
			unique = append(unique, symbol)
		}
	}
	return unique
}

type quoteResult struct {
	Ticker string
	Data   *dataframe.DataFrame[time.Time]
	Err    error
}

// mergeQuotes combines single column dataframes, one per ticker, into one
// dataframe over the union of all dates. Column order follows the requested
// symbol order, repeating a column when a symbol was requested twice. Dates
// where a ticker has no quote are filled with NaN.
func mergeQuotes(quotes map[string]*dataframe.DataFrame[time.Time], symbols []string) *dataframe.DataFrame[time.Time] {
	dateSet := make(map[time.Time]bool)
	for _, df := range quotes {
		for _, dt := range df.Index {
			dateSet[dt] = true
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for dt := range dateSet {
		dates = append(dates, dt)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	merged := &dataframe.DataFrame[time.Time]{
		Index:    dates,
		ColNames: make([]string, 0, len(symbols)),
		Vals:     make([][]float64, 0, len(symbols)),
	}

	for _, symbol := range symbols {
		df, ok := quotes[symbol]
		if !ok {
			continue
		}

		byDate := df.AsMap(symbol)
		col := make([]float64, len(dates))
		for idx, dt := range dates {
			if v, ok := byDate[dt]; ok {
				col[idx] = v
			} else {
				col[idx] = math.NaN()
			}
		}

		merged.Insert(symbol, col)
	}

	return merged
}
