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

// Package montecarlo simulates future prices with a fixed normal random
// walk. Every ticker advances together on each step but only the first
// ticker's path is recorded, matching the analysis report which charts a
// single symbol.
package montecarlo

import (
	"fmt"
	"math/rand/v2"

	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat/distuv"
)

// Simulator runs a fixed-horizon random walk price simulation
type Simulator struct {
	NumPaths int
	NumDays  int
}

// New creates a simulator with the standard 50 path x 252 trading day
// horizon
func New() *Simulator {
	return &Simulator{
		NumPaths: 50,
		NumDays:  252,
	}
}

// Run simulates NumPaths price paths of NumDays steps each. lastPrices holds
// the final observed price per ticker and dailyVols the standard deviation
// of each ticker's daily returns. Each step multiplies every price by
// (1 + N(0, vol)); the first recorded value is already one perturbation away
// from the last observed price. Draws are not seeded so every run produces
// different paths.
func (s *Simulator) Run(lastPrices []float64, dailyVols []float64) *dataframe.DataFrame[int] {
	if len(lastPrices) == 0 || len(lastPrices) != len(dailyVols) {
		log.Warn().Int("NumPrices", len(lastPrices)).Int("NumVols", len(dailyVols)).Msg("cannot simulate; prices and volatilities must be the same non-zero length")
		return &dataframe.DataFrame[int]{
			Index:    []int{},
			ColNames: []string{},
			Vals:     [][]float64{},
		}
	}

	src := rand.NewPCG(rand.Uint64(), rand.Uint64())
	dists := make([]distuv.Normal, len(dailyVols))
	for idx, vol := range dailyVols {
		dists[idx] = distuv.Normal{
			Mu:    0,
			Sigma: vol,
			Src:   src,
		}
	}

	df := &dataframe.DataFrame[int]{
		Index:    make([]int, s.NumDays),
		ColNames: make([]string, s.NumPaths),
		Vals:     make([][]float64, s.NumPaths),
	}
	for day := 0; day < s.NumDays; day++ {
		df.Index[day] = day + 1
	}

	prices := make([]float64, len(lastPrices))
	for path := 0; path < s.NumPaths; path++ {
		df.ColNames[path] = fmt.Sprintf("Sim %d", path)

		col := make([]float64, s.NumDays)
		copy(prices, lastPrices)

		for day := 0; day < s.NumDays; day++ {
			for idx := range prices {
				prices[idx] *= 1.0 + dists[idx].Rand()
			}
			col[day] = prices[0]
		}

		df.Vals[path] = col
	}

	return df
}
