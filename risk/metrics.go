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

package risk

import (
	"math"
	"time"

	"github.com/penny-vault/pv-risk/dataframe"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RiskColName is the column header used for annualized volatility tables
const RiskColName = "Risk (%)"

// DailyReturns computes the day over day percent change for each column of
// the price dataframe. The first row is dropped since it has no prior value,
// as is any row where a column has no quote.
func DailyReturns(prices *dataframe.DataFrame[time.Time]) *dataframe.DataFrame[time.Time] {
	return prices.PctChange().Drop(math.NaN())
}

// DailyVolatility returns the standard deviation of each column of the
// returns dataframe.
func DailyVolatility(returns *dataframe.DataFrame[time.Time]) []float64 {
	vols := make([]float64, len(returns.Vals))
	for idx, col := range returns.Vals {
		vols[idx] = stat.StdDev(col, nil)
	}
	return vols
}

// AnnualizedVolatility scales the daily return standard deviation of each
// ticker to a yearly estimate, expressed as a percent. The trading year is
// 252 days.
func AnnualizedVolatility(returns *dataframe.DataFrame[time.Time]) *dataframe.DataFrame[string] {
	vols := DailyVolatility(returns)
	for idx := range vols {
		vols[idx] = vols[idx] * math.Sqrt(252.0) * 100.0
	}

	return &dataframe.DataFrame[string]{
		Index:    append([]string{}, returns.ColNames...),
		ColNames: []string{RiskColName},
		Vals:     [][]float64{vols},
	}
}

// Correlation computes the pairwise Pearson correlation between the return
// series of every ticker. The result is a symmetric ticker x ticker
// dataframe with 1.0 on the diagonal.
func Correlation(returns *dataframe.DataFrame[time.Time]) *dataframe.DataFrame[string] {
	numRows := returns.Len()
	numCols := len(returns.Vals)

	x := mat.NewDense(numRows, numCols, nil)
	for jj, col := range returns.Vals {
		for ii, v := range col {
			x.Set(ii, jj, v)
		}
	}

	corr := mat.NewSymDense(numCols, nil)
	stat.CorrelationMatrix(corr, x, nil)

	out := &dataframe.DataFrame[string]{
		Index:    append([]string{}, returns.ColNames...),
		ColNames: append([]string{}, returns.ColNames...),
		Vals:     make([][]float64, numCols),
	}

	for jj := 0; jj < numCols; jj++ {
		col := make([]float64, numCols)
		for ii := 0; ii < numCols; ii++ {
			col[ii] = corr.At(ii, jj)
		}
		out.Vals[jj] = col
	}

	return out
}

// CumulativeReturns computes the running product of (1 + daily return) for
// each column. The series starts at the first retained return date, so the
// first row equals 1 plus that date's return.
func CumulativeReturns(returns *dataframe.DataFrame[time.Time]) *dataframe.DataFrame[time.Time] {
	return returns.AddScalar(1.0).CumProd()
}
