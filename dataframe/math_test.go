// Copyright 2021-2023
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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-risk/dataframe"
)

var _ = Describe("When computing dataframe math", func() {
	Context("with 5 values", func() {
		var (
			df *dataframe.DataFrame[time.Time]
		)

		BeforeEach(func() {
			dates := make([]time.Time, 5)
			vals := make([]float64, 5)
			dt := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
			for idx := range dates {
				dates[idx] = dt
				dt = dt.AddDate(0, 1, 0)
				vals[idx] = float64(idx)
			}

			df = &dataframe.DataFrame[time.Time]{
				Index:    dates,
				Vals:     [][]float64{vals},
				ColNames: []string{"test"},
			}
		})

		It("adds a scalar to every value", func() {
			df2 := df.AddScalar(1)
			Expect(df2.Vals[0]).To(Equal([]float64{1.0, 2.0, 3.0, 4.0, 5.0}))
			Expect(df.Vals[0]).To(Equal([]float64{0.0, 1.0, 2.0, 3.0, 4.0}), "original unmodified")
		})

		It("multiplies every value by a scalar", func() {
			df2 := df.MulScalar(2)
			Expect(df2.Vals[0]).To(Equal([]float64{0.0, 2.0, 4.0, 6.0, 8.0}))
			Expect(df.Vals[0]).To(Equal([]float64{0.0, 1.0, 2.0, 3.0, 4.0}), "original unmodified")
		})

		It("counts values matching the lambda", func() {
			cnt := df.Count(func(x float64) bool { return x > 1.5 })
			Expect(cnt.ColNames).To(Equal([]string{"count"}))
			Expect(cnt.Vals[0]).To(Equal([]float64{0.0, 0.0, 1.0, 1.0, 1.0}))
		})

		It("computes the mean of multiple dataframes", func() {
			df2 := df.MulScalar(3)
			mean := dataframe.Mean(df, df2)
			Expect(mean.Vals[0]).To(Equal([]float64{0.0, 2.0, 4.0, 6.0, 8.0}))
		})

		It("computes the running product of each column", func() {
			df2 := df.AddScalar(1).CumProd()
			Expect(df2.Len()).To(Equal(5))
			Expect(df2.Vals[0]).To(Equal([]float64{1.0, 2.0, 6.0, 24.0, 120.0}))
		})
	})

	Context("when computing percent change", func() {
		var (
			df *dataframe.DataFrame[time.Time]
			tz *time.Location
		)

		BeforeEach(func() {
			tz = time.UTC
			dates := make([]time.Time, 5)
			dt := time.Date(2023, time.January, 2, 0, 0, 0, 0, tz)
			for idx := range dates {
				dates[idx] = dt
				dt = dt.AddDate(0, 0, 1)
			}

			df = &dataframe.DataFrame[time.Time]{
				Index:    dates,
				Vals:     [][]float64{{100.0, 101.0, 99.0, 102.0, 103.0}},
				ColNames: []string{"AAPL"},
			}
		})

		It("drops the first row", func() {
			pct := df.PctChange()
			Expect(pct.Len()).To(Equal(df.Len() - 1))
			Expect(pct.Index[0]).To(Equal(time.Date(2023, time.January, 3, 0, 0, 0, 0, tz)))
		})

		It("computes the period over period change", func() {
			pct := df.PctChange()
			Expect(pct.Vals[0][0]).To(BeNumerically("~", 0.01, 1e-9))
			Expect(pct.Vals[0][1]).To(BeNumerically("~", -0.019801980198019802, 1e-9))
			Expect(pct.Vals[0][2]).To(BeNumerically("~", 0.030303030303030304, 1e-9))
			Expect(pct.Vals[0][3]).To(BeNumerically("~", 0.00980392156862745, 1e-9))
		})

		It("does not modify the original dataframe", func() {
			df.PctChange()
			Expect(df.Len()).To(Equal(5))
			Expect(df.Vals[0][0]).To(Equal(100.0))
		})

		It("propagates NaN values", func() {
			df.Vals[0][2] = math.NaN()
			pct := df.PctChange()
			Expect(pct.Vals[0][0]).To(BeNumerically("~", 0.01, 1e-9))
			Expect(math.IsNaN(pct.Vals[0][1])).To(BeTrue())
			Expect(math.IsNaN(pct.Vals[0][2])).To(BeTrue())
			Expect(pct.Vals[0][3]).To(BeNumerically("~", 0.00980392156862745, 1e-9))
		})

		It("chains with drop to remove NaN rows", func() {
			df.Vals[0][2] = math.NaN()
			pct := df.PctChange().Drop(math.NaN())
			Expect(pct.Len()).To(Equal(2))
		})

		It("compounds into a cumulative growth series", func() {
			cum := df.PctChange().AddScalar(1).CumProd()
			Expect(cum.Len()).To(Equal(4))
			Expect(cum.Vals[0][0]).To(BeNumerically("~", 1.01, 1e-9))
			Expect(cum.Vals[0][3]).To(BeNumerically("~", 1.03, 1e-9))
		})
	})
})
