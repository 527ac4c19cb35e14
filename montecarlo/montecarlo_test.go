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

package montecarlo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"

	"github.com/penny-vault/pv-risk/montecarlo"
)

var _ = Describe("Simulator", func() {
	var sim *montecarlo.Simulator

	BeforeEach(func() {
		sim = montecarlo.New()
	})

	Context("with realistic inputs", func() {
		It("produces 252 rows by 50 columns", func() {
			res := sim.Run([]float64{103.0, 51.0}, []float64{0.015, 0.012})
			Expect(res.Len()).To(Equal(252))
			Expect(res.Vals).To(HaveLen(50))
			Expect(res.ColNames).To(HaveLen(50))
			Expect(res.ColNames[0]).To(Equal("Sim 0"))
			Expect(res.ColNames[49]).To(Equal("Sim 49"))
			Expect(res.Index[0]).To(Equal(1))
			Expect(res.Index[251]).To(Equal(252))
		})

		It("produces strictly positive prices", func() {
			res := sim.Run([]float64{103.0}, []float64{0.015})
			for _, col := range res.Vals {
				Expect(floats.Min(col)).To(BeNumerically(">", 0.0))
			}
		})

		It("draws an independent sequence for each path", func() {
			res := sim.Run([]float64{103.0}, []float64{0.015})
			Expect(res.Vals[0]).ToNot(Equal(res.Vals[1]))
		})

		It("walks every ticker but records only the first", func() {
			res := sim.Run([]float64{103.0, 51.0, 27.0}, []float64{0.015, 0.012, 0.02})
			Expect(res.Vals).To(HaveLen(50))
			for _, col := range res.Vals {
				Expect(col).To(HaveLen(252))
			}
		})

		It("starts each path one perturbation away from the last price", func() {
			// with zero volatility every draw is zero so the path never
			// leaves the starting price
			res := sim.Run([]float64{100.0}, []float64{0.0})
			for _, col := range res.Vals {
				Expect(col[0]).To(BeNumerically("~", 100.0, 1e-9))
				Expect(col[251]).To(BeNumerically("~", 100.0, 1e-9))
			}
		})
	})

	Context("with invalid inputs", func() {
		It("returns an empty dataframe when no prices are given", func() {
			res := sim.Run([]float64{}, []float64{})
			Expect(res.Len()).To(Equal(0))
			Expect(res.Vals).To(HaveLen(0))
		})

		It("returns an empty dataframe when prices and volatilities are mismatched", func() {
			res := sim.Run([]float64{100.0, 50.0}, []float64{0.01})
			Expect(res.Len()).To(Equal(0))
		})
	})

	Context("with a custom horizon", func() {
		It("honors NumPaths and NumDays", func() {
			sim = &montecarlo.Simulator{NumPaths: 3, NumDays: 10}
			res := sim.Run([]float64{50.0}, []float64{0.01})
			Expect(res.Len()).To(Equal(10))
			Expect(res.Vals).To(HaveLen(3))
			Expect(res.ColNames).To(Equal([]string{"Sim 0", "Sim 1", "Sim 2"}))
		})
	})
})
