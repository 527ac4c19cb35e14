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

package handler

import (
	"errors"
	"math"
	"runtime"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/penny-vault/pv-risk/observability/opentelemetry"
	"github.com/penny-vault/pv-risk/risk"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type AnalyzeResponse struct {
	ID          string                         `json:"id"`
	Fingerprint string                         `json:"fingerprint"`
	Tickers     []string                       `json:"tickers"`
	Metric      string                         `json:"metric"`
	StartDate   string                         `json:"startDate"`
	EndDate     string                         `json:"endDate"`
	ComputedOn  string                         `json:"computedOn"`
	Prices      []DatedValues                  `json:"prices"`
	Returns     []DatedValues                  `json:"returns"`
	Risk        map[string]*float64            `json:"risk"`
	Correlation map[string]map[string]*float64 `json:"correlation"`
	Cumulative  []DatedValues                  `json:"cumulativeReturns"`
	Simulation  [][]*float64                   `json:"simulation,omitempty"`
}

// DatedValues is a single row of a time indexed table. Values maps the
// ticker to its value on Date; missing quotes are null.
type DatedValues struct {
	Date   string              `json:"date"`
	Values map[string]*float64 `json:"values"`
}

// Analyze runs the risk pipeline for the requested tickers and returns all
// computed tables as JSON
func Analyze(c *fiber.Ctx) (resp error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.Context(), "handler.Analyze", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	defer func() {
		if err := recover(); err != nil {
			stackSlice := make([]byte, 1024)
			runtime.Stack(stackSlice, false)
			log.Error().Interface("Panic", err).Str("StackTrace", string(stackSlice)).Msg("caught panic in /v1/analyze")
			resp = fiber.ErrInternalServerError
		}
	}()

	tickers := data.ParseTickers(c.Query("tickers"))

	// Parse date strings
	startDateStr := c.Query("startDate", "2023-01-01")
	endDateStr := c.Query("endDate", "now")

	var startDate time.Time
	var endDate time.Time

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		log.Warn().Err(err).Str("StartDateStr", startDateStr).Msg("cannot parse start date query parameter")
		return fiber.ErrNotAcceptable
	}

	if endDateStr == "now" {
		endDate = time.Now()
		year, month, day := endDate.Date()
		endDate = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	} else {
		var err error
		endDate, err = time.Parse("2006-01-02", endDateStr)
		if err != nil {
			log.Warn().Err(err).Str("EndDateStr", endDateStr).Msg("cannot parse end date query parameter")
			return fiber.ErrNotAcceptable
		}
	}

	simulate, err := strconv.ParseBool(c.Query("simulate", "false"))
	if err != nil {
		log.Warn().Err(err).Str("Simulate", c.Query("simulate")).Msg("/v1/analyze called with invalid simulate flag")
		return fiber.ErrBadRequest
	}

	manager, err := data.NewManager()
	if err != nil {
		log.Error().Err(err).Msg("could not create data manager")
		return fiber.ErrInternalServerError
	}

	analyzer := risk.New(manager)
	analyzer.Metric = data.Metric(c.Query("metric", string(data.MetricAdjustedClose)))
	analyzer.Simulate = simulate

	analysis, err := analyzer.Run(ctx, tickers, startDate, endDate)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrNoData):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Status:  "error",
				Message: "no data found; please check ticker symbols",
			})
		case errors.Is(err, data.ErrInvalidTimeRange):
			return c.Status(fiber.StatusNotAcceptable).JSON(ErrorResponse{
				Status:  "error",
				Message: err.Error(),
			})
		default:
			log.Warn().Err(err).Strs("Tickers", tickers).Msg("could not load ticker data")
			return fiber.ErrBadRequest
		}
	}

	response := AnalyzeResponse{
		ID:          analysis.ID.String(),
		Fingerprint: analysis.Fingerprint,
		Tickers:     analysis.Tickers,
		Metric:      string(analysis.Metric),
		StartDate:   analysis.Begin.Format("2006-01-02"),
		EndDate:     analysis.End.Format("2006-01-02"),
		ComputedOn:  analysis.ComputedOn.Format(time.RFC3339),
		Prices:      datedRows(analysis.Prices),
		Returns:     datedRows(analysis.Returns),
		Risk:        sanitizeMap(analysis.Volatility.AsMap(risk.RiskColName)),
		Correlation: correlationMap(analysis.Correlation),
		Cumulative:  datedRows(analysis.Cumulative),
	}

	if analysis.Simulation != nil {
		response.Simulation = sanitizeCols(analysis.Simulation.Vals)
	}

	return c.JSON(response)
}

// datedRows flattens a time indexed dataframe into one entry per date. NaN
// cannot be represented in JSON so missing values become nil.
func datedRows(df *dataframe.DataFrame[time.Time]) []DatedValues {
	rows := make([]DatedValues, df.Len())
	for idx, date := range df.Index {
		vals := make(map[string]*float64, len(df.ColNames))
		for colIdx, colName := range df.ColNames {
			vals[colName] = sanitize(df.Vals[colIdx][idx])
		}
		rows[idx] = DatedValues{
			Date:   date.Format("2006-01-02"),
			Values: vals,
		}
	}
	return rows
}

func sanitizeMap(m map[string]float64) map[string]*float64 {
	res := make(map[string]*float64, len(m))
	for k, v := range m {
		res[k] = sanitize(v)
	}
	return res
}

func sanitizeCols(cols [][]float64) [][]*float64 {
	res := make([][]*float64, len(cols))
	for idx, col := range cols {
		clean := make([]*float64, len(col))
		for jdx, v := range col {
			clean[jdx] = sanitize(v)
		}
		res[idx] = clean
	}
	return res
}

func correlationMap(df *dataframe.DataFrame[string]) map[string]map[string]*float64 {
	corr := make(map[string]map[string]*float64, len(df.ColNames))
	for colIdx, colName := range df.ColNames {
		inner := make(map[string]*float64, len(df.Index))
		for rowIdx, rowName := range df.Index {
			inner[rowName] = sanitize(df.Vals[colIdx][rowIdx])
		}
		corr[colName] = inner
	}
	return corr
}

func sanitize(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
