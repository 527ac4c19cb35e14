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
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/penny-vault/pv-risk/observability/opentelemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	imports "github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/rs/zerolog/log"
)

type tiingo struct {
	apikey string
}

var tiingoAPI = "https://api.tiingo.com"

// NewTiingo Create a new Tiingo data provider
func NewTiingo(key string) *tiingo {
	if key == "" {
		log.Warn().Msg("no tiingo API token provided")
	}
	return &tiingo{
		apikey: key,
	}
}

func (t *tiingo) Name() string {
	return "tiingo"
}

// GetDataForPeriod downloads the metric for all symbols over [begin, end] and
// merges the results into a single date indexed dataframe. Symbols are
// downloaded concurrently in chunks of 10. Symbols that fail to download are
// logged and excluded from the result; the download as a whole only fails
// when every symbol fails.
func (t *tiingo) GetDataForPeriod(ctx context.Context, symbols []string, metric Metric, begin time.Time, end time.Time) (*dataframe.DataFrame[time.Time], error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "tiingo.GetDataForPeriod", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.KeyValue{
			Key:   "Symbols",
			Value: attribute.StringSliceValue(symbols),
		},
		attribute.KeyValue{
			Key:   "Metric",
			Value: attribute.StringValue(string(metric)),
		},
	)

	subLog := log.With().Strs("Symbols", symbols).Str("Metric", string(metric)).Time("Begin", begin).Time("End", end).Logger()

	fetch := uniqueSymbols(symbols)
	quotes := make(map[string]*dataframe.DataFrame[time.Time], len(fetch))
	errs := []error{}
	ch := make(chan quoteResult)

	for idx, chunk := range partitionArray(fetch, 10) {
		subLog.Debug().Int("Chunk", idx).Msg("download chunk")
		for ii := range chunk {
			go tiingoDownloadWorker(ctx, ch, strings.ToUpper(chunk[ii]), metric, begin, end, t)
		}

		for range chunk {
			v := <-ch
			if v.Err == nil {
				quotes[v.Ticker] = v.Data
			} else {
				subLog.Warn().Err(v.Err).Str("Ticker", v.Ticker).Msg("cannot download ticker data")
				errs = append(errs, v.Err)
			}
		}
	}

	if len(errs) == len(fetch) && len(errs) != 0 {
		span.SetStatus(codes.Error, "all downloads failed")
		return nil, errs[0]
	}

	return mergeQuotes(quotes, symbols), nil
}

func tiingoDownloadWorker(ctx context.Context, result chan<- quoteResult, symbol string, metric Metric, begin time.Time, end time.Time, t *tiingo) {
	df, err := t.loadDataForPeriod(ctx, symbol, metric, begin, end)
	result <- quoteResult{
		Ticker: symbol,
		Data:   df,
		Err:    err,
	}
}

func tiingoColumnForMetric(metric Metric) (string, error) {
	switch metric {
	case MetricOpen:
		return "open", nil
	case MetricHigh:
		return "high", nil
	case MetricLow:
		return "low", nil
	case MetricClose:
		return "close", nil
	case MetricVolume:
		return "volume", nil
	case MetricAdjustedClose:
		return "adjClose", nil
	case MetricDividendCash:
		return "divCash", nil
	case MetricSplitFactor:
		return "splitFactor", nil
	default:
		return "", ErrUnsupportedMetric
	}
}

func (t *tiingo) loadDataForPeriod(ctx context.Context, symbol string, metric Metric, begin time.Time, end time.Time) (*dataframe.DataFrame[time.Time], error) {
	subLog := log.With().Str("Symbol", symbol).Str("Metric", string(metric)).Time("Begin", begin).Time("End", end).Logger()

	colName, err := tiingoColumnForMetric(metric)
	if err != nil {
		subLog.Error().Err(err).Msg("un-supported metric")
		return nil, err
	}

	// build URL to get data
	url := fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&endDate=%s&format=csv&resampleFreq=daily&token=%s", tiingoAPI, symbol, begin.Format("2006-01-02"), end.Format("2006-01-02"), t.apikey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		subLog.Warn().Err(err).Msg("failed to load eod prices")
		return nil, err
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		subLog.Warn().Err(err).Int("HTTPResponseStatusCode", resp.StatusCode).Msg("read eod price body failed")
		return nil, err
	}

	if resp.StatusCode >= 400 {
		subLog.Warn().Int("HTTPResponseStatusCode", resp.StatusCode).Bytes("Body", body).Msg("tiingo request failed")
		return nil, fmt.Errorf("HTTP request returned invalid status code: %d", resp.StatusCode)
	}

	floatConverter := imports.Converter{
		ConcreteType: float64(0),
		ConverterFunc: func(in interface{}) (interface{}, error) {
			v, err := strconv.ParseFloat(in.(string), 64)
			if err != nil {
				return math.NaN(), nil
			}
			return v, nil
		},
	}

	tz := common.GetTimezone()

	res, err := imports.LoadFromCSV(ctx, bytes.NewReader(body), imports.CSVLoadOptions{
		DictateDataType: map[string]interface{}{
			"date": imports.Converter{
				ConcreteType: time.Time{},
				ConverterFunc: func(in interface{}) (interface{}, error) {
					dt, err := time.ParseInLocation("2006-01-02", in.(string), tz)
					if err != nil {
						return nil, err
					}
					dt = dt.Add(time.Hour * 16)
					return dt, nil
				},
			},
			"open":        floatConverter,
			"high":        floatConverter,
			"low":         floatConverter,
			"close":       floatConverter,
			"volume":      floatConverter,
			"adjOpen":     floatConverter,
			"adjHigh":     floatConverter,
			"adjLow":      floatConverter,
			"adjClose":    floatConverter,
			"adjVolume":   floatConverter,
			"divCash":     floatConverter,
			"splitFactor": floatConverter,
		},
	})
	if err != nil {
		subLog.Warn().Err(err).Msg("could not parse tiingo csv")
		return nil, err
	}

	timeSeriesIdx, err := res.NameToColumn("date")
	if err != nil {
		return nil, fmt.Errorf("cannot find date column: %w", err)
	}

	valueSeriesIdx, err := res.NameToColumn(colName)
	if err != nil {
		return nil, fmt.Errorf("cannot find %s column: %w", colName, err)
	}

	numRows := res.NRows()
	index := make([]time.Time, 0, numRows)
	vals := make([]float64, 0, numRows)

	for row := 0; row < numRows; row++ {
		dt, ok := res.Series[timeSeriesIdx].Value(row).(time.Time)
		if !ok {
			continue
		}

		v, ok := res.Series[valueSeriesIdx].Value(row).(float64)
		if !ok {
			v = math.NaN()
		}

		index = append(index, dt)
		vals = append(vals, v)
	}

	return &dataframe.DataFrame[time.Time]{
		Index:    index,
		ColNames: []string{symbol},
		Vals:     [][]float64{vals},
	}, nil
}
