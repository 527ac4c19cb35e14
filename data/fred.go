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

// fred downloads economic data series published by the Federal Reserve Bank
// of St. Louis. Symbols are FRED series ids, e.g. DGS10 or TB3MS. Series only
// have a single value per date so only the close metrics are supported.
type fred struct{}

var fredURL = "https://fred.stlouisfed.org"

// NewFred Create a new Fred data provider
func NewFred() *fred {
	return &fred{}
}

func (f *fred) Name() string {
	return "fred"
}

// GetDataForPeriod downloads the metric for all symbols over [begin, end] and
// merges the results into a single date indexed dataframe. Symbols are
// downloaded concurrently in chunks of 10. Symbols that fail to download are
// logged and excluded from the result; the download as a whole only fails
// when every symbol fails.
func (f *fred) GetDataForPeriod(ctx context.Context, symbols []string, metric Metric, begin time.Time, end time.Time) (*dataframe.DataFrame[time.Time], error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "fred.GetDataForPeriod", trace.WithSpanKind(trace.SpanKindClient))
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

	if metric != MetricClose && metric != MetricAdjustedClose {
		subLog.Error().Err(ErrUnsupportedMetric).Msg("fred series only support close metrics")
		span.SetStatus(codes.Error, "un-supported metric")
		return nil, ErrUnsupportedMetric
	}

	fetch := uniqueSymbols(symbols)
	quotes := make(map[string]*dataframe.DataFrame[time.Time], len(fetch))
	errs := []error{}
	ch := make(chan quoteResult)

	for idx, chunk := range partitionArray(fetch, 10) {
		subLog.Debug().Int("Chunk", idx).Msg("download chunk")
		for ii := range chunk {
			go fredDownloadWorker(ctx, ch, strings.ToUpper(chunk[ii]), begin, end, f)
		}

		for range chunk {
			v := <-ch
			if v.Err == nil {
				quotes[v.Ticker] = v.Data
			} else {
				subLog.Warn().Err(v.Err).Str("Ticker", v.Ticker).Msg("cannot download series data")
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

func fredDownloadWorker(ctx context.Context, result chan<- quoteResult, symbol string, begin time.Time, end time.Time, f *fred) {
	df, err := f.loadDataForPeriod(ctx, symbol, begin, end)
	result <- quoteResult{
		Ticker: symbol,
		Data:   df,
		Err:    err,
	}
}

func (f *fred) loadDataForPeriod(ctx context.Context, symbol string, begin time.Time, end time.Time) (*dataframe.DataFrame[time.Time], error) {
	subLog := log.With().Str("Symbol", symbol).Time("Begin", begin).Time("End", end).Logger()

	// build URL to get data
	url := fmt.Sprintf("%s/graph/fredgraph.csv?mode=fred&id=%s&cosd=%s&coed=%s&fq=Daily&fam=avg", fredURL, symbol, begin.Format("2006-01-02"), end.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		subLog.Warn().Err(err).Msg("failed to load fred series")
		return nil, err
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		subLog.Warn().Err(err).Int("HTTPResponseStatusCode", resp.StatusCode).Msg("read fred series body failed")
		return nil, err
	}

	if resp.StatusCode >= 400 {
		subLog.Warn().Int("HTTPResponseStatusCode", resp.StatusCode).Bytes("Body", body).Msg("fred request failed")
		return nil, fmt.Errorf("HTTP request returned invalid status code: %d", resp.StatusCode)
	}

	tz := common.GetTimezone()

	res, err := imports.LoadFromCSV(ctx, bytes.NewReader(body), imports.CSVLoadOptions{
		DictateDataType: map[string]interface{}{
			"DATE": imports.Converter{
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
			// fred writes a bare '.' for dates with no observation
			symbol: imports.Converter{
				ConcreteType: float64(0),
				ConverterFunc: func(in interface{}) (interface{}, error) {
					v, err := strconv.ParseFloat(in.(string), 64)
					if err != nil {
						return math.NaN(), nil
					}
					return v, nil
				},
			},
		},
	})
	if err != nil {
		subLog.Warn().Err(err).Msg("could not parse fred csv")
		return nil, err
	}

	timeSeriesIdx, err := res.NameToColumn("DATE")
	if err != nil {
		return nil, fmt.Errorf("cannot find DATE column: %w", err)
	}

	valueSeriesIdx, err := res.NameToColumn(symbol)
	if err != nil {
		return nil, fmt.Errorf("cannot find %s column: %w", symbol, err)
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
