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
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/penny-vault/pv-risk/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type yahoo struct {
	client *resty.Client
}

var yahooAPI = "https://query1.finance.yahoo.com"

type yahooQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type yahooChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote    []yahooQuote `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// NewYahoo Create a new Yahoo! Finance data provider
func NewYahoo() *yahoo {
	client := resty.NewWithClient(&http.Client{
		Transport: http.DefaultTransport,
		Timeout:   time.Duration(30) * time.Second,
	})
	client.SetHeader("User-Agent", fmt.Sprintf("pv-risk/%s", common.CurrentVersion.String()))
	return &yahoo{
		client: client,
	}
}

func (y *yahoo) Name() string {
	return "yahoo"
}

// GetDataForPeriod downloads the metric for all symbols over [begin, end] and
// merges the results into a single date indexed dataframe. Symbols are
// downloaded concurrently in chunks of 10. Symbols that fail to download are
// logged and excluded from the result; the download as a whole only fails
// when every symbol fails.
func (y *yahoo) GetDataForPeriod(ctx context.Context, symbols []string, metric Metric, begin time.Time, end time.Time) (*dataframe.DataFrame[time.Time], error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "yahoo.GetDataForPeriod", trace.WithSpanKind(trace.SpanKindClient))
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
			go yahooDownloadWorker(ctx, ch, strings.ToUpper(chunk[ii]), metric, begin, end, y)
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

func yahooDownloadWorker(ctx context.Context, result chan<- quoteResult, symbol string, metric Metric, begin time.Time, end time.Time, y *yahoo) {
	df, err := y.loadDataForPeriod(ctx, symbol, metric, begin, end)
	result <- quoteResult{
		Ticker: symbol,
		Data:   df,
		Err:    err,
	}
}

func (result *yahooChartResult) seriesForMetric(metric Metric) ([]*float64, error) {
	var quote yahooQuote
	if len(result.Indicators.Quote) > 0 {
		quote = result.Indicators.Quote[0]
	}

	switch metric {
	case MetricOpen:
		return quote.Open, nil
	case MetricHigh:
		return quote.High, nil
	case MetricLow:
		return quote.Low, nil
	case MetricClose:
		return quote.Close, nil
	case MetricVolume:
		return quote.Volume, nil
	case MetricAdjustedClose:
		// adjusted close lives in its own indicator block; fall back to the
		// unadjusted close when yahoo omits it
		if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) > 0 {
			return result.Indicators.AdjClose[0].AdjClose, nil
		}
		return quote.Close, nil
	default:
		return nil, ErrUnsupportedMetric
	}
}

func (y *yahoo) loadDataForPeriod(ctx context.Context, symbol string, metric Metric, begin time.Time, end time.Time) (*dataframe.DataFrame[time.Time], error) {
	subLog := log.With().Str("Symbol", symbol).Str("Metric", string(metric)).Time("Begin", begin).Time("End", end).Logger()

	// period2 is exclusive; add a day so end is included in the result
	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div%%2Csplit", yahooAPI, symbol, begin.Unix(), end.AddDate(0, 0, 1).Unix())

	resp, err := y.client.R().SetContext(ctx).Get(url)
	if err != nil {
		subLog.Warn().Err(err).Msg("failed to load eod prices")
		return nil, err
	}

	if resp.StatusCode() >= 400 {
		subLog.Warn().Int("HTTPResponseStatusCode", resp.StatusCode()).Bytes("Body", resp.Body()).Msg("yahoo request failed")
		return nil, fmt.Errorf("HTTP request returned invalid status code: %d", resp.StatusCode())
	}

	chart := yahooChartResponse{}
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		subLog.Warn().Err(err).Msg("could not parse yahoo chart response")
		return nil, err
	}

	if chart.Chart.Error != nil {
		subLog.Warn().Str("Code", chart.Chart.Error.Code).Str("Description", chart.Chart.Error.Description).Msg("yahoo returned an error")
		return nil, fmt.Errorf("yahoo chart error: %s (%s)", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}

	if len(chart.Chart.Result) == 0 {
		return &dataframe.DataFrame[time.Time]{
			Index:    []time.Time{},
			ColNames: []string{symbol},
			Vals:     [][]float64{{}},
		}, nil
	}

	result := chart.Chart.Result[0]
	series, err := result.seriesForMetric(metric)
	if err != nil {
		subLog.Error().Err(err).Msg("un-supported metric")
		return nil, err
	}

	tz := common.GetTimezone()
	index := make([]time.Time, 0, len(result.Timestamp))
	vals := make([]float64, 0, len(result.Timestamp))

	for idx, ts := range result.Timestamp {
		dt := time.Unix(ts, 0).In(tz)
		dt = time.Date(dt.Year(), dt.Month(), dt.Day(), 16, 0, 0, 0, tz)

		v := math.NaN()
		if idx < len(series) && series[idx] != nil {
			v = *series[idx]
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
