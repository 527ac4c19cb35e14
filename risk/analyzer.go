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
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/penny-vault/pv-risk/montecarlo"
	"github.com/penny-vault/pv-risk/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Analysis holds every table computed for a single analyzer run
type Analysis struct {
	ID          uuid.UUID
	Fingerprint string
	Tickers     []string
	Metric      data.Metric
	Begin       time.Time
	End         time.Time
	ComputedOn  time.Time

	Prices      *dataframe.DataFrame[time.Time]
	Returns     *dataframe.DataFrame[time.Time]
	Volatility  *dataframe.DataFrame[string]
	Correlation *dataframe.DataFrame[string]
	Cumulative  *dataframe.DataFrame[time.Time]
	Simulation  *dataframe.DataFrame[int]
}

// Analyzer runs the risk pipeline: download prices, derive daily returns,
// compute annualized volatility, pairwise correlation and cumulative return,
// and optionally simulate future prices for the first ticker.
type Analyzer struct {
	Manager  *data.Manager
	Metric   data.Metric
	Simulate bool
}

// New creates an analyzer that downloads adjusted close prices through the
// given manager
func New(manager *data.Manager) *Analyzer {
	return &Analyzer{
		Manager: manager,
		Metric:  data.MetricAdjustedClose,
	}
}

// Run executes the pipeline for the requested tickers over [begin, end].
// When no prices are available for any requested ticker, or too few rows
// exist to compute a return, Run fails with data.ErrNoData and no statistics
// are computed.
func (a *Analyzer) Run(ctx context.Context, tickers []string, begin time.Time, end time.Time) (*Analysis, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "risk.Run")
	defer span.End()

	span.SetAttributes(
		attribute.KeyValue{
			Key:   "Tickers",
			Value: attribute.StringSliceValue(tickers),
		},
		attribute.KeyValue{
			Key:   "Simulate",
			Value: attribute.BoolValue(a.Simulate),
		},
	)

	subLog := log.With().Strs("Tickers", tickers).Time("Begin", begin).Time("End", end).Logger()
	subLog.Info().Msg("running risk analysis")

	prices, err := a.Manager.NewRequest(tickers...).Metric(a.Metric).Between(ctx, begin, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "price download failed")
		return nil, err
	}

	returns := DailyReturns(prices)
	if prices.Len() == 0 || returns.Len() == 0 {
		span.SetStatus(codes.Error, data.ErrNoData.Error())
		subLog.Warn().Msg("no price data found for the requested tickers")
		return nil, data.ErrNoData
	}

	analysis := &Analysis{
		ID:          uuid.New(),
		Fingerprint: fingerprint(prices.ColNames, a.Metric, begin, end),
		Tickers:     prices.ColNames,
		Metric:      a.Metric,
		Begin:       begin,
		End:         end,
		ComputedOn:  time.Now(),
		Prices:      prices,
		Returns:     returns,
		Volatility:  AnnualizedVolatility(returns),
		Correlation: Correlation(returns),
		Cumulative:  CumulativeReturns(returns),
	}

	if a.Simulate {
		last := make([]float64, len(prices.Vals))
		for idx, col := range prices.Vals {
			last[idx] = col[len(col)-1]
		}

		sim := montecarlo.New()
		analysis.Simulation = sim.Run(last, DailyVolatility(returns))
	}

	return analysis, nil
}

// fingerprint computes a stable 16-byte blake3 hash identifying the analysis
// inputs
func fingerprint(tickers []string, metric data.Metric, begin time.Time, end time.Time) string {
	h := blake3.New()

	parts := []string{
		strings.Join(tickers, ","),
		string(metric),
		begin.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	}

	for _, part := range parts {
		if _, err := h.Write([]byte(part)); err != nil {
			log.Error().Stack().Err(err).Msg("could not write to blake3 hasher")
		}
	}

	digest := h.Digest()
	buf := make([]byte, 16)
	if _, err := digest.Read(buf); err != nil {
		log.Error().Stack().Err(err).Msg("could not read blake3 digest")
	}

	return hex.EncodeToString(buf)
}
