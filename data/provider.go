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
	"time"

	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Provider interface for retrieving quotes
type Provider interface {
	Name() string
	GetDataForPeriod(ctx context.Context, symbols []string, metric Metric, begin time.Time, end time.Time) (*dataframe.DataFrame[time.Time], error)
}

// Manager selects the configured quote provider and downloads data through it
type Manager struct {
	provider Provider
}

// NewManager create a new data manager with the provider selected by the
// `data.provider` setting
func NewManager() (*Manager, error) {
	providerName := viper.GetString("data.provider")
	if providerName == "" {
		providerName = "yahoo"
	}

	switch providerName {
	case "yahoo":
		return &Manager{provider: NewYahoo()}, nil
	case "tiingo":
		return &Manager{provider: NewTiingo(viper.GetString("tiingo.token"))}, nil
	case "fred":
		return &Manager{provider: NewFred()}, nil
	default:
		log.Error().Str("Provider", providerName).Msg("unknown data provider requested")
		return nil, ErrProviderNotFound
	}
}

// Provider returns the active quote provider
func (m *Manager) Provider() Provider {
	return m.provider
}

// GetDataForPeriod downloads the requested metric for all symbols over the
// period [begin, end]
func (m *Manager) GetDataForPeriod(ctx context.Context, symbols []string, metric Metric, begin time.Time, end time.Time) (*dataframe.DataFrame[time.Time], error) {
	return m.provider.GetDataForPeriod(ctx, symbols, metric, begin, end)
}

// NewRequest builds a quote request for the given tickers against the
// manager's provider
func (m *Manager) NewRequest(tickers ...string) *Request {
	return &Request{
		manager: m,
		tickers: tickers,
		metric:  MetricAdjustedClose,
	}
}
