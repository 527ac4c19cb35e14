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
)

// Request describes a quote download: which tickers and which metric. Build
// one with Manager.NewRequest and execute it with Between.
type Request struct {
	manager *Manager
	tickers []string
	metric  Metric
}

func (req *Request) Tickers(tickers ...string) *Request {
	req.tickers = tickers
	return req
}

func (req *Request) Metric(metric Metric) *Request {
	req.metric = metric
	return req
}

// Between executes the request over the period [begin, end]. The begin date
// must not be after the end date.
func (req *Request) Between(ctx context.Context, begin, end time.Time) (*dataframe.DataFrame[time.Time], error) {
	if begin.After(end) {
		return nil, ErrInvalidTimeRange
	}

	return req.manager.GetDataForPeriod(ctx, req.tickers, req.metric, begin, end)
}
