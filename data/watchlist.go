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
	"embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pv-risk/common"
	"github.com/rs/zerolog/log"
)

//go:embed watchlists/*.toml
var watchlistResources embed.FS

// Watchlist a named collection of ticker symbols
type Watchlist struct {
	Name        string   `json:"name"`
	Shortcode   string   `json:"shortcode"`
	Description string   `json:"description"`
	Tickers     []string `json:"tickers"`
}

// WatchlistList List of all watchlists
var WatchlistList = []*Watchlist{}

// WatchlistMap Map of watchlists keyed by shortcode
var WatchlistMap = make(map[string]*Watchlist)

// InitializeWatchlists load the embedded watchlist definitions
func InitializeWatchlists() {
	WatchlistList = []*Watchlist{}
	WatchlistMap = make(map[string]*Watchlist)

	entries, err := watchlistResources.ReadDir("watchlists")
	if err != nil {
		log.Panic().Err(err).Msg("could not read embedded watchlists")
	}

	for _, entry := range entries {
		fn := fmt.Sprintf("watchlists/%s", entry.Name())
		doc, err := watchlistResources.ReadFile(fn)
		if err != nil {
			log.Error().Err(err).Str("File", fn).Msg("failed to read file")
			continue
		}

		watchlist := &Watchlist{}
		if err := toml.Unmarshal(doc, watchlist); err != nil {
			log.Error().Err(err).Str("File", fn).Msg("failed to parse toml file")
			continue
		}

		common.ArrToUpper(watchlist.Tickers)
		WatchlistList = append(WatchlistList, watchlist)
		WatchlistMap[watchlist.Shortcode] = watchlist
	}
}

// GetWatchlist lookup a watchlist by its shortcode
func GetWatchlist(shortcode string) (*Watchlist, error) {
	if watchlist, ok := WatchlistMap[shortcode]; ok {
		return watchlist, nil
	}
	return nil, ErrWatchlistNotFound
}
