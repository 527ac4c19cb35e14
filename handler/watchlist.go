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
	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-risk/data"
)

// ListWatchlists gets a list of all watchlists
func ListWatchlists(c *fiber.Ctx) error {
	return c.JSON(data.WatchlistList)
}

// GetWatchlist gets the tickers for a specific watchlist
func GetWatchlist(c *fiber.Ctx) error {
	shortcode := c.Params("shortcode")
	watchlist, err := data.GetWatchlist(shortcode)
	if err != nil {
		return fiber.ErrNotFound
	}
	return c.JSON(watchlist)
}
