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

package main

import (
	"errors"

	"github.com/joho/godotenv"
	"github.com/penny-vault/pv-risk/cmd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func configureViper() {
	// read config file
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/pv-risk/")
	viper.AddConfigPath("$HOME/.config/pv-risk")
	viper.AddConfigPath(".")

	err := viper.ReadInConfig()
	if err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			log.Panic().Err(err).Msg("fatal error reading config file")
		}
	}
}

func main() {
	// load environment variables from .env, ignore if it doesn't exist
	_ = godotenv.Load()

	configureViper()
	cmd.Execute()
}
