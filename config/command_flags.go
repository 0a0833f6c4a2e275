// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package config

import "flag"

// parseCommandLineArgs defines and parses flags, returning the value of the "config" flag.
func parseCommandLineArgs() string {
	var configFilePath string

	if flag.Lookup("config") == nil {
		flag.StringVar(&configFilePath, "config", "./config.yaml", "Path to a ddtp-translate configuration file in YAML format.")
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	return configFilePath
}

// Args returns the positional arguments left after flag parsing.
func (cfg *Config) Args() []string {
	return flag.Args()
}
