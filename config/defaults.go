// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultBaseURL is the production DDTSS entry point.
	DefaultBaseURL = "https://ddtp.debian.org/ddtss/index.cgi"

	defaultTimeout       = 30 * time.Second
	defaultSubmitTimeout = 60 * time.Second

	// defaultBatchPacing leaves the server breathing room between submissions.
	defaultBatchPacing = 2 * time.Second
)

// SetDefaults populates the configuration with default values.
func (cfg *Config) SetDefaults() {
	cfg.Basic.BaseURL = DefaultBaseURL
	cfg.Basic.Language = "sv"
	cfg.Basic.DataDir = defaultDataDir()

	cfg.Request.Timeout = defaultTimeout
	cfg.Request.SubmitTimeout = defaultSubmitTimeout

	cfg.Batch.Pacing = defaultBatchPacing

	cfg.Log.Level = "info"
	cfg.Log.Format = "console"

	cfg.Development.ResponseSaveLocation = "/tmp/ddtp-translate"
}

// defaultDataDir resolves the XDG data directory for this application.
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "ddtp-translate")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "ddtp-translate"
	}

	return filepath.Join(home, ".local", "share", "ddtp-translate")
}
