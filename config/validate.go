// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/yeager/ddtp-translate/core/requests"
)

const dataDirPermissions = 0o700

// validation errors.
var (
	errBaseURLMissingScheme = errors.New("basic.baseUrl must be an absolute http(s) URL")
	errLanguageEmpty        = errors.New("basic.language cannot be empty")
	errInvalidLogFormat     = errors.New("log.logFormat must be \"console\" or \"json\"")
)

// validateAndSet validates the configuration and populates derived fields.
func (cfg *Config) validateAndSet() error {
	parsed, err := url.Parse(cfg.Basic.BaseURL)
	if err != nil {
		return fmt.Errorf("basic.baseUrl is not a valid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return fmt.Errorf("%w: %q", errBaseURLMissingScheme, cfg.Basic.BaseURL)
	}

	cfg.Basic.BaseURL = strings.TrimRight(cfg.Basic.BaseURL, "/")

	if cfg.Basic.Language == "" {
		return errLanguageEmpty
	}

	// DDTSS team codes use underscores (pt_BR); BCP 47 wants hyphens.
	if _, err := language.Parse(strings.ReplaceAll(cfg.Basic.Language, "_", "-")); err != nil {
		return fmt.Errorf("basic.language %q is not a recognized language code: %w", cfg.Basic.Language, err)
	}

	if cfg.Log.Format != "console" && cfg.Log.Format != "json" {
		return errInvalidLogFormat
	}

	cfg.Request.Timeout = min(max(cfg.Request.Timeout, requests.MinTimeout), requests.MaxTimeout)
	cfg.Request.SubmitTimeout = min(max(cfg.Request.SubmitTimeout, requests.MinTimeout), requests.MaxTimeout)

	if err := os.MkdirAll(cfg.Basic.DataDir, dataDirPermissions); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", cfg.Basic.DataDir, err)
	}

	return nil
}
