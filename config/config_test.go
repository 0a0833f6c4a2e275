// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yeager/ddtp-translate/core/requests"
)

func baseConfig(t *testing.T) *Config {
	t.Helper()

	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Basic.DataDir = t.TempDir()

	return cfg
}

func TestValidateDefaults(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)

	assert.NoError(t, cfg.validateAndSet())
	assert.Equal(t, DefaultBaseURL, cfg.Basic.BaseURL)
}

func TestValidateBaseURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"Valid https", "https://ddtp.debian.org/ddtss/index.cgi", false},
		{"Valid http", "http://localhost:8080/index.cgi", false},
		{"Trailing slash trimmed", "https://ddtp.debian.org/ddtss/index.cgi/", false},
		{"Missing scheme", "ddtp.debian.org/ddtss", true},
		{"Bad scheme", "ftp://ddtp.debian.org", true},
		{"Empty", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := baseConfig(t)
			cfg.Basic.BaseURL = tc.url

			err := cfg.validateAndSet()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotEqual(t, "/", cfg.Basic.BaseURL[len(cfg.Basic.BaseURL)-1:])
			}
		})
	}
}

func TestValidateLanguage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		lang    string
		wantErr bool
	}{
		{"Plain", "sv", false},
		{"Underscore region", "pt_BR", false},
		{"Hyphen region", "pt-BR", false},
		{"Empty", "", true},
		{"Garbage", "not a language", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := baseConfig(t)
			cfg.Basic.Language = tc.lang

			err := cfg.validateAndSet()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateClampsTimeouts(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Request.Timeout = time.Second
	cfg.Request.SubmitTimeout = time.Hour

	assert.NoError(t, cfg.validateAndSet())
	assert.Equal(t, requests.MinTimeout, cfg.Request.Timeout)
	assert.Equal(t, requests.MaxTimeout, cfg.Request.SubmitTimeout)
}

func TestValidateLogFormat(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Log.Format = "xml"

	assert.ErrorIs(t, cfg.validateAndSet(), errInvalidLogFormat)
}

func TestReadEnvOverrides(t *testing.T) {
	t.Setenv("DDTP_LANGUAGE", "de")
	t.Setenv("DDTP_TIMEOUT", "45s")
	t.Setenv("DDTP_PASSWORD", "secret")

	cfg := baseConfig(t)

	assert.NoError(t, readEnv(cfg))
	assert.Equal(t, "de", cfg.Basic.Language)
	assert.Equal(t, 45*time.Second, cfg.Request.Timeout)
	assert.Equal(t, "secret", cfg.Basic.Password)
}

// Fields tagged "overwrite" only change when the variable is set.
func TestReadEnvLeavesUnsetAlone(t *testing.T) {
	t.Setenv("DDTP_ALIAS", "translator")

	cfg := baseConfig(t)
	cfg.Basic.Language = "fi"

	assert.NoError(t, readEnv(cfg))
	assert.Equal(t, "translator", cfg.Basic.Alias)
	assert.Equal(t, "fi", cfg.Basic.Language)
}

func TestPaths(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)

	assert.Contains(t, cfg.SessionFile(), "session.json")
	assert.Contains(t, cfg.QueueFile(), "queue.db")
}
