// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Global exposes the application configuration.
var Global Config

// Config holds the application configuration.
type Config struct {
	Basic struct {
		// BaseURL is the DDTSS front-end entry point.
		BaseURL string `env:"DDTP_BASE_URL,overwrite" yaml:"baseUrl"`

		// Language is the DDTSS language team code, e.g. "sv" or "pt_BR".
		Language string `env:"DDTP_LANGUAGE,overwrite" yaml:"language"`

		// DataDir holds the queue database and the session file.
		DataDir string `env:"DDTP_DATA_DIR,overwrite" yaml:"dataDir"`

		Alias    string `env:"DDTP_ALIAS,overwrite" yaml:"alias"`
		Password string `env:"DDTP_PASSWORD" yaml:"password"`
	} `yaml:"basic"`

	Request struct {
		Timeout       time.Duration `env:"DDTP_TIMEOUT,overwrite" yaml:"timeout"`
		SubmitTimeout time.Duration `env:"DDTP_SUBMIT_TIMEOUT,overwrite" yaml:"submitTimeout"`
	} `yaml:"request"`

	Batch struct {
		// Pacing is the minimum delay between two consecutive submissions.
		Pacing time.Duration `env:"DDTP_BATCH_PACING,overwrite" yaml:"pacing"`
	} `yaml:"batch"`

	Log struct {
		Level   string   `env:"DDTP_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"DDTP_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"DDTP_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Development struct {
		SaveResponses        bool   `env:"DDTP_SAVE_RESPONSES" yaml:"saveResponses"`
		ResponseSaveLocation string `env:"DDTP_RESPONSE_SAVE_LOCATION,overwrite" yaml:"responseSaveLocation"`
	} `yaml:"development"`
}

// LoadConfig loads the configuration from various sources.
func (cfg *Config) LoadConfig() error {
	parsedConfigFlagValue := parseCommandLineArgs()

	// Check if the -config flag was explicitly set by the user.
	configFlagUserSet := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configFlagUserSet = true
		}
	})

	var configFilePath string

	// Determine the config file path with the correct precedence:
	// 1. Command-line flag (-config)
	// 2. Environment variable (DDTP_CONFIGFILE)
	// 3. Default path with fallback check
	switch {
	case configFlagUserSet:
		configFilePath = parsedConfigFlagValue
	case os.Getenv("DDTP_CONFIGFILE") != "":
		configFilePath = os.Getenv("DDTP_CONFIGFILE")
	default:
		configFilePath = parsedConfigFlagValue

		if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
			ymlPath := "./config.yml"
			if _, statErr := os.Stat(ymlPath); statErr == nil {
				configFilePath = ymlPath
			}
		}
	}

	cfg.SetDefaults()

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupLogging()
	cfg.print()

	return nil
}

// SessionFile is the path of the persisted session cookie.
func (cfg *Config) SessionFile() string {
	return filepath.Join(cfg.Basic.DataDir, "session.json")
}

// QueueFile is the path of the translation queue database.
func (cfg *Config) QueueFile() string {
	return filepath.Join(cfg.Basic.DataDir, "queue.db")
}
