// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"log/slog"

	"github.com/katalvlaran/disco/config"
	"github.com/katalvlaran/disco/logging"
	"github.com/spf13/cobra"
)

// env is the per-invocation state shared by all commands.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	jsonOut bool
}

// loadEnv loads the config (file, then environment, then flags), validates
// it and builds the logger on the command's stderr.
func loadEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		cfg.Logging.JSON = true
	}

	var logger *slog.Logger
	if cfg.Logging.JSON {
		logger = logging.NewJSONLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	} else {
		logger = logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	}

	return &env{cfg: cfg, logger: logger, jsonOut: jsonOut}, nil
}

// writeJSON encodes v on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
