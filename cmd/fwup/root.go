// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package main

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	cfg "github.com/guidomb/statemodeling/pkg/config"
)

var (
	verbose    bool
	configDirs []string

	rootCmd = &cobra.Command{
		Use:   "fwup",
		Short: "Utility to drive device firmware updates through the reactive update engine",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			slogLevel := slog.LevelInfo
			if verbose {
				level = zerolog.DebugLevel
				slogLevel = slog.LevelDebug
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !isatty.IsTerminal(os.Stderr.Fd())})
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})))
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().StringSliceVarP(&configDirs, "cfg-dirs", "c",
		cfg.DefaultConfigDirs, "A comma-separated list of paths to search for the fwup.toml configuration file")
}

func mustConfig() *cfg.Config {
	config, err := cfg.NewConfig(configDirs)
	cobra.CheckErr(err)
	return config
}
