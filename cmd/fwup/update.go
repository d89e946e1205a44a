// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package main

import (
	"github.com/spf13/cobra"
)

type (
	updateOptions struct {
		tui bool
	}
)

func init() {
	opts := updateOptions{}
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Run the full update flow: check, download, and install the latest firmware",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			doUpdate(cmd, &opts)
		},
	}
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "Render the update flow in an interactive terminal UI")
	rootCmd.AddCommand(cmd)
}

func doUpdate(cmd *cobra.Command, opts *updateOptions) {
	r, err := newRunner(mustConfig())
	DieNotNil(err, "failed to set up the update engine")
	if opts.tui {
		DieNotNil(runTUI(cmd.Context(), r))
		return
	}
	DieNotNil(r.run(cmd.Context(), stopAfterInstall))
}
