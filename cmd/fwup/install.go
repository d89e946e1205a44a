// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package main

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Check for newer firmware, download it, and install it",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			doInstall(cmd)
		},
	}
	rootCmd.AddCommand(cmd)
}

func doInstall(cmd *cobra.Command) {
	r, err := newRunner(mustConfig())
	DieNotNil(err, "failed to set up the update engine")
	DieNotNil(r.run(cmd.Context(), stopAfterInstall))
}
