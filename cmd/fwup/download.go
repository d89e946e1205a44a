// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package main

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Check for newer firmware and download it into the archive store",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			doDownload(cmd)
		},
	}
	rootCmd.AddCommand(cmd)
}

func doDownload(cmd *cobra.Command) {
	r, err := newRunner(mustConfig())
	DieNotNil(err, "failed to set up the update engine")
	DieNotNil(r.run(cmd.Context(), stopAfterDownload))
}
