// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guidomb/statemodeling/internal/journal"
)

type (
	historyOptions struct {
		prune bool
	}
)

func init() {
	opts := historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the recorded update transitions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			doHistory(&opts)
		},
	}
	cmd.Flags().BoolVar(&opts.prune, "prune", false, "Delete the listed transitions after printing them")
	rootCmd.AddCommand(cmd)
}

func doHistory(opts *historyOptions) {
	j := journal.New(mustConfig().GetDBPath())
	DieNotNil(j.Init(), "failed to open the transition journal")
	records, maxSeq, err := j.List()
	DieNotNil(err, "failed to read the transition journal")

	if len(records) == 0 {
		fmt.Println("No transitions recorded")
		return
	}
	for _, record := range records {
		fmt.Printf("%s  run:%.8s  %-20s %s\n", record.DeviceTime, record.RunID, record.State, record.Details)
	}
	if opts.prune {
		DieNotNil(j.Prune(maxSeq), "failed to prune the transition journal")
		fmt.Printf("Pruned %d transitions\n", len(records))
	}
}
