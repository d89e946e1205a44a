// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/guidomb/statemodeling/pkg/firmware"
)

// progressRenderer redraws a single progress line on a terminal. On a
// non-terminal stdout it stays quiet; the services' debug logs cover that
// case.
type progressRenderer struct {
	tty     bool
	lastLen int
}

func newProgressRenderer() *progressRenderer {
	return &progressRenderer{tty: isatty.IsTerminal(os.Stdout.Fd())}
}

func (r *progressRenderer) update(phase string, progress firmware.Progress) {
	if !r.tty {
		return
	}
	line := fmt.Sprintf("%s %5.1f%% (%d/%d bytes)", phase, progress.Percentage(), progress.Partial, progress.Total)
	pad := r.lastLen
	if len(line) > pad {
		pad = len(line)
	}
	fmt.Printf("\r%-*s", pad, line)
	r.lastLen = len(line)
}

func (r *progressRenderer) finish() {
	if r.tty && r.lastLen > 0 {
		fmt.Println()
		r.lastLen = 0
	}
}
