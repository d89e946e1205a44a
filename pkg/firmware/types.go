// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package firmware defines the firmware-update state machine: the value
// types, states, events, commands and output messages of the update flow,
// the pure behavior over them, and the command executor that performs the
// asynchronous work against the update and device services.
package firmware

import (
	"github.com/blang/semver/v4"
)

type (
	// Tracker identifies the device whose firmware is tracked, together with
	// the version it is currently running.
	Tracker struct {
		ID             string
		CurrentVersion semver.Version
	}

	// Metadata describes a firmware artifact published for a tracker.
	Metadata struct {
		Version semver.Version
		Size    int64
		URI     string
		SHA256  string
	}

	// Location locates a downloaded firmware archive, typically a path inside
	// the local archive store.
	Location string

	// Archive is a downloaded firmware artifact ready to be installed.
	Archive struct {
		Metadata Metadata
		Location Location
	}
)
