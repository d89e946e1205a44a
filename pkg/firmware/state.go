// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package firmware

import "github.com/blang/semver/v4"

// State is the closed set of phases of the update flow. Exactly one variant
// is active at any time; each variant carries only the data meaningful to
// that phase.
type State interface {
	isState()
}

type (
	// Idle is the initial state: nothing is known about available updates.
	Idle struct {
		Tracker Tracker
	}

	// CheckingForUpdate means a metadata check is in flight.
	CheckingForUpdate struct {
		Tracker Tracker
	}

	// CheckForUpdateError means the metadata check failed.
	CheckForUpdateError struct {
		Tracker Tracker
		Err     error
	}

	// PendingDownload means a newer firmware is available and waiting for the
	// user to start the download.
	PendingDownload struct {
		Firmware Metadata
	}

	// Downloading means the firmware artifact transfer is in flight.
	Downloading struct {
		Firmware Metadata
		Progress Progress
	}

	// DownloadError means the transfer failed.
	DownloadError struct {
		Firmware Metadata
		Err      error
	}

	// PendingInstall means the archive is on disk and waiting for the user to
	// start the installation.
	PendingInstall struct {
		Archive Archive
	}

	// Installing means the archive is being applied to the device.
	Installing struct {
		Archive  Archive
		Progress Progress
	}

	// InstallError means applying the archive failed.
	InstallError struct {
		Archive Archive
		Err     error
	}

	// UpToDate means the device runs the given version and no newer firmware
	// is known.
	UpToDate struct {
		Version semver.Version
	}
)

func (Idle) isState()                {}
func (CheckingForUpdate) isState()   {}
func (CheckForUpdateError) isState() {}
func (PendingDownload) isState()     {}
func (Downloading) isState()         {}
func (DownloadError) isState()       {}
func (PendingInstall) isState()      {}
func (Installing) isState()          {}
func (InstallError) isState()        {}
func (UpToDate) isState()            {}

// StateName returns a short name for the state variant, used for reporting.
func StateName(s State) string {
	switch s.(type) {
	case Idle:
		return "Idle"
	case CheckingForUpdate:
		return "CheckingForUpdate"
	case CheckForUpdateError:
		return "CheckForUpdateError"
	case PendingDownload:
		return "PendingDownload"
	case Downloading:
		return "Downloading"
	case DownloadError:
		return "DownloadError"
	case PendingInstall:
		return "PendingInstall"
	case Installing:
		return "Installing"
	case InstallError:
		return "InstallError"
	case UpToDate:
		return "UpToDate"
	default:
		return "Unknown"
	}
}
