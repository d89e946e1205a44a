// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package firmware

import "github.com/blang/semver/v4"

// Event is the closed set of inbound occurrences: user actions and effect
// results. Events are the only way state changes; they carry data, never
// behavior.
type Event interface {
	isEvent()
}

type (
	// CheckForUpdate asks to check whether newer firmware is available.
	CheckForUpdate struct{}
	// Download asks to download the available firmware.
	Download struct{}
	// Install asks to install the downloaded archive.
	Install struct{}

	// UpdateUnavailable reports that no newer firmware exists.
	UpdateUnavailable struct{}
	// UpdateAvailable reports that newer firmware exists.
	UpdateAvailable struct {
		Firmware Metadata
	}
	// FailedToCheckForUpdate reports a failed metadata check.
	FailedToCheckForUpdate struct {
		Err error
	}
	// ProgressUpdate reports transfer progress of the in-flight phase.
	ProgressUpdate struct {
		Progress Progress
	}
	// DownloadCompleted reports where the downloaded archive landed.
	DownloadCompleted struct {
		Location Location
	}
	// FailedToDownload reports a failed download.
	FailedToDownload struct {
		Err error
	}
	// TransferCompleted reports that the installation finished.
	TransferCompleted struct{}
	// FailedToInstall reports a failed installation.
	FailedToInstall struct {
		Err error
	}
)

func (CheckForUpdate) isEvent()         {}
func (Download) isEvent()               {}
func (Install) isEvent()                {}
func (UpdateUnavailable) isEvent()      {}
func (UpdateAvailable) isEvent()        {}
func (FailedToCheckForUpdate) isEvent() {}
func (ProgressUpdate) isEvent()         {}
func (DownloadCompleted) isEvent()      {}
func (FailedToDownload) isEvent()       {}
func (TransferCompleted) isEvent()      {}
func (FailedToInstall) isEvent()        {}

// EventName returns a short name for the event variant, used for reporting.
func EventName(e Event) string {
	switch e.(type) {
	case CheckForUpdate:
		return "CheckForUpdate"
	case Download:
		return "Download"
	case Install:
		return "Install"
	case UpdateUnavailable:
		return "UpdateUnavailable"
	case UpdateAvailable:
		return "UpdateAvailable"
	case FailedToCheckForUpdate:
		return "FailedToCheckForUpdate"
	case ProgressUpdate:
		return "ProgressUpdate"
	case DownloadCompleted:
		return "DownloadCompleted"
	case FailedToDownload:
		return "FailedToDownload"
	case TransferCompleted:
		return "TransferCompleted"
	case FailedToInstall:
		return "FailedToInstall"
	default:
		return "Unknown"
	}
}

// Command is the closed set of outbound effect requests. A command is
// produced by at most one transition and forwarded at most once; the engine
// never batches or retries it.
type Command interface {
	isCommand()
}

type (
	// CheckForUpdateCommand requests a metadata check for the tracker.
	CheckForUpdateCommand struct {
		Tracker Tracker
	}
	// DownloadCommand requests the firmware artifact transfer.
	DownloadCommand struct {
		Firmware Metadata
	}
	// InstallCommand requests applying the archive to the device.
	InstallCommand struct {
		Archive Archive
	}
)

func (CheckForUpdateCommand) isCommand() {}
func (DownloadCommand) isCommand()       {}
func (InstallCommand) isCommand()        {}

// Message is the closed set of notifications meaningful to a composing
// parent, orthogonal to states and events.
type Message interface {
	isMessage()
}

// InstallCompleted notifies that the device now runs the given version.
type InstallCompleted struct {
	Version semver.Version
}

func (InstallCompleted) isMessage() {}
