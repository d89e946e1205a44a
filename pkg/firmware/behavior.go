// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package firmware

import (
	"github.com/guidomb/statemodeling/pkg/component"
)

// Transition is the firmware instantiation of the engine's transition tuple.
type Transition = component.Transition[State, Command, Message]

// Behavior is the transition table of the update flow. Every error state
// re-enters its in-progress phase on the same event that started the phase,
// so retry is a plain re-dispatch. Pairs not listed here produce no
// transition and are dropped by the engine.
func Behavior(state State, event Event) (Transition, bool) {
	switch s := state.(type) {
	case Idle:
		if _, ok := event.(CheckForUpdate); ok {
			return startCheck(s.Tracker), true
		}
	case CheckingForUpdate:
		switch e := event.(type) {
		case UpdateUnavailable:
			return to(UpToDate{Version: s.Tracker.CurrentVersion}), true
		case UpdateAvailable:
			return to(PendingDownload{Firmware: e.Firmware}), true
		case FailedToCheckForUpdate:
			return to(CheckForUpdateError{Tracker: s.Tracker, Err: e.Err}), true
		}
	case CheckForUpdateError:
		if _, ok := event.(CheckForUpdate); ok {
			return startCheck(s.Tracker), true
		}
	case PendingDownload:
		if _, ok := event.(Download); ok {
			return startDownload(s.Firmware), true
		}
	case Downloading:
		switch e := event.(type) {
		case ProgressUpdate:
			// Progress is replaced, never accumulated.
			return to(Downloading{Firmware: s.Firmware, Progress: e.Progress}), true
		case DownloadCompleted:
			return to(PendingInstall{Archive: Archive{Metadata: s.Firmware, Location: e.Location}}), true
		case FailedToDownload:
			return to(DownloadError{Firmware: s.Firmware, Err: e.Err}), true
		}
	case DownloadError:
		if _, ok := event.(Download); ok {
			return startDownload(s.Firmware), true
		}
	case PendingInstall:
		if _, ok := event.(Install); ok {
			return startInstall(s.Archive), true
		}
	case Installing:
		switch e := event.(type) {
		case ProgressUpdate:
			return to(Installing{Archive: s.Archive, Progress: e.Progress}), true
		case TransferCompleted:
			version := s.Archive.Metadata.Version
			return to(UpToDate{Version: version}).WithOutput(InstallCompleted{Version: version}), true
		case FailedToInstall:
			return to(InstallError{Archive: s.Archive, Err: e.Err}), true
		}
	case InstallError:
		if _, ok := event.(Install); ok {
			return startInstall(s.Archive), true
		}
	}
	return Transition{}, false
}

func to(next State) Transition {
	return component.To[State, Command, Message](next)
}

func startCheck(tracker Tracker) Transition {
	return to(CheckingForUpdate{Tracker: tracker}).
		WithCommand(CheckForUpdateCommand{Tracker: tracker})
}

func startDownload(firmware Metadata) Transition {
	return to(Downloading{Firmware: firmware, Progress: NewProgress(0, firmware.Size)}).
		WithCommand(DownloadCommand{Firmware: firmware})
}

func startInstall(archive Archive) Transition {
	return to(Installing{Archive: archive, Progress: NewProgress(0, archive.Metadata.Size)}).
		WithCommand(InstallCommand{Archive: archive})
}
