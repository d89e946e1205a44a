// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package firmware

import (
	"context"

	"github.com/pkg/errors"
)

// ErrTransferInterrupted marks a service stream that ended without a
// terminal Completed or Failed signal.
var ErrTransferInterrupted = errors.New("transfer ended without completion")

// CommandExecutor performs the asynchronous work the update flow's commands
// request, composing the update and device services. Every failure mode of a
// service is mapped to the command-specific FailedTo* event before it reaches
// the engine; no raw error ever crosses this boundary.
type CommandExecutor struct {
	updates UpdateService
	device  DeviceService
}

func NewCommandExecutor(updates UpdateService, device DeviceService) *CommandExecutor {
	return &CommandExecutor{updates: updates, device: device}
}

func (x *CommandExecutor) Execute(ctx context.Context, command Command) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		switch cmd := command.(type) {
		case CheckForUpdateCommand:
			x.check(ctx, cmd.Tracker, events)
		case DownloadCommand:
			x.download(ctx, cmd.Firmware, events)
		case InstallCommand:
			x.install(ctx, cmd.Archive, events)
		}
	}()
	return events
}

func (x *CommandExecutor) check(ctx context.Context, tracker Tracker, events chan<- Event) {
	firmware, err := x.updates.CheckForUpdate(ctx, tracker)
	switch {
	case err != nil:
		events <- FailedToCheckForUpdate{Err: err}
	case firmware == nil:
		events <- UpdateUnavailable{}
	default:
		events <- UpdateAvailable{Firmware: *firmware}
	}
}

func (x *CommandExecutor) download(ctx context.Context, firmware Metadata, events chan<- Event) {
	for signal := range x.updates.Download(ctx, firmware) {
		if progress, ok := signal.Chunk(); ok {
			events <- ProgressUpdate{Progress: progress}
			continue
		}
		if location, ok := signal.Completed(); ok {
			events <- DownloadCompleted{Location: location}
			return
		}
		if err, ok := signal.Failed(); ok {
			events <- FailedToDownload{Err: err}
			return
		}
	}
	events <- FailedToDownload{Err: ErrTransferInterrupted}
}

func (x *CommandExecutor) install(ctx context.Context, archive Archive, events chan<- Event) {
	for signal := range x.device.Install(ctx, archive) {
		if progress, ok := signal.Chunk(); ok {
			events <- ProgressUpdate{Progress: progress}
			continue
		}
		if _, ok := signal.Completed(); ok {
			events <- TransferCompleted{}
			return
		}
		if err, ok := signal.Failed(); ok {
			events <- FailedToInstall{Err: err}
			return
		}
	}
	events <- FailedToInstall{Err: ErrTransferInterrupted}
}
