// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/guidomb/statemodeling/internal/installer"
	"github.com/guidomb/statemodeling/internal/journal"
	"github.com/guidomb/statemodeling/internal/store"
	"github.com/guidomb/statemodeling/pkg/client"
	"github.com/guidomb/statemodeling/pkg/component"
	"github.com/guidomb/statemodeling/pkg/config"
	"github.com/guidomb/statemodeling/pkg/firmware"
)

type (
	// updateComponent is the engine instantiated for the firmware flow.
	updateComponent = component.Component[firmware.State, firmware.Event, firmware.Command, firmware.Message]

	// stopPolicy decides how far along the update flow a command drives the
	// engine before handing control back.
	stopPolicy int

	// runner wires the engine to the gateway client, the local installer and
	// the transition journal, and drives one update run.
	runner struct {
		comp    *updateComponent
		journal *journal.Journal
		runID   string
	}
)

const (
	stopAfterCheck stopPolicy = iota
	stopAfterDownload
	stopAfterInstall
)

func newRunner(cfg *config.Config) (*runner, error) {
	fs := afero.NewOsFs()
	archives := store.New(fs, cfg.GetArchiveDir())
	if err := archives.Init(); err != nil {
		return nil, err
	}
	gateway := client.NewGateway(cfg.GetServerBaseURL().String(), cfg.GetAuthToken(), archives)
	device := installer.New(fs, cfg.GetSlotPath())
	executor := firmware.NewCommandExecutor(gateway, device)
	comp := component.New[firmware.State, firmware.Event, firmware.Command, firmware.Message](
		firmware.Idle{Tracker: cfg.GetTracker()}, firmware.Behavior, executor)

	j := journal.New(cfg.GetDBPath())
	if err := j.Init(); err != nil {
		return nil, err
	}
	return &runner{comp: comp, journal: j, runID: uuid.New().String()}, nil
}

// run drives the flow from a fresh check until the stop policy is satisfied
// or an error state is reached. Download and install are auto-dispatched; in
// an interactive composition they would be user taps.
func (r *runner) run(ctx context.Context, stop stopPolicy) error {
	defer r.comp.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages := r.comp.Messages(ctx)
	go func() {
		for message := range messages {
			if installed, ok := message.(firmware.InstallCompleted); ok {
				fmt.Printf("Firmware %s installed\n", installed.Version)
			}
		}
	}()

	states := r.comp.States(ctx)
	render := newProgressRenderer()
	r.comp.Dispatch(firmware.CheckForUpdate{})
	for state := range states {
		r.record(state)
		switch s := state.(type) {
		case firmware.UpToDate:
			fmt.Printf("Up-to-date: running firmware %s\n", s.Version)
			return nil
		case firmware.CheckForUpdateError:
			return fmt.Errorf("failed to check for update: %w", s.Err)
		case firmware.PendingDownload:
			fmt.Printf("Update available: %s (%d bytes)\n", s.Firmware.Version, s.Firmware.Size)
			if stop == stopAfterCheck {
				return nil
			}
			r.comp.Dispatch(firmware.Download{})
		case firmware.Downloading:
			render.update("Downloading", s.Progress)
		case firmware.DownloadError:
			render.finish()
			return fmt.Errorf("failed to download firmware: %w", s.Err)
		case firmware.PendingInstall:
			render.finish()
			fmt.Printf("Downloaded: %s\n", s.Archive.Location)
			if stop == stopAfterDownload {
				return nil
			}
			r.comp.Dispatch(firmware.Install{})
		case firmware.Installing:
			render.update("Installing", s.Progress)
		case firmware.InstallError:
			render.finish()
			return fmt.Errorf("failed to install firmware: %w", s.Err)
		}
	}
	return nil
}

// record journals the committed state. Progress snapshots are skipped; they
// would flood the journal with one row per transferred chunk.
func (r *runner) record(state firmware.State) {
	switch state.(type) {
	case firmware.Downloading, firmware.Installing:
		return
	}
	record := &journal.Record{
		RunID:   r.runID,
		State:   firmware.StateName(state),
		Details: stateDetails(state),
	}
	if err := r.journal.Append(record); err != nil {
		log.Warn().Err(err).Msg("failed to journal transition")
	}
}

func stateDetails(state firmware.State) string {
	type details struct {
		Version string `json:"version,omitempty"`
		Bytes   int64  `json:"bytes,omitempty"`
		Archive string `json:"archive,omitempty"`
		Error   string `json:"error,omitempty"`
	}
	var d details
	switch s := state.(type) {
	case firmware.CheckForUpdateError:
		d.Error = s.Err.Error()
	case firmware.PendingDownload:
		d.Version = s.Firmware.Version.String()
		d.Bytes = s.Firmware.Size
	case firmware.DownloadError:
		d.Version = s.Firmware.Version.String()
		d.Error = s.Err.Error()
	case firmware.PendingInstall:
		d.Version = s.Archive.Metadata.Version.String()
		d.Archive = string(s.Archive.Location)
	case firmware.InstallError:
		d.Version = s.Archive.Metadata.Version.String()
		d.Error = s.Err.Error()
	case firmware.UpToDate:
		d.Version = s.Version.String()
	default:
		return ""
	}
	detailsBytes, _ := json.Marshal(d)
	return string(detailsBytes)
}
