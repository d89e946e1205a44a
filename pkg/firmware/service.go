// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package firmware

import "context"

type (
	// Signal is the tri-state transfer signal external services report
	// incremental work with: a progress chunk, successful completion with a
	// value, or a failure. A service delivers signals on a channel and closes
	// it after the terminal Completed or Failed item.
	Signal[V any] struct {
		chunk     Progress
		isChunk   bool
		value     V
		completed bool
		err       error
	}

	// UpdateService is the firmware-metadata and transfer collaborator.
	UpdateService interface {
		// CheckForUpdate returns metadata of firmware newer than what the
		// tracker currently runs, or nil when the tracker is up to date.
		CheckForUpdate(ctx context.Context, tracker Tracker) (*Metadata, error)
		// Download transfers the firmware artifact, reporting chunks and
		// completing with the archive's location.
		Download(ctx context.Context, firmware Metadata) <-chan Signal[Location]
	}

	// DeviceService is the install collaborator.
	DeviceService interface {
		// Install applies the archive to the device, reporting chunks.
		Install(ctx context.Context, archive Archive) <-chan Signal[struct{}]
	}
)

// Chunk builds a progress signal.
func Chunk[V any](progress Progress) Signal[V] {
	return Signal[V]{chunk: progress, isChunk: true}
}

// Completed builds the terminal success signal.
func Completed[V any](value V) Signal[V] {
	return Signal[V]{value: value, completed: true}
}

// Failed builds the terminal failure signal.
func Failed[V any](err error) Signal[V] {
	return Signal[V]{err: err}
}

// Chunk returns the signal's progress, if it is a progress chunk.
func (s Signal[V]) Chunk() (Progress, bool) {
	return s.chunk, s.isChunk
}

// Completed returns the signal's value, if it is the terminal success.
func (s Signal[V]) Completed() (V, bool) {
	return s.value, s.completed
}

// Failed returns the signal's error, if it is the terminal failure.
func (s Signal[V]) Failed() (error, bool) {
	return s.err, !s.isChunk && !s.completed && s.err != nil
}
