// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package installer applies a downloaded firmware archive to the device's
// firmware slot. It implements firmware.DeviceService.
package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/guidomb/statemodeling/pkg/firmware"
)

type (
	Installer struct {
		fs        afero.Fs
		slotPath  string
		chunkSize int
	}

	InstallerOpt func(*Installer)
)

const (
	defaultChunkSize          = 64 * 1024
	slotPerms     os.FileMode = 0o640
	slotDirPerms  os.FileMode = 0o750
)

// ErrChecksumMismatch marks an archive whose digest no longer matches its
// metadata at install time.
var ErrChecksumMismatch = errors.New("archive checksum does not match firmware metadata")

func New(fs afero.Fs, slotPath string, options ...InstallerOpt) *Installer {
	i := &Installer{fs: fs, slotPath: slotPath, chunkSize: defaultChunkSize}
	for _, o := range options {
		o(i)
	}
	return i
}

// WithChunkSize sets the copy size per progress chunk.
func WithChunkSize(size int) InstallerOpt {
	return func(i *Installer) { i.chunkSize = size }
}

// Install copies the archive into the firmware slot, reporting a progress
// chunk per copied block. The archive digest is verified against the
// metadata before the slot is committed.
func (i *Installer) Install(ctx context.Context, archive firmware.Archive) <-chan firmware.Signal[struct{}] {
	signals := make(chan firmware.Signal[struct{}])
	go func() {
		defer close(signals)
		signals <- i.install(ctx, archive, signals)
	}()
	return signals
}

func (i *Installer) install(ctx context.Context, archive firmware.Archive,
	signals chan<- firmware.Signal[struct{}]) firmware.Signal[struct{}] {
	src, err := i.fs.Open(string(archive.Location))
	if err != nil {
		return firmware.Failed[struct{}](fmt.Errorf("failed to open archive: %w", err))
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			slog.Debug("failed to close archive", "error", closeErr)
		}
	}()

	if err := i.fs.MkdirAll(filepath.Dir(i.slotPath), slotDirPerms); err != nil {
		return firmware.Failed[struct{}](fmt.Errorf("failed to create slot directory: %w", err))
	}
	staging := i.slotPath + ".staging"
	dst, err := i.fs.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, slotPerms)
	if err != nil {
		return firmware.Failed[struct{}](fmt.Errorf("failed to stage firmware slot: %w", err))
	}

	digest := sha256.New()
	buf := make([]byte, i.chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			_ = dst.Close()
			_ = i.fs.Remove(staging)
			return firmware.Failed[struct{}](err)
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				_ = dst.Close()
				_ = i.fs.Remove(staging)
				return firmware.Failed[struct{}](fmt.Errorf("failed to write firmware slot: %w", writeErr))
			}
			digest.Write(buf[:n])
			written += int64(n)
			signals <- firmware.Chunk[struct{}](firmware.NewProgress(written, archive.Metadata.Size))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = dst.Close()
			_ = i.fs.Remove(staging)
			return firmware.Failed[struct{}](fmt.Errorf("failed to read archive: %w", readErr))
		}
	}
	if err := dst.Close(); err != nil {
		return firmware.Failed[struct{}](fmt.Errorf("failed to finalize firmware slot: %w", err))
	}
	if archive.Metadata.SHA256 != "" && hex.EncodeToString(digest.Sum(nil)) != archive.Metadata.SHA256 {
		_ = i.fs.Remove(staging)
		return firmware.Failed[struct{}](ErrChecksumMismatch)
	}
	if err := i.fs.Rename(staging, i.slotPath); err != nil {
		return firmware.Failed[struct{}](fmt.Errorf("failed to commit firmware slot: %w", err))
	}
	slog.Debug("firmware installed", "slot", i.slotPath, "version", archive.Metadata.Version.String())
	return firmware.Completed(struct{}{})
}
