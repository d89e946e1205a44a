// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package store keeps downloaded firmware archives on the local filesystem.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/guidomb/statemodeling/pkg/firmware"
)

const dirPerms os.FileMode = 0o750

// Store is an afero-backed archive directory. A Location handed out by the
// store is the archive's path inside that filesystem.
type Store struct {
	fs   afero.Fs
	root string
}

func New(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// Init ensures the archive directory exists.
func (s *Store) Init() error {
	if err := s.fs.MkdirAll(s.root, dirPerms); err != nil {
		return fmt.Errorf("failed to create archive directory %q: %w", s.root, err)
	}
	return nil
}

// Create opens a new archive for writing, replacing any previous archive of
// the same name.
func (s *Store) Create(name string) (io.WriteCloser, firmware.Location, error) {
	path := filepath.Join(s.root, name)
	f, err := s.fs.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create archive %q: %w", path, err)
	}
	return f, firmware.Location(path), nil
}

// Open opens a stored archive for reading.
func (s *Store) Open(location firmware.Location) (afero.File, error) {
	f, err := s.fs.Open(string(location))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %q: %w", location, err)
	}
	return f, nil
}
