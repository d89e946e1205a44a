// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package config loads the fwup configuration: a fwup.toml settings file
// found in an ordered list of directories, plus an optional device.ini next
// to it carrying provisioning overrides (auth token, hardware id).
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/pelletier/go-toml"
	"gopkg.in/ini.v1"

	"github.com/guidomb/statemodeling/pkg/firmware"
)

type Config struct {
	baseURL        *url.URL
	trackerID      string
	currentVersion semver.Version
	storageDir     string
	slotPath       string
	authToken      string
	hardwareID     string
}

const (
	TomlFilename = "fwup.toml"
	IniFilename  = "device.ini"

	ServerBaseUrlKey  = "gateway.server"
	TrackerIDKey      = "device.tracker"
	CurrentVersionKey = "device.current_version"
	HardwareIDKey     = "device.hardware_id"
	StorageDirKey     = "storage.path"
	SlotPathKey       = "install.slot"

	StorageDefaultDir = "/var/lib/fwup"
	ArchivesSubdir    = "archives"
	JournalFilename   = "fwup.db"
	SlotDefaultPath   = "/var/lib/fwup/slot/firmware.bin"
)

// DefaultConfigDirs is the search order for configuration directories.
var DefaultConfigDirs = []string{"/etc/fwup", "/var/lib/fwup"}

func NewConfig(configDirs []string) (*Config, error) {
	if len(configDirs) == 0 {
		return nil, fmt.Errorf("config: no config directories provided")
	}
	dir, err := findConfigDir(configDirs)
	if err != nil {
		return nil, err
	}
	tree, err := toml.LoadFile(filepath.Join(dir, TomlFilename))
	if err != nil {
		return nil, fmt.Errorf("config: failed to load TOML from %q: %w", dir, err)
	}

	cfg := &Config{
		storageDir: StorageDefaultDir,
		slotPath:   SlotDefaultPath,
	}
	server, ok := tree.Get(ServerBaseUrlKey).(string)
	if !ok || server == "" {
		return nil, fmt.Errorf("no %q is found in the TOML config;"+
			" it defines the device gateway base URL", ServerBaseUrlKey)
	}
	if cfg.baseURL, err = url.Parse(server); err != nil {
		return nil, fmt.Errorf("invalid value of the device gateway base URL: %w", err)
	}
	if cfg.trackerID, ok = tree.Get(TrackerIDKey).(string); !ok || cfg.trackerID == "" {
		return nil, fmt.Errorf("no %q is found in the TOML config; it identifies this device", TrackerIDKey)
	}
	versionStr, _ := tree.Get(CurrentVersionKey).(string)
	if versionStr == "" {
		return nil, fmt.Errorf("no %q is found in the TOML config;"+
			" it defines the currently running firmware version", CurrentVersionKey)
	}
	if cfg.currentVersion, err = semver.Parse(versionStr); err != nil {
		return nil, fmt.Errorf("invalid value of %q: %w", CurrentVersionKey, err)
	}
	if v, ok := tree.Get(StorageDirKey).(string); ok && v != "" {
		cfg.storageDir = v
	}
	if v, ok := tree.Get(SlotPathKey).(string); ok && v != "" {
		cfg.slotPath = v
	}
	if v, ok := tree.Get(HardwareIDKey).(string); ok {
		cfg.hardwareID = v
	}

	if err := cfg.loadOverrides(filepath.Join(dir, IniFilename)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadOverrides reads the optional provisioning file. Values there win over
// the TOML ones.
func (c *Config) loadOverrides(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: failed to stat %q: %w", path, err)
	}
	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("config: failed to load INI from %q: %w", path, err)
	}
	section := file.Section("device")
	c.authToken = section.Key("auth_token").String()
	if hardwareID := section.Key("hardware_id").String(); hardwareID != "" {
		c.hardwareID = hardwareID
	}
	return nil
}

func findConfigDir(configDirs []string) (string, error) {
	for _, dir := range configDirs {
		path := filepath.Join(dir, TomlFilename)
		if _, err := os.Stat(path); err == nil {
			return dir, nil
		} else if !os.IsNotExist(err) {
			slog.Debug("failed to probe config file", "path", path, "error", err)
		}
	}
	return "", fmt.Errorf("config: no %s found in any of: %s", TomlFilename, strings.Join(configDirs, ", "))
}

func (c *Config) GetServerBaseURL() *url.URL {
	return c.baseURL
}

func (c *Config) GetTracker() firmware.Tracker {
	return firmware.Tracker{ID: c.trackerID, CurrentVersion: c.currentVersion}
}

func (c *Config) GetStorageDir() string {
	return c.storageDir
}

func (c *Config) GetArchiveDir() string {
	return filepath.Join(c.storageDir, ArchivesSubdir)
}

func (c *Config) GetDBPath() string {
	return filepath.Join(c.storageDir, JournalFilename)
}

func (c *Config) GetSlotPath() string {
	return c.slotPath
}

func (c *Config) GetAuthToken() string {
	return c.authToken
}

func (c *Config) GetHardwareID() string {
	return c.hardwareID
}
