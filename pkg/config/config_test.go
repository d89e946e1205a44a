package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/require"
)

const testToml = `
[gateway]
server = "https://gw.example.com"

[device]
tracker = "device-1"
current_version = "1.0.0"
hardware_id = "board-a"

[storage]
path = "/data/fwup"

[install]
slot = "/data/slot/firmware.bin"
`

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestConfig_Load(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, TomlFilename, testToml)

	cfg, err := NewConfig([]string{dir})
	require.NoError(t, err)
	require.Equal(t, "https://gw.example.com", cfg.GetServerBaseURL().String())

	tracker := cfg.GetTracker()
	require.Equal(t, "device-1", tracker.ID)
	require.Equal(t, semver.MustParse("1.0.0"), tracker.CurrentVersion)

	require.Equal(t, "/data/fwup", cfg.GetStorageDir())
	require.Equal(t, "/data/fwup/archives", cfg.GetArchiveDir())
	require.Equal(t, "/data/fwup/fwup.db", cfg.GetDBPath())
	require.Equal(t, "/data/slot/firmware.bin", cfg.GetSlotPath())
	require.Equal(t, "board-a", cfg.GetHardwareID())
	require.Empty(t, cfg.GetAuthToken())
}

func TestConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, TomlFilename, `
[gateway]
server = "https://gw.example.com"

[device]
tracker = "device-1"
current_version = "1.0.0"
`)

	cfg, err := NewConfig([]string{dir})
	require.NoError(t, err)
	require.Equal(t, StorageDefaultDir, cfg.GetStorageDir())
	require.Equal(t, SlotDefaultPath, cfg.GetSlotPath())
	require.Empty(t, cfg.GetHardwareID())
}

func TestConfig_IniOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, TomlFilename, testToml)
	writeConfig(t, dir, IniFilename, `
[device]
auth_token = secret-token
hardware_id = board-b
`)

	cfg, err := NewConfig([]string{dir})
	require.NoError(t, err)
	require.Equal(t, "secret-token", cfg.GetAuthToken())
	require.Equal(t, "board-b", cfg.GetHardwareID(), "the INI value wins over the TOML one")
}

func TestConfig_SearchOrder(t *testing.T) {
	empty := t.TempDir()
	populated := t.TempDir()
	writeConfig(t, populated, TomlFilename, testToml)

	cfg, err := NewConfig([]string{empty, populated})
	require.NoError(t, err)
	require.Equal(t, "device-1", cfg.GetTracker().ID)
}

func TestConfig_Errors(t *testing.T) {
	t.Run("no directories", func(t *testing.T) {
		_, err := NewConfig(nil)
		require.Error(t, err)
	})
	t.Run("no config file anywhere", func(t *testing.T) {
		_, err := NewConfig([]string{t.TempDir()})
		require.Error(t, err)
	})
	t.Run("missing server", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, TomlFilename, `
[device]
tracker = "device-1"
current_version = "1.0.0"
`)
		_, err := NewConfig([]string{dir})
		require.ErrorContains(t, err, ServerBaseUrlKey)
	})
	t.Run("missing tracker", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, TomlFilename, `
[gateway]
server = "https://gw.example.com"

[device]
current_version = "1.0.0"
`)
		_, err := NewConfig([]string{dir})
		require.ErrorContains(t, err, TrackerIDKey)
	})
	t.Run("invalid version", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, TomlFilename, `
[gateway]
server = "https://gw.example.com"

[device]
tracker = "device-1"
current_version = "not-a-version"
`)
		_, err := NewConfig([]string{dir})
		require.ErrorContains(t, err, CurrentVersionKey)
	})
}
