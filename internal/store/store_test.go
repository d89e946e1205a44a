package store

import (
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateAndOpen(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/archives")
	require.NoError(t, s.Init())

	w, location, err := s.Create("firmware-2.0.0.bin")
	require.NoError(t, err)
	require.Equal(t, "/archives/firmware-2.0.0.bin", string(location))
	_, err = w.Write([]byte("firmware image bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := s.Open(location)
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "firmware image bytes", string(content))
}

func TestStore_CreateReplacesExistingArchive(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/archives")
	require.NoError(t, s.Init())

	w, location, err := s.Create("firmware-2.0.0.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("interrupted download leftovers"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, _, err = s.Create("firmware-2.0.0.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("fresh"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	content, err := afero.ReadFile(fs, string(location))
	require.NoError(t, err)
	require.Equal(t, "fresh", string(content))
}

func TestStore_OpenMissingArchive(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/archives")
	require.NoError(t, s.Init())
	_, err := s.Open("/archives/missing.bin")
	require.Error(t, err)
}
