package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/blang/semver/v4"
	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/guidomb/statemodeling/internal/store"
	"github.com/guidomb/statemodeling/pkg/firmware"
)

const (
	testBaseURL   = "https://gw.example.com"
	testLatestURL = testBaseURL + "/devices/device-1/firmware/latest"
	testArtifact  = testBaseURL + "/artifacts/firmware-2.0.0.bin"
)

var testTracker = firmware.Tracker{ID: "device-1", CurrentVersion: semver.MustParse("1.0.0")}

func newTestGateway(t *testing.T, fs afero.Fs, options ...GatewayOpt) *Gateway {
	t.Helper()
	archives := store.New(fs, "/archives")
	require.NoError(t, archives.Init())
	g := NewGateway(testBaseURL, "test-token", archives, options...)
	httpmock.ActivateNonDefault(g.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return g
}

func TestGateway_CheckForUpdate(t *testing.T) {
	payload := map[string]interface{}{
		"version": "2.0.0",
		"size":    20,
		"uri":     testArtifact,
		"sha256":  "aa11bb22",
	}

	t.Run("newer version published", func(t *testing.T) {
		g := newTestGateway(t, afero.NewMemMapFs())
		httpmock.RegisterResponder("GET", testLatestURL,
			httpmock.NewJsonResponderOrPanic(200, payload))

		metadata, err := g.CheckForUpdate(context.Background(), testTracker)
		require.NoError(t, err)
		require.NotNil(t, metadata)
		require.Equal(t, semver.MustParse("2.0.0"), metadata.Version)
		require.Equal(t, int64(20), metadata.Size)
		require.Equal(t, testArtifact, metadata.URI)
	})

	t.Run("published version is not newer", func(t *testing.T) {
		g := newTestGateway(t, afero.NewMemMapFs())
		httpmock.RegisterResponder("GET", testLatestURL,
			httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{"version": "1.0.0"}))

		metadata, err := g.CheckForUpdate(context.Background(), testTracker)
		require.NoError(t, err)
		require.Nil(t, metadata)
	})

	t.Run("no content means up to date", func(t *testing.T) {
		g := newTestGateway(t, afero.NewMemMapFs())
		httpmock.RegisterResponder("GET", testLatestURL,
			httpmock.NewStringResponder(204, ""))

		metadata, err := g.CheckForUpdate(context.Background(), testTracker)
		require.NoError(t, err)
		require.Nil(t, metadata)
	})

	t.Run("client error is not retried", func(t *testing.T) {
		g := newTestGateway(t, afero.NewMemMapFs(), WithRetries(3))
		httpmock.RegisterResponder("GET", testLatestURL,
			httpmock.NewStringResponder(404, "unknown device"))

		_, err := g.CheckForUpdate(context.Background(), testTracker)
		require.Error(t, err)
		require.Equal(t, 1, httpmock.GetTotalCallCount())
	})

	t.Run("gateway error is retried", func(t *testing.T) {
		g := newTestGateway(t, afero.NewMemMapFs(), WithRetries(1))
		httpmock.RegisterResponder("GET", testLatestURL,
			httpmock.NewStringResponder(503, "maintenance"))

		_, err := g.CheckForUpdate(context.Background(), testTracker)
		require.Error(t, err)
		require.Equal(t, 2, httpmock.GetTotalCallCount())
	})

	t.Run("malformed version", func(t *testing.T) {
		g := newTestGateway(t, afero.NewMemMapFs())
		httpmock.RegisterResponder("GET", testLatestURL,
			httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{"version": "not-a-version"}))

		_, err := g.CheckForUpdate(context.Background(), testTracker)
		require.Error(t, err)
	})
}

func collectSignals(t *testing.T, signals <-chan firmware.Signal[firmware.Location]) []firmware.Signal[firmware.Location] {
	t.Helper()
	var collected []firmware.Signal[firmware.Location]
	timeout := time.After(5 * time.Second)
	for {
		select {
		case signal, ok := <-signals:
			if !ok {
				return collected
			}
			collected = append(collected, signal)
		case <-timeout:
			t.Fatalf("Timed out waiting for the signal stream to close; got %d signals", len(collected))
		}
	}
}

func TestGateway_Download(t *testing.T) {
	body := []byte("firmware image bytes, version two")
	digest := sha256.Sum256(body)
	metadata := firmware.Metadata{
		Version: semver.MustParse("2.0.0"),
		Size:    int64(len(body)),
		URI:     testArtifact,
		SHA256:  hex.EncodeToString(digest[:]),
	}

	t.Run("streams chunks and completes", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		g := newTestGateway(t, fs, WithChunkSize(8))
		httpmock.RegisterResponder("GET", testArtifact,
			httpmock.NewBytesResponder(200, body))

		signals := collectSignals(t, g.Download(context.Background(), metadata))
		require.NotEmpty(t, signals)

		location, completed := signals[len(signals)-1].Completed()
		require.True(t, completed, "last signal must be the completion")
		require.Equal(t, firmware.Location("/archives/firmware-2.0.0.bin"), location)

		var received int64
		for _, signal := range signals[:len(signals)-1] {
			progress, isChunk := signal.Chunk()
			require.True(t, isChunk, "every signal before completion must be a chunk")
			require.Greater(t, progress.Partial, received, "chunks must be strictly increasing")
			require.Equal(t, metadata.Size, progress.Total)
			received = progress.Partial
		}
		require.Equal(t, metadata.Size, received)

		stored, err := afero.ReadFile(fs, string(location))
		require.NoError(t, err)
		require.Equal(t, body, stored)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		corrupted := metadata
		corrupted.SHA256 = hex.EncodeToString(make([]byte, 32))
		g := newTestGateway(t, afero.NewMemMapFs(), WithChunkSize(8))
		httpmock.RegisterResponder("GET", testArtifact,
			httpmock.NewBytesResponder(200, body))

		signals := collectSignals(t, g.Download(context.Background(), corrupted))
		require.NotEmpty(t, signals)
		err, failed := signals[len(signals)-1].Failed()
		require.True(t, failed, "last signal must be the failure")
		require.True(t, errors.Is(err, ErrChecksumMismatch))
	})

	t.Run("artifact not found", func(t *testing.T) {
		g := newTestGateway(t, afero.NewMemMapFs())
		httpmock.RegisterResponder("GET", testArtifact,
			httpmock.NewStringResponder(404, "gone"))

		signals := collectSignals(t, g.Download(context.Background(), metadata))
		require.Len(t, signals, 1)
		_, failed := signals[0].Failed()
		require.True(t, failed)
	})
}
