// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package client implements the firmware-metadata and transfer service
// against a device gateway over HTTPS.
package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/blang/semver/v4"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/guidomb/statemodeling/pkg/firmware"
)

type (
	// ArchiveStore persists downloaded firmware archives and locates them.
	ArchiveStore interface {
		Create(name string) (io.WriteCloser, firmware.Location, error)
	}

	// Gateway talks to the device gateway's firmware endpoints and implements
	// firmware.UpdateService.
	Gateway struct {
		http      *resty.Client
		store     ArchiveStore
		chunkSize int
		retries   uint64
	}

	GatewayOpt func(*Gateway)

	firmwarePayload struct {
		Version string `json:"version"`
		Size    int64  `json:"size"`
		URI     string `json:"uri"`
		SHA256  string `json:"sha256"`
	}
)

const (
	userAgent        = "fwup/1.0.0"
	defaultChunkSize = 64 * 1024
	defaultRetries   = 4
	requestTimeout   = 5 * time.Minute
)

// ErrChecksumMismatch marks an archive whose digest does not match the
// published metadata.
var ErrChecksumMismatch = errors.New("archive checksum does not match firmware metadata")

func NewGateway(baseURL, authToken string, store ArchiveStore, options ...GatewayOpt) *Gateway {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("User-Agent", userAgent)
	if authToken != "" {
		httpClient.SetAuthToken(authToken)
	}
	g := &Gateway{
		http:      httpClient,
		store:     store,
		chunkSize: defaultChunkSize,
		retries:   defaultRetries,
	}
	for _, o := range options {
		o(g)
	}
	return g
}

// WithChunkSize sets the read size per progress chunk during downloads.
func WithChunkSize(size int) GatewayOpt {
	return func(g *Gateway) { g.chunkSize = size }
}

// WithRetries sets how many times a failed metadata check is retried.
func WithRetries(retries uint64) GatewayOpt {
	return func(g *Gateway) { g.retries = retries }
}

// HTTPClient exposes the underlying transport, for tests.
func (g *Gateway) HTTPClient() *http.Client {
	return g.http.GetClient()
}

// CheckForUpdate fetches the latest firmware published for the tracker and
// returns its metadata, or nil when the tracker already runs the latest
// version. Transient gateway failures are retried with exponential backoff.
func (g *Gateway) CheckForUpdate(ctx context.Context, tracker firmware.Tracker) (*firmware.Metadata, error) {
	var payload firmwarePayload
	noUpdate := false
	operation := func() error {
		resp, err := g.http.R().
			SetContext(ctx).
			SetResult(&payload).
			Get(fmt.Sprintf("/devices/%s/firmware/latest", tracker.ID))
		if err != nil {
			return fmt.Errorf("failed to query latest firmware: %w", err)
		}
		switch {
		case resp.StatusCode() == http.StatusNoContent:
			noUpdate = true
			return nil
		case resp.StatusCode() >= http.StatusInternalServerError:
			return fmt.Errorf("gateway error: HTTP_%d", resp.StatusCode())
		case resp.IsError():
			return backoff.Permanent(fmt.Errorf("firmware lookup rejected: HTTP_%d", resp.StatusCode()))
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.retries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	if noUpdate {
		return nil, nil
	}

	version, err := semver.Parse(payload.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid firmware version %q: %w", payload.Version, err)
	}
	if !version.GT(tracker.CurrentVersion) {
		slog.Debug("published firmware is not newer than the running one",
			"published", version.String(), "running", tracker.CurrentVersion.String())
		return nil, nil
	}
	return &firmware.Metadata{
		Version: version,
		Size:    payload.Size,
		URI:     payload.URI,
		SHA256:  payload.SHA256,
	}, nil
}

// Download streams the firmware artifact into the archive store, reporting a
// progress chunk per read and completing with the archive's location. The
// digest of the received bytes is checked against the metadata.
func (g *Gateway) Download(ctx context.Context, fw firmware.Metadata) <-chan firmware.Signal[firmware.Location] {
	signals := make(chan firmware.Signal[firmware.Location])
	go func() {
		defer close(signals)
		signals <- g.download(ctx, fw, signals)
	}()
	return signals
}

func (g *Gateway) download(ctx context.Context, fw firmware.Metadata,
	signals chan<- firmware.Signal[firmware.Location]) firmware.Signal[firmware.Location] {
	resp, err := g.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(fw.URI)
	if err != nil {
		return firmware.Failed[firmware.Location](fmt.Errorf("failed to fetch firmware artifact: %w", err))
	}
	body := resp.RawBody()
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			slog.Debug("failed to close artifact response body", "error", closeErr)
		}
	}()
	if resp.IsError() {
		return firmware.Failed[firmware.Location](fmt.Errorf("artifact fetch rejected: HTTP_%d", resp.StatusCode()))
	}

	archive, location, err := g.store.Create(archiveName(fw))
	if err != nil {
		return firmware.Failed[firmware.Location](fmt.Errorf("failed to create archive: %w", err))
	}
	digest := sha256.New()
	buf := make([]byte, g.chunkSize)
	var received int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := archive.Write(buf[:n]); writeErr != nil {
				_ = archive.Close()
				return firmware.Failed[firmware.Location](fmt.Errorf("failed to write archive: %w", writeErr))
			}
			digest.Write(buf[:n])
			received += int64(n)
			signals <- firmware.Chunk[firmware.Location](firmware.NewProgress(received, fw.Size))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = archive.Close()
			return firmware.Failed[firmware.Location](fmt.Errorf("artifact transfer interrupted: %w", readErr))
		}
	}
	if err := archive.Close(); err != nil {
		return firmware.Failed[firmware.Location](fmt.Errorf("failed to finalize archive: %w", err))
	}
	if fw.SHA256 != "" && hex.EncodeToString(digest.Sum(nil)) != fw.SHA256 {
		return firmware.Failed[firmware.Location](ErrChecksumMismatch)
	}
	slog.Debug("firmware artifact downloaded", "location", string(location), "bytes", received)
	return firmware.Completed(location)
}

func archiveName(fw firmware.Metadata) string {
	return fmt.Sprintf("firmware-%s.bin", fw.Version)
}
