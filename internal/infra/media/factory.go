// SPDX-License-Identifier: MIT

// Package media implements the media element ports against plain HTTP:
// elements become "ready" once the remote asset is reachable, and
// playback position advances on the wall clock. This is the headless
// daemon's stand-in for a real rendering surface.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	xglog "github.com/glintworks/reels/internal/log"
	"github.com/glintworks/reels/internal/playback/ports"
)

// prefetchBytes is how much of an audio asset a prefetch hint pulls.
const prefetchBytes = 64 << 10

// Factory builds probe-backed elements sharing one HTTP client.
type Factory struct {
	client *http.Client
	logger zerolog.Logger
}

// NewFactory wraps client; nil uses http.DefaultClient.
func NewFactory(client *http.Client) *Factory {
	if client == nil {
		client = http.DefaultClient
	}
	return &Factory{
		client: client,
		logger: xglog.WithComponent("media"),
	}
}

// NewVideo implements ports.MediaFactory.
func (f *Factory) NewVideo() ports.VideoElement {
	return newProbeVideo(f.client)
}

// NewImage implements ports.MediaFactory.
func (f *Factory) NewImage() ports.ImageElement {
	return &probeImage{client: f.client}
}

// PrefetchAudio implements ports.MediaFactory: a ranged GET warms the
// CDN and the local connection pool without holding the asset.
func (f *Factory) PrefetchAudio(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("prefetch %s: %w", url, err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", prefetchBytes-1))

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("prefetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("prefetch %s: unexpected status %d", url, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, prefetchBytes))
	return nil
}

// probe checks that the asset at url is reachable, preferring HEAD and
// falling back to a ranged GET for servers that reject it.
func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode < 400 {
			return nil
		}
		if resp.StatusCode != http.StatusMethodNotAllowed {
			return fmt.Errorf("probe %s: unexpected status %d", url, resp.StatusCode)
		}
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	req.Header.Set("Range", "bytes=0-1")
	resp, err = client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("probe %s: unexpected status %d", url, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2))
	return nil
}
