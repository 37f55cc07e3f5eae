// SPDX-License-Identifier: MIT

package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"

	"github.com/glintworks/reels/internal/playback/ports"
)

// maxTrackBytes caps how much of a track is fetched into memory.
// Reels music snippets are short; anything larger is a broken url.
const maxTrackBytes = 32 << 20

// FetchDecoder fetches a track over HTTP (or from the local filesystem
// for scheme-less urls) and decodes it by container extension.
type FetchDecoder struct {
	client *http.Client
}

// NewFetchDecoder wraps client; nil uses http.DefaultClient.
func NewFetchDecoder(client *http.Client) *FetchDecoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &FetchDecoder{client: client}
}

// Decode implements ports.Decoder.
func (d *FetchDecoder) Decode(ctx context.Context, url string) (ports.AudioSource, error) {
	data, err := d.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	rc := &byteReadCloser{Reader: bytes.NewReader(data)}
	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch containerExt(url) {
	case ".wav":
		stream, format, err = wav.Decode(rc)
	case ".ogg", ".oga":
		stream, format, err = vorbis.Decode(rc)
	default:
		stream, format, err = mp3.Decode(rc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return &fetchedSource{stream: stream, rate: format.SampleRate}, nil
}

func (d *FetchDecoder) fetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		data, err := os.ReadFile(url)
		if err != nil {
			return nil, fmt.Errorf("read track %s: %w", url, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch track %s: %w", url, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch track %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch track %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTrackBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch track %s: %w", url, err)
	}
	if len(data) > maxTrackBytes {
		return nil, fmt.Errorf("fetch track %s: exceeds %d bytes", url, maxTrackBytes)
	}
	return data, nil
}

// containerExt returns the lowercased extension with any query trimmed.
func containerExt(url string) string {
	base, _, _ := strings.Cut(url, "?")
	return strings.ToLower(path.Ext(base))
}

type byteReadCloser struct {
	*bytes.Reader
}

func (*byteReadCloser) Close() error { return nil }

type fetchedSource struct {
	stream beep.StreamSeekCloser
	rate   beep.SampleRate

	closeOnce sync.Once
	closeErr  error
}

// Stream implements ports.AudioSource.
func (s *fetchedSource) Stream() beep.StreamSeeker { return s.stream }

// SampleRate implements ports.AudioSource.
func (s *fetchedSource) SampleRate() beep.SampleRate { return s.rate }

// Close implements ports.AudioSource.
func (s *fetchedSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.stream.Close()
	})
	return s.closeErr
}
