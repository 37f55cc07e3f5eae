// SPDX-License-Identifier: MIT

package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeWAV builds a minimal 16-bit mono PCM file with n silent samples.
func makeWAV(rate, n int) []byte {
	var buf bytes.Buffer
	data := make([]byte, n*2)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func TestDecodeWAVOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(makeWAV(8000, 800))
	}))
	defer srv.Close()

	d := NewFetchDecoder(srv.Client())
	src, err := d.Decode(context.Background(), srv.URL+"/track.wav?sig=abc")
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, beep.SampleRate(8000), src.SampleRate())
	assert.Equal(t, 800, src.Stream().Len())

	samples := make([][2]float64, 64)
	n, ok := src.Stream().Stream(samples)
	assert.True(t, ok)
	assert.Equal(t, 64, n)

	require.NoError(t, src.Close(), "close is safe to repeat")
}

func TestDecodeLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.wav")
	require.NoError(t, os.WriteFile(path, makeWAV(8000, 80), 0o644))

	d := NewFetchDecoder(nil)
	src, err := d.Decode(context.Background(), path)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, 80, src.Stream().Len())
}

func TestDecodeRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := NewFetchDecoder(srv.Client())
	_, err := d.Decode(context.Background(), srv.URL+"/missing.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestDecodeRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not audio"))
	}))
	defer srv.Close()

	d := NewFetchDecoder(srv.Client())
	_, err := d.Decode(context.Background(), srv.URL+"/broken.wav")
	require.Error(t, err)
}

func TestContainerExt(t *testing.T) {
	assert.Equal(t, ".wav", containerExt("https://cdn/a.WAV?sig=1"))
	assert.Equal(t, ".mp3", containerExt("a.mp3"))
	assert.Equal(t, "", containerExt("noext"))
}
