// SPDX-License-Identifier: MIT

package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintworks/reels/internal/music"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "music.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestActiveByProductOrdersByPriority(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, 52, music.Row{AudioURL: "y.mp3", Priority: 2}, true))
	require.NoError(t, s.Upsert(ctx, 52, music.Row{AudioURL: "x.mp3", Priority: 1}, true))
	require.NoError(t, s.Upsert(ctx, 52, music.Row{AudioURL: "z.mp3", Priority: 9}, false))
	require.NoError(t, s.Upsert(ctx, 99, music.Row{AudioURL: "other.mp3", Priority: 1}, true))

	rows, err := s.ActiveByProduct(ctx, 52)
	require.NoError(t, err)
	require.Len(t, rows, 2, "inactive and foreign rows excluded")
	assert.Equal(t, "x.mp3", rows[0].AudioURL)
	assert.Equal(t, "y.mp3", rows[1].AudioURL)
}

func TestActiveByProductEmpty(t *testing.T) {
	s := newTestStore(t)
	rows, err := s.ActiveByProduct(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEndOffsetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	end := 31.5
	require.NoError(t, s.Upsert(ctx, 1, music.Row{AudioURL: "a.mp3", StartAt: 2.5, EndAt: &end, Priority: 1}, true))
	require.NoError(t, s.Upsert(ctx, 1, music.Row{AudioURL: "b.mp3", Priority: 2}, true))

	rows, err := s.ActiveByProduct(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2.5, rows[0].StartAt)
	require.NotNil(t, rows[0].EndAt)
	assert.Equal(t, 31.5, *rows[0].EndAt)
	assert.Nil(t, rows[1].EndAt)
}

func TestResolverOverStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, 52, music.Row{AudioURL: "x.mp3", Priority: 1}, true))

	r := music.NewResolver(s)
	track := r.Resolve(ctx, feedItem("52"))
	require.NotNil(t, track)
	assert.Equal(t, "x.mp3", track.URL)
}
