// SPDX-License-Identifier: MIT

// Package music resolves the authoritative audio track for a feed item.
package music

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/glintworks/reels/internal/feed"
	xglog "github.com/glintworks/reels/internal/log"
	"github.com/glintworks/reels/internal/metrics"
)

// Track is a resolved playable audio track.
type Track struct {
	URL      string
	Title    string
	Artist   string
	StartAt  float64
	EndAt    *float64
	Priority int
}

// Row is one candidate music row returned by the lookup service.
type Row struct {
	AudioURL string
	Title    string
	Artist   string
	StartAt  float64
	EndAt    *float64
	Priority int
}

// LookupService returns the active music rows associated with a product.
// Row order is not guaranteed; the resolver sorts by priority.
type LookupService interface {
	ActiveByProduct(ctx context.Context, productID int64) ([]Row, error)
}

// Resolver produces the authoritative Track for a feed item: the
// embedded reference when present, else the lowest-priority active
// lookup row, else no music. Concurrent resolves for the same product
// are deduplicated.
type Resolver struct {
	svc LookupService
	sf  singleflight.Group
}

// NewResolver wraps the given lookup service.
func NewResolver(svc LookupService) *Resolver {
	return &Resolver{svc: svc}
}

// Resolve returns the track for the item, or nil when the item has no
// music. Lookup failures degrade to "no music" and are never surfaced
// as playback errors.
func (r *Resolver) Resolve(ctx context.Context, item feed.Item) *Track {
	logger := xglog.WithComponent("music-resolver")

	if item.Music != nil && item.Music.URL != "" {
		metrics.IncResolve("embedded")
		return &Track{
			URL:     item.Music.URL,
			Title:   item.Music.Title,
			Artist:  item.Music.Artist,
			StartAt: item.Music.StartOffset,
			EndAt:   item.Music.EndOffset,
		}
	}

	if r.svc == nil {
		metrics.IncResolve("none")
		return nil
	}

	productID, err := strconv.ParseInt(item.ProductID, 10, 64)
	if err != nil {
		// Non-numeric product ids resolve to no music without a query.
		metrics.IncResolve("none")
		return nil
	}

	v, err, _ := r.sf.Do(fmt.Sprintf("product:%d", productID), func() (any, error) {
		return r.svc.ActiveByProduct(ctx, productID)
	})
	if err != nil {
		logger.Warn().Err(err).
			Str(xglog.FieldProductID, item.ProductID).
			Msg("music lookup failed, item stays silent")
		metrics.IncResolve("error")
		return nil
	}

	rows := v.([]Row)
	if len(rows) == 0 {
		metrics.IncResolve("none")
		return nil
	}

	// Lowest priority value wins; ties keep first-returned order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Priority < rows[j].Priority
	})
	best := rows[0]
	metrics.IncResolve("lookup")
	return &Track{
		URL:      best.AudioURL,
		Title:    best.Title,
		Artist:   best.Artist,
		StartAt:  best.StartAt,
		EndAt:    best.EndAt,
		Priority: best.Priority,
	}
}
