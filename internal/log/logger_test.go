// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithSessionID(ctx, "sess-1")
	ctx = ContextWithFeedItemID(ctx, "reel-1")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "sess-1", SessionIDFromContext(ctx))
	assert.Equal(t, "reel-1", FeedItemIDFromContext(ctx))
}

func TestContextMissingValues(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, SessionIDFromContext(context.Background()))
	assert.Empty(t, FeedItemIDFromContext(nil)) //nolint:staticcheck // nil context tolerated by design
}

func TestWithComponent(t *testing.T) {
	l := WithComponent("syncer")
	// The child logger must be usable without panicking.
	l.Debug().Msg("component logger smoke test")
}

func TestWithContextNoFields(t *testing.T) {
	base := Base()
	enriched := WithContext(context.Background(), base)
	assert.Equal(t, base.GetLevel(), enriched.GetLevel())
}
