// SPDX-License-Identifier: MIT

package sqlitestore

import "github.com/glintworks/reels/internal/feed"

func feedItem(productID string) feed.Item {
	return feed.Item{ID: "reel-" + productID, ProductID: productID}
}
