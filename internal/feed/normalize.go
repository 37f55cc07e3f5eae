// SPDX-License-Identifier: MIT

package feed

import (
	"fmt"

	"github.com/google/uuid"
)

// NormalizePrice resolves a raw (price, comparePrice) pair into the
// displayed current price and an optional original price. The current
// price is always the lesser of the two source values, the original the
// greater; when the alternate value is absent or not strictly greater,
// no original price is reported.
func NormalizePrice(price float64, compare *float64) (current float64, original *float64) {
	if compare == nil {
		return price, nil
	}
	lo, hi := price, *compare
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi <= lo {
		return lo, nil
	}
	return lo, &hi
}

// Normalize validates and canonicalizes a raw item in place:
// price normalization for every product, id defaulting, and the
// one-media-mode invariant (video wins over gallery when both are set,
// so that exactly one presentation mode is active).
func Normalize(it *Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if len(it.Products) == 0 {
		return fmt.Errorf("item %s: at least one shoppable product required", it.ID)
	}
	if it.PrimaryProduct < 0 || it.PrimaryProduct >= len(it.Products) {
		it.PrimaryProduct = 0
	}
	if it.VideoURL == "" && len(it.GalleryImages) == 0 && it.PosterURL == "" {
		return fmt.Errorf("item %s: no playable media", it.ID)
	}
	for n := range it.Products {
		p := &it.Products[n]
		cur, orig := NormalizePrice(p.Price, p.OriginalPrice)
		p.Price = cur
		p.OriginalPrice = orig
	}
	if it.Music != nil && it.Music.URL == "" {
		it.Music = nil
	}
	return nil
}
