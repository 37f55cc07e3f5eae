// SPDX-License-Identifier: MIT

// Package feed defines the vertical feed item model and its source.
package feed

// MusicRef is an audio track reference embedded in a feed item.
type MusicRef struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Artist      string   `json:"artist,omitempty"`
	StartOffset float64  `json:"startOffsetSeconds,omitempty"`
	EndOffset   *float64 `json:"endOffsetSeconds,omitempty"`
}

// Product is one shoppable product attached to a feed item.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
}

// Item is one scrollable unit of the vertical media feed.
type Item struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`

	VideoURL      string   `json:"videoUrl,omitempty"`
	PosterURL     string   `json:"posterUrl,omitempty"`
	GalleryImages []string `json:"galleryImages,omitempty"`

	Music *MusicRef `json:"music,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Creator     string `json:"creator,omitempty"`
	CreatorIcon string `json:"creatorIcon,omitempty"`
	Likes       int    `json:"likes,omitempty"`
	// Liked is session-local, never persisted.
	Liked     bool   `json:"-"`
	Timestamp string `json:"timestamp,omitempty"`

	Products []Product `json:"products"`
	// PrimaryProduct indexes into Products; defaults to 0.
	PrimaryProduct int `json:"primaryProduct,omitempty"`
}

// HasVideo reports whether the item plays as a video.
func (i Item) HasVideo() bool {
	return i.VideoURL != ""
}

// Primary returns the designated primary product, if any.
func (i Item) Primary() (Product, bool) {
	if len(i.Products) == 0 {
		return Product{}, false
	}
	idx := i.PrimaryProduct
	if idx < 0 || idx >= len(i.Products) {
		idx = 0
	}
	return i.Products[idx], true
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf(items []Item, id string) int {
	for n, it := range items {
		if it.ID == id {
			return n
		}
	}
	return -1
}
