// SPDX-License-Identifier: MIT

package ports

// LinkState is the shareable deep-link parameter: read once at mount,
// replaced (never pushed) on every committed index change.
type LinkState interface {
	// Current returns the feed item id from the deep link, or "".
	Current() string

	// Replace updates the deep link to the given item id.
	Replace(id string) error
}
