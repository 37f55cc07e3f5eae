// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID  = "session_id"
	FieldRequestID  = "request_id"
	FieldFeedItemID = "feed_item_id"
	FieldProductID  = "product_id"

	// Process fields
	FieldComponent = "component"
	FieldEvent     = "event"
	FieldGen       = "gen"

	// Media fields
	FieldURL      = "url"
	FieldTrack    = "track"
	FieldIndex    = "index"
	FieldOldIndex = "old_index"
	FieldNewIndex = "new_index"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldReason   = "reason"
)
