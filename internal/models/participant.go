package models

import "time"

// Participant is one room occupant. ID is the reconciliation key: an
// externally-authenticated user id, or a guest id minted on first join.
// Participants are never hard-deleted while the session lives, so historical
// votes stay attributable after a disconnect.
type Participant struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	IsGuest       bool      `json:"is_guest"`
	IsFacilitator bool      `json:"is_facilitator"`
	IsOnline      bool      `json:"is_online"`
	JoinedAt      time.Time `json:"joined_at"`
}
