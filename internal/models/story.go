package models

import "time"

// Story is one estimable unit, owned exclusively by its session.
type Story struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	AcceptanceNotes string    `json:"acceptance_notes,omitempty"`
	Priority        string    `json:"priority"`
	Status          string    `json:"status"`
	FinalEstimate   *string   `json:"final_estimate,omitempty"`
	CreatedByID     string    `json:"created_by_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StoryUpdate carries the mutable story fields. Nil pointers leave the
// corresponding field untouched.
type StoryUpdate struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	AcceptanceNotes *string `json:"acceptance_notes,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	Status          *string `json:"status,omitempty"`
	FinalEstimate   *string `json:"final_estimate,omitempty"`
}
