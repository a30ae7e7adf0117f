package models

import "time"

// Vote is one participant's submission for one story. Values are hidden from
// every broadcast until the session reaches the revealing phase.
type Vote struct {
	ParticipantID string    `json:"participant_id"`
	StoryID       string    `json:"story_id"`
	Value         string    `json:"value"`
	Confidence    int       `json:"confidence"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// RevealedVote pairs a disclosed vote with the voter's display name for
// reveal broadcasts.
type RevealedVote struct {
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	Value           string `json:"value"`
	Confidence      int    `json:"confidence"`
}

// RevealStats are derived at reveal time, never stored in the vote ledger.
// Non-numeric values ("?", "XL") are excluded from the numeric aggregates.
type RevealStats struct {
	ParticipantCount int     `json:"participant_count"`
	VoteCount        int     `json:"vote_count"`
	NumericCount     int     `json:"numeric_count"`
	Mean             float64 `json:"mean"`
	Median           float64 `json:"median"`
}
