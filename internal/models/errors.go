package models

import "errors"

// Caller-visible errors. All of these are non-fatal: they are reported to the
// originating caller and leave the session usable for everyone else.
var (
	ErrSessionNotFound     = errors.New("session not found or expired")
	ErrStoryNotFound       = errors.New("story not found in session")
	ErrInvalidTransition   = errors.New("action not allowed in current phase")
	ErrDuplicateVote       = errors.New("revoting is disabled for this session")
	ErrValidation          = errors.New("invalid request payload")
	ErrParticipantNotFound = errors.New("participant not found in session")
	ErrNotFacilitator      = errors.New("only the session facilitator can perform this action")
)
