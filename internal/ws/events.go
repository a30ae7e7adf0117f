package ws

import (
	"encoding/json"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/models"
)

// Inbound event kinds. The gateway rejects anything outside this set.
const (
	EventConnectRoom   = "connect_room"
	EventJoin          = "join"
	EventVoteCast      = "vote_cast"
	EventVotesRevealed = "votes_revealed"
	EventResetVoting   = "reset_voting"
	EventStoryCreated  = "story_created"
	EventStoryUpdated  = "story_updated"
	EventVotingStarted = "voting_started"
	EventVotingStopped = "voting_stopped"
	EventStorySelected = "story_selected"
	EventLeave         = "leave"
)

// Outbound event kinds.
const (
	EventSessionJoined     = "session_joined"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventVotingReset       = "voting_reset"
	EventSessionUpdated    = "session_updated"
	EventSessionExpired    = "session_expired"
	EventError             = "error"
)

// Envelope is the tagged inbound frame: a closed event kind plus a typed
// payload decoded per kind.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ConnectRoomPayload struct {
	RoomCode string `json:"room_code"`
}

type JoinPayload struct {
	RoomCode string `json:"room_code"`
	Name     string `json:"name"`
	UserID   string `json:"user_id,omitempty"`
	GuestID  string `json:"guest_id,omitempty"`
}

type VotePayload struct {
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
}

type VoteCastPayload struct {
	SessionID string      `json:"session_id"`
	StoryID   string      `json:"story_id"`
	Vote      VotePayload `json:"vote"`
}

type VotesRevealedPayload struct {
	SessionID string `json:"session_id"`
	StoryID   string `json:"story_id,omitempty"`
}

type ResetVotingPayload struct {
	StoryID string `json:"story_id,omitempty"`
}

type StoryCreatePayload struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	AcceptanceNotes string `json:"acceptance_notes,omitempty"`
	Priority        string `json:"priority,omitempty"`
}

type StoryCreatedPayload struct {
	SessionID string             `json:"session_id"`
	Story     StoryCreatePayload `json:"story"`
}

type StoryUpdatedPayload struct {
	SessionID string             `json:"session_id"`
	StoryID   string             `json:"story_id"`
	Updates   models.StoryUpdate `json:"updates"`
}

type VotingStartedPayload struct {
	SessionID string `json:"session_id"`
	StoryID   string `json:"story_id,omitempty"`
}

type VotingStoppedPayload struct {
	SessionID string `json:"session_id"`
}

type StorySelectedPayload struct {
	SessionID string `json:"session_id"`
	StoryID   string `json:"story_id"`
}

type LeavePayload struct {
	RoomCode string `json:"room_code,omitempty"`
}

// Outbound payloads.

type SessionJoinedData struct {
	Participant *models.Participant `json:"participant"`
	Session     *models.Snapshot    `json:"session"`
}

type ParticipantJoinedData struct {
	Participant *models.Participant `json:"participant"`
	Session     *models.Snapshot    `json:"session"`
}

type ParticipantLeftData struct {
	ParticipantID   string           `json:"participant_id"`
	ParticipantName string           `json:"participant_name"`
	Session         *models.Snapshot `json:"session"`
}

// VoteCastData announces that a participant voted. It never carries the vote
// value; values stay hidden until reveal.
type VoteCastData struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	StoryID  string `json:"story_id"`
	HasVoted bool   `json:"has_voted"`
}

type VotesRevealedData struct {
	StoryID string                `json:"story_id"`
	Votes   []models.RevealedVote `json:"votes"`
	Stats   *models.RevealStats   `json:"stats"`
	Session *models.Snapshot      `json:"session"`
}

type VotingResetData struct {
	StoryID string           `json:"story_id"`
	Session *models.Snapshot `json:"session"`
}

type SessionUpdatedData struct {
	Session *models.Snapshot `json:"session"`
}

type SessionExpiredData struct {
	RoomCode string `json:"room_code"`
}

type ErrorData struct {
	Message string `json:"message"`
}
