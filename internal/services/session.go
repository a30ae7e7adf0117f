package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/models"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/store"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/ws"
)

// Broadcaster fans room-scoped messages out to subscribed connections.
// Implemented by ws.Hub.
type Broadcaster interface {
	Broadcast(roomCode string, message ws.WSMessage)
}

// SessionService coordinates the session store, the per-session state
// machines, and the room broadcaster. Every mutation is applied under the
// target session's own lock and its broadcast is built from a snapshot taken
// immediately after the mutation completes.
type SessionService struct {
	store *store.Store
	stats *StatsService
	hub   Broadcaster
}

func NewSessionService(store *store.Store, stats *StatsService, hub Broadcaster) *SessionService {
	return &SessionService{store: store, stats: stats, hub: hub}
}

// CreateSession registers a new room owned by the authenticated caller.
func (s *SessionService) CreateSession(ownerID string, input models.CreateSessionInput, settings models.Settings) (*models.Snapshot, error) {
	if strings.TrimSpace(input.Name) == "" || ownerID == "" {
		return nil, models.ErrValidation
	}
	session, err := s.store.Create(ownerID, input, settings)
	if err != nil {
		return nil, err
	}
	return session.Snapshot(), nil
}

// GetSnapshot returns the current state of a room.
func (s *SessionService) GetSnapshot(code string) (*models.Snapshot, error) {
	session, err := s.store.Lookup(code)
	if err != nil {
		return nil, err
	}
	return session.Snapshot(), nil
}

// JoinByName is the one-shot join path: a guest identity is minted and
// returned to the caller, who echoes it back on the streaming join. The
// participant starts offline until a connection binds it.
func (s *SessionService) JoinByName(code, name string) (*models.Snapshot, *models.Participant, error) {
	session, err := s.store.Lookup(code)
	if err != nil {
		return nil, nil, err
	}

	participant, created, err := session.Join(models.JoinInput{
		Name:    name,
		IsGuest: true,
		Online:  false,
	}, newGuestID, time.Now())
	if err != nil {
		return nil, nil, err
	}

	snapshot := session.Snapshot()
	if created {
		s.hub.Broadcast(session.RoomCode, ws.WSMessage{
			Type: ws.EventParticipantJoined,
			Data: ws.ParticipantJoinedData{Participant: participant, Session: snapshot},
		})
	}
	return snapshot, participant, nil
}

// JoinStream is the streaming join path. An exact identity match (user id or
// previously-minted guest id) reconciles with the existing record; otherwise
// a new guest participant is created. Returns the session, the canonical
// participant, and whether the roster grew.
func (s *SessionService) JoinStream(code, name, userID, guestID string) (*models.Session, *models.Participant, bool, error) {
	session, err := s.store.Lookup(code)
	if err != nil {
		return nil, nil, false, err
	}

	identity := userID
	isGuest := false
	if identity == "" {
		identity = guestID
		isGuest = true
	}

	participant, created, err := session.Join(models.JoinInput{
		Identity: identity,
		Name:     name,
		IsGuest:  isGuest,
		Online:   true,
	}, newGuestID, time.Now())
	if err != nil {
		return nil, nil, false, err
	}

	snapshot := session.Snapshot()
	if created {
		s.hub.Broadcast(session.RoomCode, ws.WSMessage{
			Type: ws.EventParticipantJoined,
			Data: ws.ParticipantJoinedData{Participant: participant, Session: snapshot},
		})
	} else {
		// Reconnects still refresh every viewer's roster.
		s.hub.Broadcast(session.RoomCode, ws.WSMessage{
			Type: ws.EventSessionUpdated,
			Data: ws.SessionUpdatedData{Session: snapshot},
		})
	}
	return session, participant, created, nil
}

// Disconnect flips a participant offline when its transport connection drops
// or it leaves explicitly. The record is retained for reconnection. Going
// offline can complete the ballot (everyone still online has voted), so the
// auto-reveal condition is re-evaluated here as well as on each vote.
func (s *SessionService) Disconnect(code, identity string) error {
	session, err := s.store.Lookup(code)
	if err != nil {
		return err
	}
	participant, err := session.SetOnline(identity, false, time.Now())
	if err != nil {
		return err
	}
	s.hub.Broadcast(session.RoomCode, ws.WSMessage{
		Type: ws.EventParticipantLeft,
		Data: ws.ParticipantLeftData{
			ParticipantID:   participant.ID,
			ParticipantName: participant.Name,
			Session:         session.Snapshot(),
		},
	})

	if session.Settings.AutoReveal && session.AllOnlineVoted() {
		if err := s.reveal(session); err != nil && err != models.ErrInvalidTransition {
			return err
		}
	}
	return nil
}

// CastVote records a hidden vote for the current story. The room only learns
// that the participant has voted; with auto-reveal enabled the ballot is
// disclosed the instant every online participant has voted.
func (s *SessionService) CastVote(code, identity, storyID, value string, confidence int) error {
	session, err := s.store.Lookup(code)
	if err != nil {
		return err
	}

	vote, err := session.CastVote(identity, storyID, value, confidence, time.Now())
	if err != nil {
		return err
	}

	participant, err := session.Participant(identity)
	if err != nil {
		return err
	}
	s.hub.Broadcast(session.RoomCode, ws.WSMessage{
		Type: ws.EventVoteCast,
		Data: ws.VoteCastData{
			UserID:   participant.ID,
			UserName: participant.Name,
			StoryID:  vote.StoryID,
			HasVoted: true,
		},
	})

	if session.Settings.AutoReveal && session.AllOnlineVoted() {
		if err := s.reveal(session); err != nil && err != models.ErrInvalidTransition {
			return err
		}
	}
	return nil
}

// RevealVotes is the facilitator's manual reveal.
func (s *SessionService) RevealVotes(code, identity string) error {
	session, err := s.store.Lookup(code)
	if err != nil {
		return err
	}
	if !session.IsFacilitator(identity) {
		return models.ErrNotFacilitator
	}
	return s.reveal(session)
}

func (s *SessionService) reveal(session *models.Session) error {
	votes, stats, err := session.Reveal(s.stats.Compute, time.Now())
	if err != nil {
		return err
	}
	s.hub.Broadcast(session.RoomCode, ws.WSMessage{
		Type: ws.EventVotesRevealed,
		Data: ws.VotesRevealedData{
			StoryID: session.CurrentStoryID(),
			Votes:   votes,
			Stats:   stats,
			Session: session.Snapshot(),
		},
	})
	return nil
}

// StartVoting opens the ballot for the current (or given) story.
func (s *SessionService) StartVoting(code, identity, storyID string) error {
	session, err := s.store.Lookup(code)
	if err != nil {
		return err
	}
	if !session.IsFacilitator(identity) {
		return models.ErrNotFacilitator
	}
	if err := session.StartVoting(storyID, time.Now()); err != nil {
		return err
	}
	s.broadcastUpdated(session)
	return nil
}

// StopVoting halts voting for discussion; votes stay hidden and retained.
func (s *SessionService) StopVoting(code, identity string) error {
	session, err := s.store.Lookup(code)
	if err != nil {
		return err
	}
	if !session.IsFacilitator(identity) {
		return models.ErrNotFacilitator
	}
	if err := session.StopVoting(time.Now()); err != nil {
		return err
	}
	s.broadcastUpdated(session)
	return nil
}

// ResetVoting clears the ballot and resumes voting.
func (s *SessionService) ResetVoting(code, identity, storyID string) error {
	session, err := s.store.Lookup(code)
	if err != nil {
		return err
	}
	if !session.IsFacilitator(identity) {
		return models.ErrNotFacilitator
	}
	if err := session.ResetVoting(storyID, time.Now()); err != nil {
		return err
	}
	s.hub.Broadcast(session.RoomCode, ws.WSMessage{
		Type: ws.EventVotingReset,
		Data: ws.VotingResetData{
			StoryID: session.CurrentStoryID(),
			Session: session.Snapshot(),
		},
	})
	return nil
}

// CreateStory appends a story to the queue; the first story is auto-selected.
func (s *SessionService) CreateStory(code, identity string, input ws.StoryCreatePayload) (*models.Story, error) {
	session, err := s.store.Lookup(code)
	if err != nil {
		return nil, err
	}
	if !session.IsFacilitator(identity) {
		return nil, models.ErrNotFacilitator
	}

	now := time.Now()
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	story := &models.Story{
		ID:              uuid.New().String(),
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		AcceptanceNotes: input.AcceptanceNotes,
		Priority:        priority,
		Status:          models.StoryStatusPending,
		CreatedByID:     identity,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := session.AddStory(story, now); err != nil {
		return nil, err
	}
	s.broadcastUpdated(session)
	return story, nil
}

// UpdateStory applies partial updates, including recording a final estimate
// after reveal.
func (s *SessionService) UpdateStory(code, identity, storyID string, updates models.StoryUpdate) (*models.Story, error) {
	session, err := s.store.Lookup(code)
	if err != nil {
		return nil, err
	}
	if !session.IsFacilitator(identity) {
		return nil, models.ErrNotFacilitator
	}
	story, err := session.UpdateStory(storyID, updates, time.Now())
	if err != nil {
		return nil, err
	}
	s.broadcastUpdated(session)
	return story, nil
}

// SelectStory points the room at a story with a clean ballot.
func (s *SessionService) SelectStory(code, identity, storyID string) error {
	session, err := s.store.Lookup(code)
	if err != nil {
		return err
	}
	if !session.IsFacilitator(identity) {
		return models.ErrNotFacilitator
	}
	if err := session.SelectStory(storyID, time.Now()); err != nil {
		return err
	}
	s.broadcastUpdated(session)
	return nil
}

// EvictExpired sweeps the store and tells every connection in an evicted room
// that its session is gone before the room code stops resolving.
func (s *SessionService) EvictExpired() int {
	evicted := s.store.EvictExpired()
	for _, session := range evicted {
		s.hub.Broadcast(session.RoomCode, ws.WSMessage{
			Type: ws.EventSessionExpired,
			Data: ws.SessionExpiredData{RoomCode: session.RoomCode},
		})
	}
	return len(evicted)
}

func (s *SessionService) broadcastUpdated(session *models.Session) {
	s.hub.Broadcast(session.RoomCode, ws.WSMessage{
		Type: ws.EventSessionUpdated,
		Data: ws.SessionUpdatedData{Session: session.Snapshot()},
	})
}

func newGuestID() string {
	return "guest-" + uuid.New().String()
}
