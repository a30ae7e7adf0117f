package models

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Settings are fixed at session creation; there is no update path.
type Settings struct {
	VotingScale   string `json:"voting_scale"`
	TimerSeconds  int    `json:"timer_seconds"`
	AutoReveal    bool   `json:"auto_reveal"`
	AllowRevoting bool   `json:"allow_revoting"`
}

// Session is one estimation room. All mutable state is guarded by the
// per-session mutex: every mutation against one session is serialized while
// distinct sessions proceed fully in parallel. The vote ledger is keyed by
// story id, then participant id.
type Session struct {
	ID          string
	RoomCode    string
	Name        string
	Description string
	OwnerID     string
	TeamRef     string
	SprintRef   string
	Settings    Settings

	phase          Phase
	participants   map[string]*Participant
	stories        []*Story
	currentStoryID string
	votes          map[string]map[string]*Vote
	stats          *RevealStats

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time

	mu sync.RWMutex
}

// CreateSessionInput describes the caller-supplied session metadata.
type CreateSessionInput struct {
	Name        string
	Description string
	TeamRef     string
	SprintRef   string
}

// NewSession constructs a session in the waiting phase. Unknown voting scales
// fall back to fibonacci.
func NewSession(id, roomCode, ownerID string, input CreateSessionInput, settings Settings, ttl time.Duration, now time.Time) *Session {
	if _, ok := ScaleCards[settings.VotingScale]; !ok {
		settings.VotingScale = ScaleFibonacci
	}
	return &Session{
		ID:           id,
		RoomCode:     roomCode,
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		OwnerID:      ownerID,
		TeamRef:      input.TeamRef,
		SprintRef:    input.SprintRef,
		Settings:     settings,
		phase:        PhaseWaiting,
		participants: make(map[string]*Participant),
		votes:        make(map[string]map[string]*Vote),
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

// Expired reports whether the session's lifetime has elapsed.
func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.After(s.ExpiresAt)
}

// JoinInput describes one join attempt from either join path.
type JoinInput struct {
	Identity string // empty means no identity was supplied
	Name     string
	IsGuest  bool
	Online   bool
}

// Join reconciles a participant into the roster. An exact identity match
// rebinds the existing record and flips it online; with no identity supplied
// a soft (name, guest) match is tried as a legacy fallback before minting a
// fresh guest identity. Returns the canonical participant and whether it was
// newly created.
func (s *Session) Join(in JoinInput, mintID func() string, now time.Time) (*Participant, bool, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" && in.Identity == "" {
		return nil, false, ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Identity != "" {
		if p, ok := s.participants[in.Identity]; ok {
			p.IsOnline = in.Online || p.IsOnline
			if name != "" {
				p.Name = name
			}
			s.UpdatedAt = now
			return p.clone(), false, nil
		}
	}

	identity := in.Identity
	if identity == "" {
		// Legacy fallback: two guests sharing a display name collide here.
		// The primary path always round-trips the minted guest id.
		for _, p := range s.participants {
			if p.IsGuest && p.Name == name {
				p.IsOnline = in.Online || p.IsOnline
				s.UpdatedAt = now
				return p.clone(), false, nil
			}
		}
		identity = mintID()
		in.IsGuest = true
	}
	if name == "" {
		return nil, false, ErrValidation
	}

	p := &Participant{
		ID:            identity,
		Name:          name,
		IsGuest:       in.IsGuest,
		IsFacilitator: identity == s.OwnerID,
		IsOnline:      in.Online,
		JoinedAt:      now,
	}
	s.participants[identity] = p
	s.UpdatedAt = now
	return p.clone(), true, nil
}

// SetOnline toggles a participant's presence. The record itself is retained
// so reconnection reconciles cleanly.
func (s *Session) SetOnline(identity string, online bool, now time.Time) (*Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[identity]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	p.IsOnline = online
	s.UpdatedAt = now
	return p.clone(), nil
}

// IsFacilitator reports whether the identity may drive phase transitions and
// manage stories.
func (s *Session) IsFacilitator(identity string) bool {
	return identity != "" && identity == s.OwnerID
}

// AddStory appends a story to the queue. The very first story in an empty
// queue is auto-selected so the room never sits with stories but nothing
// selected.
func (s *Session) AddStory(story *Story, now time.Time) error {
	if strings.TrimSpace(story.Title) == "" {
		return ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stories = append(s.stories, story)
	if len(s.stories) == 1 {
		s.currentStoryID = story.ID
		s.phase = PhaseWaiting
		s.stats = nil
	}
	s.UpdatedAt = now
	return nil
}

// UpdateStory applies partial field updates to a story.
func (s *Session) UpdateStory(storyID string, upd StoryUpdate, now time.Time) (*Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story := s.findStory(storyID)
	if story == nil {
		return nil, ErrStoryNotFound
	}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, ErrValidation
		}
		story.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		story.Description = *upd.Description
	}
	if upd.AcceptanceNotes != nil {
		story.AcceptanceNotes = *upd.AcceptanceNotes
	}
	if upd.Priority != nil {
		story.Priority = *upd.Priority
	}
	if upd.Status != nil {
		story.Status = *upd.Status
	}
	if upd.FinalEstimate != nil {
		story.FinalEstimate = upd.FinalEstimate
		story.Status = StoryStatusEstimated
	}
	story.UpdatedAt = now
	s.UpdatedAt = now

	cp := *story
	return &cp, nil
}

// SelectStory points the room at a story and resets to a clean ballot in the
// waiting phase. Reachable from any phase.
func (s *Session) SelectStory(storyID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findStory(storyID) == nil {
		return ErrStoryNotFound
	}
	s.currentStoryID = storyID
	s.phase = PhaseWaiting
	s.stats = nil
	delete(s.votes, storyID)
	s.UpdatedAt = now
	return nil
}

// StartVoting opens the ballot for the current story. A story id may be
// supplied to select before starting. Requires the waiting phase and a
// current story; stale votes for the story are cleared. A rejected
// transition leaves the session untouched.
func (s *Session) StartVoting(storyID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.currentStoryID
	if storyID != "" {
		if s.findStory(storyID) == nil {
			return ErrStoryNotFound
		}
		target = storyID
	}
	if s.phase != PhaseWaiting {
		return ErrInvalidTransition
	}
	if target == "" {
		return ErrInvalidTransition
	}

	s.currentStoryID = target
	delete(s.votes, target)
	s.phase = PhaseVoting
	s.stats = nil
	s.UpdatedAt = now
	return nil
}

// CastVote records or overwrites the caller's vote for the current story.
// Rejected outside the voting phase, when the vote addresses a story that is
// no longer current, and as a duplicate when revoting is disabled and a vote
// is already on record. An empty storyID targets the current story.
func (s *Session) CastVote(identity, storyID, value string, confidence int, now time.Time) (*Vote, error) {
	if strings.TrimSpace(value) == "" || confidence < ConfidenceMin || confidence > ConfidenceMax {
		return nil, ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseVoting {
		return nil, ErrInvalidTransition
	}
	if storyID != "" && storyID != s.currentStoryID {
		return nil, ErrInvalidTransition
	}
	if _, ok := s.participants[identity]; !ok {
		return nil, ErrParticipantNotFound
	}

	ballot := s.votes[s.currentStoryID]
	if ballot == nil {
		ballot = make(map[string]*Vote)
		s.votes[s.currentStoryID] = ballot
	}
	if _, voted := ballot[identity]; voted && !s.Settings.AllowRevoting {
		return nil, ErrDuplicateVote
	}

	v := &Vote{
		ParticipantID: identity,
		StoryID:       s.currentStoryID,
		Value:         strings.TrimSpace(value),
		Confidence:    confidence,
		SubmittedAt:   now,
	}
	ballot[identity] = v
	s.UpdatedAt = now

	cp := *v
	return &cp, nil
}

// AllOnlineVoted reports whether every online participant has a recorded vote
// for the current story. False when nobody is online.
func (s *Session) AllOnlineVoted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ballot := s.votes[s.currentStoryID]
	online := 0
	for id, p := range s.participants {
		if !p.IsOnline {
			continue
		}
		online++
		if _, ok := ballot[id]; !ok {
			return false
		}
	}
	return online > 0
}

// Reveal transitions voting to revealing and discloses the ballot. The stats
// computation runs under the session lock so the broadcast that follows never
// reflects a torn write.
func (s *Session) Reveal(compute func(votes []*Vote, participantCount int) *RevealStats, now time.Time) ([]RevealedVote, *RevealStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseVoting || s.currentStoryID == "" {
		return nil, nil, ErrInvalidTransition
	}

	votes := s.ballotVotes(s.currentStoryID)
	s.stats = compute(votes, len(s.participants))
	s.phase = PhaseRevealing
	s.UpdatedAt = now

	revealed := make([]RevealedVote, 0, len(votes))
	for _, v := range votes {
		name := ""
		if p, ok := s.participants[v.ParticipantID]; ok {
			name = p.Name
		}
		revealed = append(revealed, RevealedVote{
			ParticipantID:   v.ParticipantID,
			ParticipantName: name,
			Value:           v.Value,
			Confidence:      v.Confidence,
		})
	}
	return revealed, s.stats, nil
}

// StopVoting halts voting for discussion without revealing. Votes remain
// hidden and retained.
func (s *Session) StopVoting(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseVoting {
		return ErrInvalidTransition
	}
	s.phase = PhaseDiscussing
	s.UpdatedAt = now
	return nil
}

// ResetVoting clears the ballot and resumes voting, optionally on a newly
// selected story. Allowed from revealing and from discussing.
func (s *Session) ResetVoting(storyID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRevealing && s.phase != PhaseDiscussing {
		return ErrInvalidTransition
	}
	if storyID != "" {
		if s.findStory(storyID) == nil {
			return ErrStoryNotFound
		}
		s.currentStoryID = storyID
	}
	if s.currentStoryID == "" {
		return ErrInvalidTransition
	}
	delete(s.votes, s.currentStoryID)
	s.phase = PhaseVoting
	s.stats = nil
	s.UpdatedAt = now
	return nil
}

// Phase returns the current voting-round phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// CurrentStoryID returns the id of the selected story, or empty.
func (s *Session) CurrentStoryID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentStoryID
}

// VoteCount returns the number of recorded votes for a story.
func (s *Session) VoteCount(storyID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.votes[storyID])
}

// Participant returns a copy of the participant with the given identity.
func (s *Session) Participant(identity string) (*Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[identity]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	return p.clone(), nil
}

func (s *Session) findStory(id string) *Story {
	for _, st := range s.stories {
		if st.ID == id {
			return st
		}
	}
	return nil
}

// ballotVotes returns the current ballot ordered by submission time, then
// participant id for a stable tiebreak. Caller must hold the lock.
func (s *Session) ballotVotes(storyID string) []*Vote {
	ballot := s.votes[storyID]
	votes := make([]*Vote, 0, len(ballot))
	for _, v := range ballot {
		votes = append(votes, v)
	}
	sort.Slice(votes, func(i, j int) bool {
		if votes[i].SubmittedAt.Equal(votes[j].SubmittedAt) {
			return votes[i].ParticipantID < votes[j].ParticipantID
		}
		return votes[i].SubmittedAt.Before(votes[j].SubmittedAt)
	})
	return votes
}

func (p *Participant) clone() *Participant {
	cp := *p
	return &cp
}
