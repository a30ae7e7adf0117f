package models

import (
	"sort"
	"time"
)

// Snapshot is the read model broadcast to the room and returned over HTTP.
// While the phase is anything but revealing it carries only the fact that a
// participant has voted, never the value.
type Snapshot struct {
	ID               string          `json:"id"`
	RoomCode         string          `json:"room_code"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	OwnerID          string          `json:"owner_id"`
	TeamRef          string          `json:"team_ref,omitempty"`
	SprintRef        string          `json:"sprint_ref,omitempty"`
	Settings         Settings        `json:"settings"`
	Phase            Phase           `json:"phase"`
	Participants     []*Participant  `json:"participants"`
	ParticipantCount int             `json:"participant_count"`
	OnlineCount      int             `json:"online_count"`
	Stories          []*Story        `json:"stories"`
	CurrentStoryID   string          `json:"current_story_id,omitempty"`
	VoteStatus       map[string]bool `json:"vote_status"`
	Votes            []RevealedVote  `json:"votes,omitempty"`
	Stats            *RevealStats    `json:"stats,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	ExpiresAt        time.Time       `json:"expires_at"`
}

// Snapshot builds a consistent read of the session under the read lock.
func (s *Session) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	participants := make([]*Participant, 0, len(s.participants))
	online := 0
	for _, p := range s.participants {
		if p.IsOnline {
			online++
		}
		participants = append(participants, p.clone())
	}
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].ID < participants[j].ID
		}
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})

	stories := make([]*Story, 0, len(s.stories))
	for _, st := range s.stories {
		cp := *st
		stories = append(stories, &cp)
	}

	status := make(map[string]bool, len(s.votes[s.currentStoryID]))
	for id := range s.votes[s.currentStoryID] {
		status[id] = true
	}

	snap := &Snapshot{
		ID:               s.ID,
		RoomCode:         s.RoomCode,
		Name:             s.Name,
		Description:      s.Description,
		OwnerID:          s.OwnerID,
		TeamRef:          s.TeamRef,
		SprintRef:        s.SprintRef,
		Settings:         s.Settings,
		Phase:            s.phase,
		Participants:     participants,
		ParticipantCount: len(participants),
		OnlineCount:      online,
		Stories:          stories,
		CurrentStoryID:   s.currentStoryID,
		VoteStatus:       status,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		ExpiresAt:        s.ExpiresAt,
	}

	if s.phase == PhaseRevealing {
		for _, v := range s.ballotVotes(s.currentStoryID) {
			name := ""
			if p, ok := s.participants[v.ParticipantID]; ok {
				name = p.Name
			}
			snap.Votes = append(snap.Votes, RevealedVote{
				ParticipantID:   v.ParticipantID,
				ParticipantName: name,
				Value:           v.Value,
				Confidence:      v.Confidence,
			})
		}
		snap.Stats = s.stats
	}

	return snap
}
