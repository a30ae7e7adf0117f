package store

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/models"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/roomcode"
)

func TestCreateAssignsUniqueCodes(t *testing.T) {
	s := New(4 * time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := s.Create("owner-1", models.CreateSessionInput{Name: "Sprint"}, models.Settings{})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if !roomcode.Valid(session.RoomCode) {
			t.Fatalf("room code %q fails validation", session.RoomCode)
		}
		if seen[session.RoomCode] {
			t.Fatalf("room code %q issued twice", session.RoomCode)
		}
		seen[session.RoomCode] = true
	}
	if s.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", s.Len())
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	s := New(4 * time.Hour)
	session, err := s.Create("owner-1", models.CreateSessionInput{Name: "Sprint"}, models.Settings{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, code := range []string{
		session.RoomCode,
		strings.ToLower(session.RoomCode),
		"  " + session.RoomCode + "  ",
	} {
		got, err := s.Lookup(code)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", code, err)
		}
		if got.ID != session.ID {
			t.Fatalf("Lookup(%q) resolved session %q, want %q", code, got.ID, session.ID)
		}
	}
}

func TestLookupUnknownCode(t *testing.T) {
	s := New(4 * time.Hour)
	if _, err := s.Lookup("ZZZZZZ"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestLookupDropsExpired(t *testing.T) {
	current := time.Now()
	s := New(4 * time.Hour)
	s.now = func() time.Time { return current }

	session, err := s.Create("owner-1", models.CreateSessionInput{Name: "Sprint"}, models.Settings{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	current = current.Add(4*time.Hour + time.Second)

	if _, err := s.Lookup(session.RoomCode); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("expired lookup: err = %v, want ErrSessionNotFound", err)
	}
	// The expired entry is dropped lazily, freeing the code.
	if s.Len() != 0 {
		t.Fatalf("Len() after expired lookup = %d, want 0", s.Len())
	}
}

func TestEvictExpired(t *testing.T) {
	current := time.Now()
	s := New(4 * time.Hour)
	s.now = func() time.Time { return current }

	old, err := s.Create("owner-1", models.CreateSessionInput{Name: "Old"}, models.Settings{})
	if err != nil {
		t.Fatalf("Create old: %v", err)
	}

	current = current.Add(3 * time.Hour)
	fresh, err := s.Create("owner-1", models.CreateSessionInput{Name: "Fresh"}, models.Settings{})
	if err != nil {
		t.Fatalf("Create fresh: %v", err)
	}

	current = current.Add(2 * time.Hour) // old is 5h past creation, fresh 2h

	evicted := s.EvictExpired()
	if len(evicted) != 1 || evicted[0].ID != old.ID {
		t.Fatalf("evicted = %v, want exactly the old session", evicted)
	}
	if _, err := s.Lookup(fresh.RoomCode); err != nil {
		t.Fatalf("fresh session gone after sweep: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestConcurrentCreateAndLookup(t *testing.T) {
	s := New(4 * time.Hour)

	var wg sync.WaitGroup
	codes := make([]string, 16)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, err := s.Create("owner-1", models.CreateSessionInput{Name: "Sprint"}, models.Settings{})
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			codes[i] = session.RoomCode
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		if code == "" {
			continue
		}
		if _, err := s.Lookup(code); err != nil {
			t.Errorf("Lookup(%q): %v", code, err)
		}
	}
	if s.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", s.Len())
	}
}
