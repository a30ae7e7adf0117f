package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/middleware"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/models"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/services"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/store"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/ws"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	sessionService := services.NewSessionService(store.New(4*time.Hour), services.NewStatsService(), hub)
	authService := services.NewAuthService(testSecret)
	handler := NewSessionHandler(sessionService)

	r := gin.New()
	sessions := r.Group("/api/v1/sessions")
	{
		sessions.POST("", middleware.JWTAuth(authService), handler.CreateSession)
		sessions.GET("/:code", handler.GetSession)
		sessions.POST("/:code/join", handler.JoinSession)
	}
	return r
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func doJSON(t *testing.T, r *gin.Engine, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createTestSession(t *testing.T, r *gin.Engine) models.Snapshot {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions", bearerToken(t, "owner-1"), CreateSessionRequest{
		Name:        "Sprint 12",
		VotingScale: models.ScaleFibonacci,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var snap models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func TestCreateSessionRequiresAuth(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions", "", CreateSessionRequest{Name: "Sprint"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions", "Bearer bogus", CreateSessionRequest{Name: "Sprint"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bogus token status = %d, want 401", w.Code)
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	r := newTestRouter(t)
	snap := createTestSession(t, r)

	if snap.RoomCode == "" || len(snap.RoomCode) != 6 {
		t.Fatalf("room code = %q, want 6 characters", snap.RoomCode)
	}
	if snap.OwnerID != "owner-1" {
		t.Fatalf("owner = %q, want owner-1", snap.OwnerID)
	}
	if snap.Phase != models.PhaseWaiting {
		t.Fatalf("phase = %q, want %q", snap.Phase, models.PhaseWaiting)
	}
	if !snap.Settings.AllowRevoting {
		t.Fatal("revoting must default to allowed")
	}
	if snap.Settings.AutoReveal {
		t.Fatal("auto-reveal must default to off")
	}
}

func TestCreateSessionValidation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions", bearerToken(t, "owner-1"), map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing name status = %d, want 400", w.Code)
	}
}

func TestGetSession(t *testing.T) {
	r := newTestRouter(t)
	snap := createTestSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/v1/sessions/"+snap.RoomCode, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != snap.ID {
		t.Fatalf("session id = %q, want %q", got.ID, snap.ID)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/sessions/ZZZZZZ", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown code status = %d, want 404", w.Code)
	}
}

func TestJoinSession(t *testing.T) {
	r := newTestRouter(t)
	snap := createTestSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+snap.RoomCode+"/join", "", JoinSessionRequest{Name: "Ana"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp JoinSessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Participant == nil || resp.Participant.ID == "" {
		t.Fatal("join must mint a participant id")
	}
	if !resp.Participant.IsGuest {
		t.Fatal("name-only join must produce a guest")
	}
	if resp.Participant.IsOnline {
		t.Fatal("one-shot join leaves the participant offline until a stream binds it")
	}
	if resp.Session.ParticipantCount != 1 {
		t.Fatalf("participant count = %d, want 1", resp.Session.ParticipantCount)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+snap.RoomCode+"/join", "", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing name status = %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions/ZZZZZZ/join", "", JoinSessionRequest{Name: "Ana"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown code status = %d, want 404", w.Code)
	}
}
