package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/models"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/services"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

type CreateSessionRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=200"`
	Description   string `json:"description"`
	TeamRef       string `json:"team_ref"`
	SprintRef     string `json:"sprint_ref"`
	VotingScale   string `json:"voting_scale" example:"fibonacci"`
	TimerSeconds  int    `json:"timer_seconds"`
	AutoReveal    *bool  `json:"auto_reveal"`
	AllowRevoting *bool  `json:"allow_revoting"`
}

type JoinSessionRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

type JoinSessionResponse struct {
	Session     *models.Snapshot    `json:"session"`
	Participant *models.Participant `json:"participant"`
}

// CreateSession godoc
// @Summary      Create an estimation session
// @Description  Creates a room owned by the authenticated caller and returns its snapshot including the generated room code
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request body CreateSessionRequest true "Session settings"
// @Success      201 {object} models.Snapshot
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /api/v1/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	ownerID := c.GetString("user_id")

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	settings := models.Settings{
		VotingScale:   req.VotingScale,
		TimerSeconds:  req.TimerSeconds,
		AllowRevoting: true,
	}
	if req.AutoReveal != nil {
		settings.AutoReveal = *req.AutoReveal
	}
	if req.AllowRevoting != nil {
		settings.AllowRevoting = *req.AllowRevoting
	}

	snapshot, err := h.sessionService.CreateSession(ownerID, models.CreateSessionInput{
		Name:        req.Name,
		Description: req.Description,
		TeamRef:     req.TeamRef,
		SprintRef:   req.SprintRef,
	}, settings)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// GetSession godoc
// @Summary      Fetch a session snapshot
// @Description  Resolves a room code case-insensitively; no authentication required
// @Tags         sessions
// @Produce      json
// @Param        code path string true "Room code"
// @Success      200 {object} models.Snapshot
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{code} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	snapshot, err := h.sessionService.GetSnapshot(c.Param("code"))
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// JoinSession godoc
// @Summary      One-shot join for unauthenticated callers
// @Description  Mints a guest identity for the given display name; echo the returned participant id back on the streaming join
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        code path string true "Room code"
// @Param        request body JoinSessionRequest true "Display name"
// @Success      200 {object} JoinSessionResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/join [post]
func (h *SessionHandler) JoinSession(c *gin.Context) {
	var req JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	snapshot, participant, err := h.sessionService.JoinByName(c.Param("code"), req.Name)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, JoinSessionResponse{Session: snapshot, Participant: participant})
}
