package handlers

import (
	"errors"
	"net/http"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/models"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrStoryNotFound),
		errors.Is(err, models.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotFacilitator):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrDuplicateVote):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
