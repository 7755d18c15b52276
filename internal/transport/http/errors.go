package http

import (
	"errors"
	"net/http"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthorized, domain.KindNotTeamMember:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInsufficientQuestions:
		return http.StatusUnprocessableEntity
	case domain.KindCapacityExceeded, domain.KindDuplicateName, domain.KindDuplicateAnswer,
		domain.KindPlayerAlreadyAssigned, domain.KindInvalidTransition, domain.KindRoundsNotFinished,
		domain.KindNotDeletable, domain.KindNotEditable, domain.KindTeamsNotReady:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with its typed details. Storage failures are logged
// and reported without their cause.
func (h *Handler) writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	payload := errorPayload{Kind: string(kind), Message: err.Error()}
	if kind == "" || kind == domain.KindStorage {
		h.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		if kind == "" {
			payload.Kind = string(domain.KindStorage)
		}
		payload.Message = "internal error"
	} else {
		var detailed interface{ Kind() domain.Kind }
		if errors.As(err, &detailed) {
			payload.Details = detailed
		}
	}
	c.AbortWithStatusJSON(status, errorBody{Error: payload})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: errorPayload{
		Kind:    string(domain.KindValidation),
		Message: "malformed request body: " + err.Error(),
	}})
}
