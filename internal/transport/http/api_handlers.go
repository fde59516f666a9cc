package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lobbychat/internal/proto"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	identity IdentityChecker
	log      *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(ident IdentityChecker, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		identity: ident,
		log:      logger,
	}
}

// CheckUserRequest represents the identity check request body.
type CheckUserRequest struct {
	Username  string `json:"username"`
	SessionID string `json:"sessionId"`
}

// CheckUserResponse carries the check status and, for a resumable session, the user.
type CheckUserResponse struct {
	Status string      `json:"status"`
	User   *proto.User `json:"user,omitempty"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CheckUser reports whether a session can be resumed or a username claimed.
// POST /api/check-user
func (h *APIHandlers) CheckUser(c *gin.Context) {
	var req CheckUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid check-user request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	res, err := h.identity.Check(c.Request.Context(), req.Username, req.SessionID)
	if err != nil {
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to check user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := CheckUserResponse{Status: string(res.Status)}
	if res.User != nil {
		u := ownUser(res.User)
		resp.User = &u
	}
	c.JSON(http.StatusOK, resp)
}
