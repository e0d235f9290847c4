package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/tuition/backend/internal/domain/identity"
)

// SessionCloser ends a session
type SessionCloser interface {
	Close(ctx context.Context, sess *identity.Session) error
}

// SessionHandler handles the caller's own session
type SessionHandler struct {
	BaseHandler
	sessions SessionCloser
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions SessionCloser) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Logout handles DELETE /session. The token stops resolving immediately.
func (h *SessionHandler) Logout(c *gin.Context) {
	sess := session(c)
	if err := h.sessions.Close(c.Request.Context(), sess); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"session_id": sess.ID})
}
