package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/logger"
	"github.com/tuition/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Session context keys
const (
	SessionKey    = "session"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// SessionResolver maps a bearer token to a live session
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*identity.Session, error)
}

// AuthConfig holds configuration for the session middleware
type AuthConfig struct {
	Resolver SessionResolver
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// Authenticate resolves the bearer token into an identity.Session and stores
// it on the gin context. Requests without a live session get 401.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, log, dto.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortUnauthorized(c, log, dto.ErrCodeTokenInvalid, "Invalid authorization header format", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortUnauthorized(c, log, dto.ErrCodeTokenInvalid, "Missing token", nil)
			return
		}

		sess, err := cfg.Resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, shared.ErrUnauthorized) {
				// The session store is down; this is not the caller's fault.
				logger.Enrich(c.Request.Context(), log).Error("session lookup failed", zap.Error(err))
				abortWith(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Session store unavailable")
				return
			}
			abortUnauthorized(c, log, dto.ErrCodeTokenInvalid, "Invalid or expired session", err)
			return
		}

		c.Set(SessionKey, sess)
		ctx := logger.WithSession(c.Request.Context(), sess.ID.String(), string(sess.Role.Kind()))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, code, message string, err error) {
	logger.Enrich(c.Request.Context(), log).Debug("authentication failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("reason", message),
		zap.Error(err),
	)
	abortWith(c, http.StatusUnauthorized, code, message)
}

// GetSession returns the session set by Authenticate, or nil
func GetSession(c *gin.Context) *identity.Session {
	if v, ok := c.Get(SessionKey); ok {
		if sess, ok := v.(*identity.Session); ok {
			return sess
		}
	}
	return nil
}

// RequireCapability rejects callers whose role lacks a portfolio-wide capability
func RequireCapability(capability identity.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		checkCapability(c, capability, uuid.Nil)
	}
}

// RequireStudentCapability checks capability against the student named by the
// :param path segment, so a student role only reaches its own records.
// A malformed ID is left for the handler to reject.
func RequireStudentCapability(capability identity.Capability, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := uuid.Parse(c.Param(param))
		if err != nil {
			c.Next()
			return
		}
		checkCapability(c, capability, target)
	}
}

func checkCapability(c *gin.Context, capability identity.Capability, target uuid.UUID) {
	err := GetSession(c).Require(capability, target)
	switch {
	case err == nil:
		c.Next()
	case errors.Is(err, shared.ErrUnauthorized):
		abortWith(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
	default:
		abortWith(c, http.StatusForbidden, dto.ErrCodeForbidden, "Your role does not allow this action")
	}
}
