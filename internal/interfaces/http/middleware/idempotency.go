package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/logger"
	"github.com/tuition/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader carries a client-chosen key for a mutating request
	IdempotencyKeyHeader = "Idempotency-Key"
	// MaxIdempotencyKeyLength bounds the header value
	MaxIdempotencyKeyLength = 128
)

// IdempotencyConfig configures the replay guard
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency rejects a request whose Idempotency-Key was already used on the
// same route by the same session within TTL. Requests without the header pass through. A claim is
// released when the request fails, so the client can retry after fixing it.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			abortWith(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		scoped := idempotencyScope(c, key)
		ctx := c.Request.Context()

		claimed, err := cfg.Store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			logger.Enrich(ctx, log).Error("idempotency store unavailable", zap.Error(err))
			abortWith(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Idempotency store unavailable")
			return
		}
		if !claimed {
			abortWith(c, http.StatusConflict, dto.ErrCodeDuplicateRequest, "A request with this Idempotency-Key was already processed")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := cfg.Store.Forget(ctx, scoped); err != nil {
				logger.Enrich(ctx, log).Warn("failed to release idempotency key", zap.Error(err))
			}
		}
	}
}

// idempotencyScope binds key to the caller's session and the concrete path,
// so two clients picking the same key never collide.
func idempotencyScope(c *gin.Context, key string) string {
	owner := "anonymous"
	if sess := GetSession(c); sess != nil {
		owner = sess.ID.String()
	}
	return owner + " " + c.Request.Method + " " + c.Request.URL.Path + " " + key
}
