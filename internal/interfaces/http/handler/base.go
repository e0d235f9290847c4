// Package handler holds the gin handlers of the fee ledger API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/logger"
	"github.com/tuition/backend/internal/infrastructure/notification"
	"github.com/tuition/backend/internal/interfaces/http/dto"
	"github.com/tuition/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// session returns the caller's session; nil lets the service answer 401
func session(c *gin.Context) *identity.Session {
	return middleware.GetSession(c)
}

// withInbox starts collecting notifications for this request. The responders
// below copy whatever was collected into the envelope.
func withInbox(c *gin.Context) {
	ctx, _ := notification.WithInbox(c.Request.Context())
	c.Request = c.Request.WithContext(ctx)
}

func notifications(c *gin.Context) []notification.Message {
	if inbox := notification.InboxFrom(c.Request.Context()); inbox != nil {
		if msgs := inbox.Messages(); len(msgs) > 0 {
			return msgs
		}
	}
	return nil
}

func (h *BaseHandler) respond(c *gin.Context, status int, resp dto.Response) {
	resp.Notifications = notifications(c)
	c.JSON(status, resp)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.respond(c, http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	h.respond(c, statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// BindError answers a failed ShouldBind call. Validator failures list the
// offending fields; anything else is malformed input.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); len(details) > 0 {
		h.respond(c, http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed",
			middleware.GetRequestID(c),
			details,
		))
		return
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed request body")
}

// CommandError answers a request body that bound but could not be converted.
// Domain errors keep their code, anything else is a plain bad request.
func (h *BaseHandler) CommandError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.HandleError(c, err)
		return
	}
	h.BadRequest(c, err.Error())
}

// HandleError converts an error to an HTTP response. Domain errors keep
// their message; anything else is logged and reported as internal.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.L(c.Request.Context()).Error("request failed", zap.Error(err))
		}
		h.Error(c, status, code, domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("unexpected error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// studentID binds the :id path parameter
func (h *BaseHandler) studentID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.StudentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}
