package dto

import (
	"github.com/tuition/backend/internal/infrastructure/notification"
)

// Response is the envelope of every API answer. Notifications raised while
// the request ran ride along on success and failure alike.
type Response struct {
	Success       bool                   `json:"success"`
	Data          any                    `json:"data,omitempty"`
	Error         *ErrorInfo             `json:"error,omitempty"`
	Notifications []notification.Message `json:"notifications,omitempty"`
}

type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewErrorResponseWithRequestID builds a failure envelope; requestID may be empty
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{Error: &ErrorInfo{Code: code, Message: message, RequestID: requestID}}
}

// NewValidationErrorResponse is the 400 body listing each bad field
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}

// StudentIDRequest binds the :id path parameter
type StudentIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// CycleRequest binds the :id and :cycle path parameters
type CycleRequest struct {
	ID    string `uri:"id" binding:"required,uuid"`
	Cycle int    `uri:"cycle" binding:"required,min=1"`
}
