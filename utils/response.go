package utils

import (
	"encoding/json"
	"net/http"

	"loopr_server/apperrors"
	"loopr_server/logger"
	"loopr_server/models"

	"go.uber.org/zap"
)

// WriteJSONResponse writes payload as JSON with the given status code
func WriteJSONResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.Error("Failed to encode response", zap.Error(err))
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    apperrors.Kind  `json:"code"`
	Message string          `json:"message"`
	Field   string          `json:"field,omitempty"`
	Session *models.Session `json:"session,omitempty"`
}

// exposeMessage lists kinds whose own message is written for the user to read
var exposeMessage = map[apperrors.Kind]bool{
	apperrors.KindInvalidInput: true,
	apperrors.KindConflict:     true,
}

// WriteError maps err to its status code and a message safe to show users.
// Internal details stay in the log.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	WriteErrorWithSession(w, r, err, nil)
}

// WriteErrorWithSession is WriteError for failures that happened after the
// caller's tokens were rotated. The new session goes out with the error.
func WriteErrorWithSession(w http.ResponseWriter, r *http.Request, err error, session *models.Session) {
	kind := apperrors.KindOf(err)
	resp := ErrorResponse{Code: kind, Message: kind.UserMessage(), Session: session}
	if appErr, ok := apperrors.As(err); ok {
		resp.Field = appErr.Field
		if exposeMessage[kind] && appErr.Message != "" {
			resp.Message = appErr.Message
		}
	}

	status := kind.StatusCode()
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		logger.WithStatus(status),
		zap.Error(err),
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		fields = append(fields, logger.WithRequestID(id))
	}
	if status >= http.StatusInternalServerError {
		logger.Log.Error("Request failed", fields...)
	} else {
		logger.Log.Info("Request rejected", fields...)
	}

	WriteJSONResponse(w, status, resp)
}
