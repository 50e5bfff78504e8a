package apperrors

import "net/http"

// Kind classifies a failure so callers never have to match on message text
type Kind string

const (
	KindNotAuthenticated Kind = "NOT_AUTHENTICATED"
	KindInvalidInput     Kind = "INVALID_INPUT"
	KindUploadFailed     Kind = "UPLOAD_FAILED"
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"
	KindSaveInProgress   Kind = "SAVE_IN_PROGRESS"
	KindNotFound         Kind = "NOT_FOUND"
	KindConflict         Kind = "CONFLICT"
	KindUpstreamFailed   Kind = "UPSTREAM_FAILED"
	KindInternal         Kind = "INTERNAL_ERROR"
)

// StatusCodeMap maps Kind to HTTP status code
var StatusCodeMap = map[Kind]int{
	KindNotAuthenticated: http.StatusUnauthorized,
	KindInvalidInput:     http.StatusUnprocessableEntity,
	KindUploadFailed:     http.StatusBadGateway,
	KindPermissionDenied: http.StatusForbidden,
	KindStoreUnavailable: http.StatusServiceUnavailable,
	KindSaveInProgress:   http.StatusConflict,
	KindNotFound:         http.StatusNotFound,
	KindConflict:         http.StatusConflict,
	KindUpstreamFailed:   http.StatusBadGateway,
	KindInternal:         http.StatusInternalServerError,
}

// StatusCode returns the HTTP status code for this kind
func (k Kind) StatusCode() int {
	if code, ok := StatusCodeMap[k]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// userMessages are shown to the end user; the detailed message stays in logs
var userMessages = map[Kind]string{
	KindNotAuthenticated: "Your session has expired. Please log in again.",
	KindInvalidInput:     "Some of the values you entered are not valid.",
	KindUploadFailed:     "We couldn't upload your photo. Please try again.",
	KindPermissionDenied: "You don't have permission to change this profile.",
	KindStoreUnavailable: "We couldn't save right now. Please try again later.",
	KindSaveInProgress:   "A save is already in progress.",
	KindNotFound:         "Not found.",
	KindConflict:         "That already exists.",
	KindUpstreamFailed:   "There was a problem fetching course data. Please try again later.",
	KindInternal:         "Something went wrong.",
}

// UserMessage returns the human readable message for a kind
func (k Kind) UserMessage() string {
	if msg, ok := userMessages[k]; ok {
		return msg
	}
	return userMessages[KindInternal]
}
