package apperrors

import (
	"errors"
	"fmt"
)

// Error is the typed failure returned by services
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field: %s)", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperrors.ErrNotAuthenticated) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Field == ""
}

// Status returns the HTTP status code for the error
func (e *Error) Status() int {
	return e.Kind.StatusCode()
}

// Sentinels for errors.Is comparisons
var (
	ErrNotAuthenticated = &Error{Kind: KindNotAuthenticated}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrUploadFailed     = &Error{Kind: KindUploadFailed}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
	ErrSaveInProgress   = &Error{Kind: KindSaveInProgress}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrUpstreamFailed   = &Error{Kind: KindUpstreamFailed}
)

func NotAuthenticated(message string, err error) *Error {
	return &Error{Kind: KindNotAuthenticated, Message: message, Err: err}
}

// InvalidInput creates an INVALID_INPUT error for a single field
func InvalidInput(field, message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message, Field: field}
}

func UploadFailed(message string, err error) *Error {
	return &Error{Kind: KindUploadFailed, Message: message, Err: err}
}

func PermissionDenied(message string, err error) *Error {
	return &Error{Kind: KindPermissionDenied, Message: message, Err: err}
}

func StoreUnavailable(message string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: message, Err: err}
}

func SaveInProgress(userID string) *Error {
	return &Error{Kind: KindSaveInProgress, Message: fmt.Sprintf("profile save already running for %s", userID)}
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func UpstreamFailed(message string, err error) *Error {
	return &Error{Kind: KindUpstreamFailed, Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// WithField attaches the offending field
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// As extracts an *Error from the chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for untyped errors and "" for nil
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
