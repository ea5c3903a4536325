package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/chessrooms/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserExists         = "USER_EXISTS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeKeyWrap            = "KEY_WRAP_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError. Messages stay generic so a
// caller cannot tell which credential check failed.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusForbidden, APIError{CodeSessionNotFound, "Session Not Found"}}
	case errors.Is(err, model.ErrBadRequest), errors.Is(err, model.ErrMissingField):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Bad Request"}}
	case errors.Is(err, model.ErrCredentialMismatch), errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCredentials, "Incorrect Credentials"}}
	case errors.Is(err, model.ErrUserExists):
		return &httpError{http.StatusConflict, APIError{CodeUserExists, "Username or email already registered"}}
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrKeyWrap):
		return &httpError{http.StatusInternalServerError, APIError{CodeKeyWrap, "Internal Server Error or Incorrect Public Key"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal Server Error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewNotFoundError creates a not found error
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not Found"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal Server Error"}}
}
