package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/matchlobby/internal/model"
	"github.com/mcoot/matchlobby/internal/protocol"
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

// Common error codes. Domain codes match the websocket ErrorResponse codes.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodePairingNotFound  = "PAIRING_NOT_FOUND"
	CodeNoSuchMatch      = protocol.CodeNoSuchMatch
	CodeNoSuchUser       = protocol.CodeNoSuchUser
	CodeMatchFull        = protocol.CodeMatchFull
	CodeOwnMatch         = protocol.CodeOwnMatch
	CodeUnavailable      = protocol.CodeUnavailable
	CodeInternalError    = protocol.CodeInternalError
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeNotFound         = "NOT_FOUND"
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

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrPairingNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePairingNotFound, "Pairing not found"}}
	case errors.Is(err, model.ErrNoSuchMatch), errors.Is(err, model.ErrNoSuchUser):
		code, message := protocol.ErrorCode(err)
		return &httpError{http.StatusNotFound, APIError{code, message}}
	case errors.Is(err, model.ErrMatchFull), errors.Is(err, model.ErrOwnMatch):
		code, message := protocol.ErrorCode(err)
		return &httpError{http.StatusConflict, APIError{code, message}}
	case errors.Is(err, model.ErrUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeUnavailable, "Service unavailable"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewNotFoundError creates a route not found error
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}
}

// NewMethodNotAllowedError creates a method not allowed error
func NewMethodNotAllowedError() error {
	return &httpError{http.StatusMethodNotAllowed, APIError{CodeMethodNotAllowed, "Method not allowed"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
