package framework

import (
	"fmt"
	"net/http"
)

// HTTPException is an error carrying the status it should be reported with.
type HTTPException struct {
	Status  int
	Message string
}

func NewHTTPException(status int, message string) *HTTPException {
	if message == "" {
		message = http.StatusText(status)
	}
	return &HTTPException{Status: status, Message: message}
}

func BadRequest(message string) *HTTPException { return NewHTTPException(http.StatusBadRequest, message) }
func Unauthorized() *HTTPException             { return NewHTTPException(http.StatusUnauthorized, "") }
func Forbidden() *HTTPException                { return NewHTTPException(http.StatusForbidden, "") }

func (e *HTTPException) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// ErrorBody is the JSON shape of an exception response.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
}

// Body returns the response body reported for e.
func (e *HTTPException) Body() ErrorBody {
	return ErrorBody{
		StatusCode: e.Status,
		Message:    e.Message,
		Error:      http.StatusText(e.Status),
	}
}
