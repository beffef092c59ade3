package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform response body: every endpoint, success or
// failure, returns this shape
type Envelope struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError points a validation message at one request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success writes a success envelope with the given payload
func Success(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, Envelope{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// NewValidationError writes a 400 envelope with per-field errors
func NewValidationError(c echo.Context, message string, errors []FieldError) error {
	return c.JSON(http.StatusBadRequest, Envelope{
		Status:  StatusError,
		Message: message,
		Errors:  errors,
	})
}

// NewNotFoundError writes a 404 envelope. Resources owned by another user
// are reported exactly like missing ones.
func NewNotFoundError(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, Envelope{
		Status:  StatusError,
		Message: message,
	})
}

// NewUnauthorizedError writes a 401 envelope
func NewUnauthorizedError(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, Envelope{
		Status:  StatusError,
		Message: message,
	})
}

// NewInternalError writes a 500 envelope. The message never carries
// internal details; those go to the log.
func NewInternalError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, Envelope{
		Status:  StatusError,
		Message: message,
	})
}
