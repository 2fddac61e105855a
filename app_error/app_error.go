package app_error

import (
	"errors"

	"github.com/gin-gonic/gin"
)

type statusError struct {
	error
	status int
}

func (e statusError) Unwrap() error {
	return e.error
}

func (e statusError) HTTPStatus() int {
	return e.status
}

func New(status int, message string) error {
	return statusError{error: errors.New(message), status: status}
}

func Wrap(status int, err error) error {
	return statusError{error: err, status: status}
}

// Status returns the HTTP status carried by err or any error it wraps,
// defaulting to 500.
func Status(err error) int {
	var se statusError
	if errors.As(err, &se) {
		return se.status
	}
	return 500
}

func WithHTTPStatus(c *gin.Context, err error, status int) {
	c.JSON(status, gin.H{"error": err.Error()})
}
