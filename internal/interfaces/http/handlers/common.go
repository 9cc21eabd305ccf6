// Package handlers implements the HTTP endpoints of the prediction API.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/logkpredict/internal/interfaces/http/middleware"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// writeAppError maps err to its HTTP status.  Internal failures are masked.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	msg := err.Error()
	if code.Kind() == errors.KindInternal && errors.HTTPStatus(code) == http.StatusInternalServerError {
		msg = errors.DefaultMessage(errors.CodeInternal)
	}
	_ = c.Error(err)
	c.JSON(errors.HTTPStatus(code), ErrorResponse{
		Code:      code.String(),
		Message:   msg,
		RequestID: middleware.GetRequestID(c),
	})
}

// bindJSON decodes the body into v, reporting malformed bodies as invalid
// input.
func bindJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "malformed request body")
	}
	return nil
}

// parseLimit reads the limit query parameter, clamped to [1, max].
func parseLimit(c *gin.Context, def, max int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
