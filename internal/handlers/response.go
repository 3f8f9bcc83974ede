package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daleelapp/daleel-backend/internal/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps a service error onto an HTTP response, honoring the
// status and code carried by apierr.Error and falling back to 500.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := apierr.CodeInternal
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		status = apiErr.Status
		code = apiErr.Code
		if apiErr.Err != nil {
			msg = apiErr.Err.Error()
		}
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
