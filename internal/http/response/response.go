package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/hermes-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondErr maps err to its status and stable code. Errors that carry
// neither become a 500 with fallbackCode and a generic message.
func RespondErr(c *gin.Context, err error, fallbackCode string) {
	status, code := apierr.StatusOf(err, http.StatusInternalServerError)
	if code == "" {
		code = fallbackCode
	}
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		_ = c.Error(err)
		RespondError(c, status, code, errInternal)
		return
	}
	RespondError(c, status, code, err)
}

var errInternal = errors.New("internal server error")

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
