package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/specforge-backend/internal/platform/apierr"
	"github.com/yungbote/specforge-backend/internal/platform/ctxutil"
)

// APIError is the body of every non-streaming failure. RequestID matches the
// X-Request-Id response header so callers can quote it.
type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func envelope(c *gin.Context, code, message string) ErrorEnvelope {
	e := APIError{Message: message, Code: code}
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		e.RequestID = td.RequestID
	}
	return ErrorEnvelope{Error: e}
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, envelope(c, code, msg))
}

// AbortError writes the envelope and stops the handler chain.
func AbortError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, envelope(c, code, message))
}

func RespondAPIError(c *gin.Context, err *apierr.Error) {
	if err == nil {
		err = apierr.From(errors.New("unknown error"))
	}
	RespondError(c, err.Status, err.Code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
