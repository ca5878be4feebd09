package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/specforge-backend/internal/http/response"
	"github.com/yungbote/specforge-backend/internal/platform/apierr"
	"github.com/yungbote/specforge-backend/internal/prompt"
	"github.com/yungbote/specforge-backend/internal/specgen"
)

// toAPIError maps failures that happen before any streaming starts.
func toAPIError(err error) *apierr.Error {
	switch {
	case errors.Is(err, specgen.ErrInvalidRequest), errors.Is(err, specgen.ErrNothingToRepair):
		return apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err)
	case errors.Is(err, prompt.ErrMissingBasePrompt), errors.Is(err, prompt.ErrMissingSpecMode):
		return apierr.New(http.StatusUnprocessableEntity, apierr.CodeMissingFragment, err)
	case errors.Is(err, prompt.ErrStoreUnavailable):
		return apierr.New(http.StatusServiceUnavailable, apierr.CodeStoreUnavailable, errors.New("prompt store unavailable"))
	default:
		return apierr.From(err)
	}
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		c.Abort()
		return
	}
	ae := toAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if ae.Code == apierr.CodeInternal {
			ae = apierr.New(ae.Status, ae.Code, errors.New("An unexpected error occurred"))
		}
	}
	response.RespondAPIError(c, ae)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidRequest, err)
		return false
	}
	return true
}
