package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/growkeeper/internal/api"
	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/server/services"
)

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: err.Error()})
}

// writeError maps service errors to statuses. Unexpected errors are logged
// and reported as a bare "internal error".
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrorUnauthorized):
		abortWithError(c, http.StatusUnauthorized, unwrapSentinel(err))
	case errors.Is(err, common.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, common.ErrUserAlreadyExists)
	case errors.Is(err, common.ErrorNotFound):
		abortWithError(c, http.StatusNotFound, common.ErrorNotFound)
	case errors.Is(err, services.ErrPhotoTooLarge):
		abortWithError(c, http.StatusRequestEntityTooLarge, services.ErrPhotoTooLarge)
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, services.ErrInvalidKey),
		errors.Is(err, schema.ErrUnknownTable),
		errors.Is(err, schema.ErrUnknownColumn),
		errors.Is(err, schema.ErrMissingID),
		errors.Is(err, schema.ErrInvalidValue):
		abortWithError(c, http.StatusBadRequest, err)
	default:
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		abortWithError(c, http.StatusInternalServerError, common.ErrorInternal)
	}
}

func unwrapSentinel(err error) error {
	for _, s := range []error{common.ErrTokenExpired, common.ErrRefreshTokenExpired} {
		if errors.Is(err, s) {
			return s
		}
	}
	return common.ErrorUnauthorized
}
