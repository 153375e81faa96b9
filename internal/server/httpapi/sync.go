package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/growkeeper/internal/api"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

// Pull answers {"since": ts}. An empty body or empty since means "everything".
func (h *Handler) Pull(c *gin.Context) {
	var req api.PullRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	since := timex.Epoch
	if req.Since != "" {
		t, err := timex.ParseTimestamp(req.Since)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err)
			return
		}
		since = t
	}

	changes, err := h.sync.Pull(c.Request.Context(), since)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, changes)
}

// Push applies the body and answers with the server timestamp. The body is
// rejected as a whole when any table or row does not match the schema.
func (h *Handler) Push(c *gin.Context) {
	var changes schema.Changes
	if err := c.ShouldBindJSON(&changes); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	ts, err := h.sync.Push(c.Request.Context(), changes)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info(c.Request.Context(), "push", "user_id", UserIDFromContext(c), "rows", changes.RowCount(), "deleted", len(changes.Deleted))
	c.JSON(http.StatusOK, api.PushResponse{Timestamp: timex.FormatTimestamp(ts)})
}
