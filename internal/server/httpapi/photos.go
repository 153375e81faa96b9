package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/growkeeper/internal/api"
	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/server/services"
)

// multipartOverhead is the slack allowed on top of the photo size for
// boundaries and part headers.
const multipartOverhead = 1 << 20

func (h *Handler) UploadPhoto(c *gin.Context) {
	maxSize := h.photos.MaxSize()
	if maxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)
	}

	fh, err := c.FormFile(common.PhotoFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, services.ErrPhotoTooLarge)
			return
		}
		abortWithError(c, http.StatusBadRequest, errors.New("missing "+common.PhotoFormField+" file"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, errors.New("invalid file"))
		return
	}
	defer f.Close()

	key, err := h.photos.Upload(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.PhotoResponse{Key: key, Size: fh.Size})
}

func (h *Handler) ListPhotos(c *gin.Context) {
	photos, next, err := h.photos.List(c.Request.Context(), c.Query("prefix"), c.Query("cursor"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := api.PhotoListResponse{Items: make([]api.PhotoItem, 0, len(photos))}
	for _, p := range photos {
		resp.Items = append(resp.Items, api.PhotoItem{Key: p.Key, Size: p.Size, Uploaded: p.FormatUploaded()})
	}
	if next != "" {
		resp.Cursor = &next
	}
	c.JSON(http.StatusOK, resp)
}

// GetPhoto redirects to a short-lived presigned URL.
func (h *Handler) GetPhoto(c *gin.Context) {
	url, err := h.photos.DownloadURL(c.Request.Context(), photoKey(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *Handler) DeletePhoto(c *gin.Context) {
	if err := h.photos.Delete(c.Request.Context(), photoKey(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func photoKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}
