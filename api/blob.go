package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/portfolio/errors"
	"github.com/kbukum/portfolio/imagecodec"
	"github.com/kbukum/portfolio/server"
	"github.com/kbukum/portfolio/storage"
)

const blobCacheControl = "public, max-age=86400"

// Blob serves an original or a thumbnail. Backends that serve their own
// objects get a redirect; otherwise the blob is streamed.
func (h *Handler) Blob(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !servableKey(key) {
		server.RespondWithError(c, apperrors.NotFound("image", key))
		return
	}
	ctx := c.Request.Context()
	blobs := h.pipeline.Storage()

	if r, ok := blobs.(storage.Redirector); ok {
		url, err := r.RedirectURL(ctx, key)
		if err != nil {
			server.RespondWithError(c, apperrors.StorageError(err))
			return
		}
		c.Redirect(http.StatusFound, url)
		return
	}

	rc, err := blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			server.RespondWithError(c, apperrors.NotFound("image", key))
			return
		}
		server.RespondWithError(c, apperrors.StorageError(err))
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, blobContentType(key), rc, map[string]string{
		"Cache-Control":          blobCacheControl,
		"X-Content-Type-Options": "nosniff",
	})
}

// servableKey accepts "<name>" and "thumbnails/<name>" where name has no
// separators.
func servableKey(key string) bool {
	name := strings.TrimPrefix(key, storage.ThumbnailPrefix)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return false
	}
	return storage.ValidateKey(key) == nil
}

// blobContentType returns the content type for key. Thumbnails are always
// JPEG whatever the original extension.
func blobContentType(key string) string {
	if strings.HasPrefix(key, storage.ThumbnailPrefix) {
		return "image/jpeg"
	}
	return imagecodec.ContentType(imagecodec.Extension(key))
}
