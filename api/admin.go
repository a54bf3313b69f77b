package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/portfolio/errors"
	"github.com/kbukum/portfolio/ingest"
	"github.com/kbukum/portfolio/server"
	"github.com/kbukum/portfolio/validation"
)

// LoginRequest is the body of POST /api/admin/login.
type LoginRequest struct {
	Password string `json:"password" form:"password" validate:"required"`
}

// Login checks the admin password and sets the session cookie.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("malformed login request").WithCause(err))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	token, exp, err := h.auth.Login(c.Request.Context(), req.Password)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.auth.SetSession(c, token, exp)
	c.JSON(http.StatusOK, Result{Success: true, Message: "Login successful"})
}

// Logout clears the session cookie. It succeeds without a session.
func (h *Handler) Logout(c *gin.Context) {
	h.auth.ClearSession(c)
	c.JSON(http.StatusOK, Result{Success: true, Message: "Logged out"})
}

// Session reports whether the caller holds an admin session.
func (h *Handler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": h.auth.Authenticated(c.Request)})
}

// Upload ingests the multipart image with its title, description and
// featured flag.
func (h *Handler) Upload(c *gin.Context) {
	limit := h.pipeline.Config().MaxFileSize

	fh, err := c.FormFile("image")
	if err != nil {
		server.RespondWithError(c, formError(err, limit))
		return
	}
	if fh.Size > limit {
		server.RespondWithError(c, apperrors.PayloadTooLarge(limit))
		return
	}
	data, err := readPart(fh, limit)
	if err != nil {
		server.RespondWithError(c, formError(err, limit))
		return
	}

	img, err := h.pipeline.Ingest(c.Request.Context(), ingest.Upload{
		Filename:    fh.Filename,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		IsFeatured:  strings.EqualFold(strings.TrimSpace(c.PostForm("is_featured")), "true"),
		Data:        data,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	view := img.View(h.pipeline.Storage())
	c.JSON(http.StatusOK, Result{Success: true, Message: "Image uploaded successfully", Image: &view})
}

// Delete removes an image and its blobs.
func (h *Handler) Delete(c *gin.Context) {
	id, err := validation.ParseID("id", c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := h.pipeline.Remove(c.Request.Context(), id); err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, Result{Success: true, Message: "Image deleted successfully"})
}

func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	// one byte over the limit lets the pipeline report the size precisely
	return io.ReadAll(io.LimitReader(f, limit+1))
}

// formError maps multipart failures to client errors.
func formError(err error, limit int64) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return apperrors.PayloadTooLarge(maxErr.Limit)
	case errors.Is(err, http.ErrMissingFile):
		return apperrors.MissingField("image")
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, multipart.ErrMessageTooLarge):
		return apperrors.Validation("expected a multipart/form-data upload").WithCause(err)
	}
	return apperrors.Internal(err)
}
