package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/portfolio/errors"
	"github.com/kbukum/portfolio/logger"
)

// RespondWithError renders err as the standard error body. Errors that are
// not an *apperrors.AppError become a generic 500. Server-side failures are
// logged with their cause, which never reaches the client.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("Request failed", logger.Fields(
			"code", string(appErr.Code),
			"path", c.Request.URL.Path,
			logger.FieldError, err.Error(),
		))
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondOK sends a 200 JSON response.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// RespondCreated sends a 201 JSON response.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func errNoRoute(c *gin.Context) *apperrors.AppError {
	return apperrors.NotFound("route", c.Request.URL.Path)
}

func errNoMethod(c *gin.Context) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeMethodNotAllowed,
		"method "+c.Request.Method+" not allowed", http.StatusMethodNotAllowed)
}
