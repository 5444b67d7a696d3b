package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"locamark/internal/codec"
	"locamark/internal/geo"
	"locamark/internal/i18n"
	"locamark/internal/middleware"
	"locamark/internal/service"
	"locamark/internal/store"
)

// respondError maps domain errors to a status code and a localized message.
func respondError(c *gin.Context, err error) {
	status, key := classify(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}
	c.JSON(status, gin.H{"error": i18n.T(middleware.LanguageFrom(c), key)})
}

func badRequest(c *gin.Context, err error) {
	logrus.WithError(err).WithField("path", c.FullPath()).Debug("Bad request")
	c.JSON(http.StatusBadRequest, gin.H{"error": i18n.T(middleware.LanguageFrom(c), i18n.MsgInvalidRequest)})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrLocationUnavailable):
		if errors.Is(err, geo.ErrPermissionDenied) {
			return http.StatusForbidden, i18n.MsgLocationUnavailable
		}
		return http.StatusServiceUnavailable, i18n.MsgLocationUnavailable
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, i18n.MsgLocationNotFound
	case errors.Is(err, codec.ErrInvalidPayload):
		return http.StatusUnprocessableEntity, i18n.MsgInvalidPayload
	case errors.Is(err, codec.ErrNoQRCode):
		return http.StatusUnprocessableEntity, i18n.MsgNoQRCode
	case errors.Is(err, codec.ErrEmptyCSV):
		return http.StatusUnprocessableEntity, i18n.MsgEmptyCSV
	case errors.Is(err, service.ErrNothingToExport):
		return http.StatusNotFound, i18n.MsgNothingToExport
	case errors.Is(err, service.ErrUnsupportedLanguage):
		return http.StatusBadRequest, i18n.MsgUnsupportedLanguage
	case errors.Is(err, store.ErrPersistence):
		return http.StatusInternalServerError, i18n.MsgSaveFailed
	default:
		return http.StatusInternalServerError, i18n.MsgInternalError
	}
}
