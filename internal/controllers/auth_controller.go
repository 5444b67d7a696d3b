package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"locamark/internal/i18n"
	"locamark/internal/middleware"
)

type AuthController struct {
	auth *middleware.Auth
}

func NewAuthController(auth *middleware.Auth) *AuthController {
	return &AuthController{auth: auth}
}

// Token exchanges the configured passphrase for a bearer token.
func (ac *AuthController) Token(c *gin.Context) {
	var body struct {
		Passphrase string `json:"passphrase" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	token, err := ac.auth.IssueToken(body.Passphrase)
	if err != nil {
		if errors.Is(err, middleware.ErrAuthDisabled) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logrus.WithError(err).WithField("client_ip", c.ClientIP()).Warn("Token request rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": i18n.T(middleware.LanguageFrom(c), i18n.MsgUnauthorized)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
