package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locamark/internal/i18n"
	"locamark/internal/models"
	"locamark/internal/service"
)

type SettingsController struct {
	svc *service.LocationService
}

func NewSettingsController(svc *service.LocationService) *SettingsController {
	return &SettingsController{svc: svc}
}

func settingsResponse(s models.Settings) gin.H {
	return gin.H{
		"settings":            s,
		"supported_languages": i18n.Supported(),
	}
}

func (sc *SettingsController) Get(c *gin.Context) {
	s, err := sc.svc.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingsResponse(s))
}

type updateSettingsInput struct {
	Language       *string `json:"language"`
	IsDarkMode     *bool   `json:"is_dark_mode"`
	ToggleDarkMode bool    `json:"toggle_dark_mode"`
}

// Update applies only the fields present in the body.
func (sc *SettingsController) Update(c *gin.Context) {
	var input updateSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	s, err := sc.svc.Settings(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	if input.Language != nil {
		if s, err = sc.svc.SetLanguage(ctx, *input.Language); err != nil {
			respondError(c, err)
			return
		}
	}
	switch {
	case input.IsDarkMode != nil:
		s, err = sc.svc.SetDarkMode(ctx, *input.IsDarkMode)
	case input.ToggleDarkMode:
		s, err = sc.svc.ToggleDarkMode(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, settingsResponse(s))
}
