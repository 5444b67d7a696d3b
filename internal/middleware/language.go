package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"locamark/internal/models"
)

const languageKey = "language"

// Language stores the user's configured language in the request context so
// error messages can be localized.
func Language(lookup func(ctx context.Context) (string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang, err := lookup(c.Request.Context())
		if err != nil {
			logrus.WithError(err).Warn("Falling back to default language")
			lang = models.DefaultLanguage
		}
		c.Set(languageKey, lang)
		c.Next()
	}
}

// LanguageFrom returns the language chosen by Language, or the default.
func LanguageFrom(c *gin.Context) string {
	if lang := c.GetString(languageKey); lang != "" {
		return lang
	}
	return models.DefaultLanguage
}
