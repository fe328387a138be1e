package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/abodd44/hashdocker-document-hub/internal/i18n"
)

const languageKey = "lang"

// LocaleMiddleware resolves the response language: ?lang= first, then the
// caller's saved preference, then Accept-Language. Run it after AuthMiddleware
// on protected routes so preferences apply.
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := ""
		if q := c.Query("lang"); q != "" && i18n.Supported(q) {
			lang = i18n.Normalize(q)
		}
		if lang == "" {
			if p, ok := CurrentPrincipal(c); ok && i18n.Supported(p.Language) {
				lang = i18n.Normalize(p.Language)
			}
		}
		if lang == "" {
			lang = i18n.Negotiate(c.GetHeader("Accept-Language"))
		}
		c.Set(languageKey, lang)
		c.Header("Content-Language", lang)
		c.Next()
	}
}

// Language returns the language chosen by LocaleMiddleware, or negotiates it
// from the request when the middleware did not run.
func Language(c *gin.Context) string {
	if l := c.GetString(languageKey); l != "" {
		return l
	}
	if p, ok := CurrentPrincipal(c); ok && i18n.Supported(p.Language) {
		return i18n.Normalize(p.Language)
	}
	return i18n.Negotiate(c.GetHeader("Accept-Language"))
}
