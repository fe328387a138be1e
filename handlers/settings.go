package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abodd44/hashdocker-document-hub/internal/i18n"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/internal/users"
	"github.com/abodd44/hashdocker-document-hub/internal/validation"
)

// SettingsHandler serves theme and language preferences and the public
// translation tables.
type SettingsHandler struct {
	users *users.Service
}

func NewSettingsHandler(u *users.Service) *SettingsHandler {
	validation.Default()
	return &SettingsHandler{users: u}
}

// Register adds the per-user settings routes to an authenticated group.
func (h *SettingsHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/settings", h.Get)
	rg.PUT("/settings", h.Update)
	rg.POST("/settings/theme/toggle", h.ToggleTheme)
}

// RegisterPublic adds the translation routes.
func (h *SettingsHandler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/i18n", h.Languages)
	rg.GET("/i18n/:lang", h.Translations)
}

type settingsRequest struct {
	Theme    string `json:"theme" binding:"omitempty,theme"`
	Language string `json:"language" binding:"omitempty,lang"`
}

func settingsBody(p models.Preferences) gin.H {
	lang := i18n.Normalize(p.Language)
	theme := p.Theme
	if !i18n.ValidTheme(theme) {
		theme = i18n.ThemeLight
	}
	return gin.H{
		"theme":        theme,
		"language":     lang,
		"direction":    i18n.Direction(lang),
		"translations": i18n.Table(lang),
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	u, err := h.users.GetByID(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingsBody(u.Preferences))
}

func (h *SettingsHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	u, err := h.users.UpdatePreferences(c.Request.Context(), a.ID, models.Preferences{Theme: req.Theme, Language: req.Language})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingsBody(u.Preferences))
}

func (h *SettingsHandler) ToggleTheme(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	u, err := h.users.ToggleTheme(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingsBody(u.Preferences))
}

// Languages lists the supported languages with their text direction.
func (h *SettingsHandler) Languages(c *gin.Context) {
	out := make([]gin.H, 0, len(i18n.Languages()))
	for _, l := range i18n.Languages() {
		out = append(out, gin.H{"code": l, "direction": i18n.Direction(l)})
	}
	c.JSON(http.StatusOK, gin.H{"languages": out})
}

func (h *SettingsHandler) Translations(c *gin.Context) {
	lang := c.Param("lang")
	if !i18n.Supported(lang) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unsupported language"})
		return
	}
	lang = i18n.Normalize(lang)
	c.JSON(http.StatusOK, gin.H{"language": lang, "direction": i18n.Direction(lang), "translations": i18n.Table(lang)})
}
