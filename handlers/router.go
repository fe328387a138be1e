package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/abodd44/hashdocker-document-hub/pkg/middleware"
)

// API groups the portal handlers.
type API struct {
	Auth          *AuthHandler
	Documents     *DocumentsHandler
	Feedback      *FeedbackHandler
	Notifications *NotificationsHandler
	Courses       *CoursesHandler
	Settings      *SettingsHandler
}

// Mount registers the public routes on v1 and the rest behind auth.
func (a *API) Mount(v1 *gin.RouterGroup, auth gin.HandlerFunc) {
	public := v1.Group("", middleware.LocaleMiddleware())
	a.Auth.Register(public)
	a.Settings.RegisterPublic(public)

	protected := v1.Group("", auth, middleware.LocaleMiddleware())
	a.Auth.RegisterProfile(protected)
	a.Documents.Register(protected)
	a.Feedback.Register(protected)
	a.Notifications.Register(protected)
	a.Courses.Register(protected)
	a.Settings.Register(protected)
}
